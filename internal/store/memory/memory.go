/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package memory is an in-process store.Store. Every atomic unit holds a
// single mutex and works on a copy-on-write snapshot that replaces the live
// state only when the unit succeeds.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"earnyard-ledger-go/internal/store"

	"go.uber.org/zap"
)

// Compile-time check: *Store must satisfy store.Store.
var (
	_ store.Store = (*Store)(nil)
	_ store.Tx    = (*memTx)(nil)
)

var errClosed = errors.New("memory store is closed")

type Store struct {
	mu     sync.Mutex
	state  *state
	closed bool
}

func New() *Store {
	zap.L().Info("Using in-memory store")
	return &Store{state: newState()}
}

func (s *Store) Atomic(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}

	tx := &memTx{base: s.state}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.work != nil {
		s.state = tx.work
	}
	return nil
}

func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

type state struct {
	users        map[string]userRecord
	requests     map[string]requestRecord
	offers       map[string]offerRecord
	engagements  map[string]engagementRecord
	submissions  map[string]submissionRecord
	tickets      map[string]ticketRecord
	settings     *settingsRecord
	transactions []transactionRecord
	seq          int64
}

func newState() *state {
	return &state{
		users:       map[string]userRecord{},
		requests:    map[string]requestRecord{},
		offers:      map[string]offerRecord{},
		engagements: map[string]engagementRecord{},
		submissions: map[string]submissionRecord{},
		tickets:     map[string]ticketRecord{},
	}
}

// clone copies the containers. Records are values that are never mutated in
// place, so sharing them between snapshots is safe.
func (s *state) clone() *state {
	c := &state{
		users:        maps.Clone(s.users),
		requests:     maps.Clone(s.requests),
		offers:       maps.Clone(s.offers),
		engagements:  maps.Clone(s.engagements),
		submissions:  maps.Clone(s.submissions),
		tickets:      maps.Clone(s.tickets),
		settings:     s.settings,
		transactions: slices.Clone(s.transactions),
		seq:          s.seq,
	}
	return c
}

type memTx struct {
	base *state
	work *state
}

func (t *memTx) read() *state {
	if t.work != nil {
		return t.work
	}
	return t.base
}

func (t *memTx) write() *state {
	if t.work == nil {
		t.work = t.base.clone()
	}
	return t.work
}

// next returns an insertion sequence used to keep listing order stable.
func (t *memTx) next() int64 {
	w := t.write()
	w.seq++
	return w.seq
}

package store

import (
	"errors"
	"testing"

	"earnyard-ledger-go/internal/models"
)

// Compile-time checks that the interfaces are importable and usable.
func TestStoreInterfaceExists(t *testing.T) {
	_ = ErrConcurrentModification
	_ = ErrDuplicateKey
	_ = ErrNegativeBalance
	_ = RequestFilter{Status: models.StatusPending}

	var _ Store
	var _ Tx
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	all := []error{ErrConcurrentModification, ErrDuplicateKey, ErrNegativeBalance, models.ErrNotFound}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("Expected %v and %v to be distinct", a, b)
			}
		}
	}
}

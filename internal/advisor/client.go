// Package advisor talks to a remote text-completion endpoint. Every call
// degrades to a static reply on failure and never touches wallet state.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"earnyard-ledger-go/internal/metrics"
	"earnyard-ledger-go/internal/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	FallbackGuidance = "YardKeeper node congested. Please use the 'Contact Admin' tab."
	FallbackSupport  = "Your request has been logged. Our team will review it shortly."
	FallbackAdmin    = "Neural link failed. Verify terminal permissions."

	maxResponseBytes = 1 << 20
)

var errDisabled = errors.New("advisor disabled")

// Snapshot is the read-only platform state handed to the model.
type Snapshot struct {
	UserCount        int
	PendingApprovals int
	ActiveTasks      int
}

type Client struct {
	cfg    models.AdvisorConfig
	policy models.Policy
	http   *http.Client
}

func New(cfg models.AdvisorConfig, policy models.Policy) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if cfg.ResponsePath == "" {
		cfg.ResponsePath = "text"
	}
	return &Client{cfg: cfg, policy: policy, http: &http.Client{Timeout: timeout}}
}

// GetGuidance answers a user question about platform rules.
func (c *Client) GetGuidance(ctx context.Context, query string) string {
	prompt := fmt.Sprintf(`You are the "YardKeeper AI" for EarnYard, a P2P earning and growth platform.

Platform Rules:
- Tasks pay a minimum of $0.10.
- Daily Growth Boost: %s%% daily interest on wallet balances (capped at $%s/day).
- Yard Fee: all withdrawals are subject to a %s%% platform fee.
- Top-ups are fee-free.
- Creator Hub: users can deploy tasks.

User Query: %q

Provide a helpful, concise answer. Refer to fees as "Yard Fees".`,
		c.policy.DefaultDailyInterestRate.Shift(2).String(),
		c.policy.BaseDailyBoostCap.StringFixed(2),
		c.policy.WithdrawalFeeRate.Shift(2).String(),
		query)
	return c.completeOr(ctx, "guidance", prompt, FallbackGuidance)
}

// GetAdminGuidance answers an operator question with a platform overview.
func (c *Client) GetAdminGuidance(ctx context.Context, query string, snap Snapshot) string {
	prompt := fmt.Sprintf(`You are the "EarnYard Comptroller".

App State Overview:
- Users Count: %d
- Pending Approvals: %d
- Active Tasks: %d

Admin Query: %q

Provide high-level administrative guidance concisely using Markdown.`,
		snap.UserCount, snap.PendingApprovals, snap.ActiveTasks, query)
	return c.completeOr(ctx, "admin_guidance", prompt, FallbackAdmin)
}

// DraftSupportReply drafts a staff reply to a support ticket.
func (c *Client) DraftSupportReply(ctx context.Context, ticket *models.SupportTicket) string {
	prompt := fmt.Sprintf("Draft a helpful, professional response to this support request: %q. "+
		"Mention that the request is being handled by the EarnYard Support Team.",
		ticket.Subject+": "+ticket.Content)
	return c.completeOr(ctx, "support_reply", prompt, FallbackSupport)
}

func (c *Client) completeOr(ctx context.Context, kind, prompt, fallback string) string {
	text, err := c.complete(ctx, prompt)
	if err != nil {
		if !errors.Is(err, errDisabled) {
			zap.L().Warn("Advisor call failed", zap.String("kind", kind), zap.Error(err))
		}
		metrics.AdvisorCalls.WithLabelValues("fallback").Inc()
		return fallback
	}
	metrics.AdvisorCalls.WithLabelValues("ok").Inc()
	return text
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if !c.cfg.Enabled || c.cfg.Endpoint == "" {
		return "", errDisabled
	}

	body, err := json.Marshal(map[string]string{"model": c.cfg.Model, "prompt": prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion endpoint: status %d", resp.StatusCode)
	}

	text := strings.TrimSpace(gjson.GetBytes(respBody, c.cfg.ResponsePath).String())
	if text == "" {
		return "", fmt.Errorf("completion endpoint: no text at %q", c.cfg.ResponsePath)
	}
	return text, nil
}

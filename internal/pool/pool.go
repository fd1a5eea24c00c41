package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/croonlabs/croon/internal/identity"
	"github.com/croonlabs/croon/internal/studio"
)

// Common errors.
var (
	// ErrAllSessionsExhausted means no account in the pool could serve
	// the generation request.
	ErrAllSessionsExhausted = errors.New("pool: all sessions exhausted")

	// ErrPollTimeout means the completion poller gave up before every
	// asset reached a playable state.
	ErrPollTimeout = errors.New("pool: timed out waiting for assets")

	// ErrNoSessions means no account survived pool construction.
	ErrNoSessions = errors.New("pool: no accounts authenticated")
)

// Policy decides what the fallback loop does after a non-quota generation
// failure. Quota exhaustion always moves on to the next account regardless
// of policy.
type Policy int

const (
	// StopOnError abandons the remaining accounts: a non-quota failure is
	// treated as possibly systemic.
	StopOnError Policy = iota

	// SkipOnError keeps trying the remaining accounts.
	SkipOnError
)

// ParsePolicy parses a policy name from config or flags.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "stop", "":
		return StopOnError, nil
	case "skip":
		return SkipOnError, nil
	default:
		return 0, fmt.Errorf("unknown error policy: %q", s)
	}
}

func (p Policy) String() string {
	if p == SkipOnError {
		return "skip"
	}
	return "stop"
}

// Prompter supplies the out-of-band one-time code for a phone number. The
// CLI implements it over stdin; tests implement it directly.
type Prompter interface {
	Code(ctx context.Context, phone string) (string, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, phone string) (string, error)

// Code implements Prompter.
func (f PrompterFunc) Code(ctx context.Context, phone string) (string, error) {
	return f(ctx, phone)
}

// Job is the outcome of one successful generation call: the ordered asset
// ids, the session that owns them, and the prompt that produced them. The
// ids are immutable once issued.
type Job struct {
	IDs     []string
	Session *identity.Session
	Prompt  string
}

// Pool holds one authenticated session per account and drives generation
// across them. Accounts are tried strictly sequentially; each session's
// mutable credential state is owned by exactly one pool entry.
type Pool struct {
	identity *identity.Client
	sessions []*identity.Session
	policy   Policy
	logger   *slog.Logger
}

// New constructs the pool eagerly: every phone number runs the full
// sign-in and code exchange synchronously before New returns. An account
// that fails authentication is logged and excluded; it does not abort the
// pool. New fails only when no account at all survives.
func New(ctx context.Context, idc *identity.Client, phones []string, prompter Prompter, policy Policy, logger *slog.Logger) (*Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		identity: idc,
		policy:   policy,
		logger:   logger,
	}

	for _, phone := range phones {
		ch, err := idc.SignIn(ctx, phone)
		if err != nil {
			logger.Error("account excluded: sign-in failed", "phone", phone, "error", err)
			continue
		}

		code, err := prompter.Code(ctx, ch.Phone())
		if err != nil {
			logger.Error("account excluded: no code supplied", "phone", phone, "error", err)
			continue
		}

		s, err := ch.Resume(ctx, code)
		if err != nil {
			logger.Error("account excluded: code verification failed", "phone", phone, "error", err)
			continue
		}

		p.sessions = append(p.sessions, s)
	}

	if len(p.sessions) == 0 {
		return nil, ErrNoSessions
	}

	logger.Info("session pool ready", "accounts", len(p.sessions), "policy", policy.String())
	return p, nil
}

// Size returns the number of usable sessions in the pool.
func (p *Pool) Size() int { return len(p.sessions) }

// Sessions returns the pool's sessions in iteration order.
func (p *Pool) Sessions() []*identity.Session { return p.sessions }

// Generate tries the generation call across the pool's accounts in order
// and returns the first success. Before each attempt the account's
// credential is renewed; a renewal failure excludes that account.
//
// Quota exhaustion moves on to the next account. Any other generation
// failure is handled per the pool's policy: StopOnError abandons the
// remaining accounts, SkipOnError keeps going. If no account succeeds the
// call fails with ErrAllSessionsExhausted.
func (p *Pool) Generate(ctx context.Context, sc *studio.Client, prompt string, mode studio.Mode) (*Job, error) {
	for _, s := range p.sessions {
		if !s.Usable() {
			continue
		}

		p.logger.Info("attempting generation", "phone", s.Phone())

		if err := p.identity.Renew(ctx, s); err != nil {
			p.logger.Error("account excluded: renewal failed", "phone", s.Phone(), "error", err)
			continue
		}

		ids, err := sc.Generate(ctx, s, prompt, mode)
		if err == nil {
			return &Job{IDs: ids, Session: s, Prompt: prompt}, nil
		}

		if errors.Is(err, studio.ErrQuotaExhausted) {
			p.logger.Warn("quota exhausted, trying next account", "phone", s.Phone())
			continue
		}

		p.logger.Error("generation failed", "phone", s.Phone(), "error", err)
		if p.policy == StopOnError {
			return nil, fmt.Errorf("account %s: %w", s.Phone(), err)
		}
	}

	return nil, ErrAllSessionsExhausted
}

// WaitReady polls the batch status at a fixed interval until every asset in
// the job is playable. Each poll re-fetches the full batch; nothing is
// cached between polls. The wait is bounded: after maxAttempts polls it
// fails with ErrPollTimeout, and ctx cancellation stops it early.
func (p *Pool) WaitReady(ctx context.Context, sc *studio.Client, job *Job, interval time.Duration, maxAttempts int) error {
	if maxAttempts <= 0 {
		return fmt.Errorf("pool: maxAttempts must be positive")
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := p.identity.Renew(ctx, job.Session); err != nil {
			return err
		}

		batch, err := sc.Status(ctx, job.Session, job.IDs)
		if err != nil {
			return err
		}

		for _, clip := range batch {
			p.logger.Debug("asset status", "id", clip.ID, "status", clip.Status)
		}

		if len(batch) == len(job.IDs) && batch.Ready() {
			p.logger.Info("all assets ready", "ids", job.IDs, "polls", attempt)
			return nil
		}

		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	return fmt.Errorf("%w after %d attempts", ErrPollTimeout, maxAttempts)
}

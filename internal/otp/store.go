package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Regera24/AstraMindProject/internal/repository"
)

const codeDigits = 1000000

// Store issues one-time password-reset codes and owns their expiry. Codes are
// persisted on the account row; expiry is enforced by an in-process timer armed
// at issue time, not by a store TTL. A restart before the timer fires leaves
// the code logically stale until the field is next overwritten or cleared.
type Store struct {
	accounts repository.AccountRepository
	ttl      time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	timers map[int64]*time.Timer
}

// NewStore constructs the OTP store. ttl is how long an issued code stays
// valid; the original behavior is 300 seconds.
func NewStore(accounts repository.AccountRepository, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		accounts: accounts,
		ttl:      ttl,
		logger:   logger,
		timers:   make(map[int64]*time.Timer),
	}
}

// IssueCode generates a fresh 6-digit code, persists it on the account, and
// arms the auto-clear timer. Issuing again before expiry overwrites the prior
// code and re-arms the timer, so at most one code is live per account.
func (s *Store) IssueCode(ctx context.Context, accountID int64) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	if err := s.accounts.SetOtp(ctx, accountID, code); err != nil {
		return "", fmt.Errorf("persist otp: %w", err)
	}

	s.arm(accountID)
	return code, nil
}

// CheckCode reports whether the candidate exactly matches the live code for
// the account. An empty stored code never matches.
func (s *Store) CheckCode(ctx context.Context, accountID int64, candidate string) (bool, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("load account: %w", err)
	}
	if account.Otp == "" || candidate == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(account.Otp), []byte(candidate)) == 1, nil
}

// Clear removes the live code and cancels any pending expiry timer. Clearing
// an account with no live code is a no-op.
func (s *Store) Clear(ctx context.Context, accountID int64) error {
	s.disarm(accountID)
	if err := s.accounts.ClearOtp(ctx, accountID); err != nil {
		return fmt.Errorf("clear otp: %w", err)
	}
	return nil
}

// Close cancels all pending timers. Codes already persisted stay in place.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Store) arm(accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[accountID]; ok {
		prev.Stop()
	}
	s.timers[accountID] = time.AfterFunc(s.ttl, func() {
		s.expire(accountID)
	})
}

func (s *Store) disarm(accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[accountID]; ok {
		t.Stop()
		delete(s.timers, accountID)
	}
}

// expire runs on the timer goroutine, never on a request path. Failures are
// swallowed: the account may be gone by the time the timer fires.
func (s *Store) expire(accountID int64) {
	s.mu.Lock()
	delete(s.timers, accountID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.accounts.ClearOtp(ctx, accountID); err != nil {
		s.logger.Warn("otp auto-clear failed",
			zap.Int64("account_id", accountID),
			zap.Error(err),
		)
	}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeDigits))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

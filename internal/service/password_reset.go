package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Regera24/AstraMindProject/internal/domain"
	"github.com/Regera24/AstraMindProject/internal/password"
)

// SendOTP starts a password reset. key may be an email address or a username;
// email is tried first and the caller never learns which one matched. The
// code is mailed to the account's registered address and auto-clears when its
// lifetime elapses.
func (s *CredentialService) SendOTP(ctx context.Context, key string) (SendOTPResult, error) {
	ctx, span := s.startSpan(ctx, "CredentialService.SendOTP")
	defer span.End()

	account, err := s.resolveByKey(ctx, key)
	if err != nil {
		span.RecordError(err)
		return SendOTPResult{}, err
	}

	code, err := s.otp.IssueCode(ctx, account.ID)
	if err != nil {
		span.RecordError(err)
		return SendOTPResult{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	body := fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.",
		code, int(s.cfg.OTPTTL.Minutes()))
	if err := s.mailer.Send(ctx, account.Email, "Password reset code", body); err != nil {
		span.RecordError(err)
		return SendOTPResult{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	s.audit("otp.sent", "account_id", account.ID)
	return SendOTPResult{AccountID: account.ID, Email: account.Email}, nil
}

// CheckOTP verifies a reset code without consuming it.
func (s *CredentialService) CheckOTP(ctx context.Context, key, code string) error {
	ctx, span := s.startSpan(ctx, "CredentialService.CheckOTP")
	defer span.End()

	account, err := s.resolveByKey(ctx, key)
	if err != nil {
		span.RecordError(err)
		return err
	}

	ok, err := s.otp.CheckCode(ctx, account.ID, code)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if !ok {
		return domain.ErrOtpInvalid
	}
	return nil
}

// ChangePassword completes a reset. The stored code is spent either way: a
// wrong code clears it and the flow must restart from SendOTP; a right code
// is cleared together with the password update.
func (s *CredentialService) ChangePassword(ctx context.Context, key, code, newPassword string) error {
	ctx, span := s.startSpan(ctx, "CredentialService.ChangePassword")
	defer span.End()

	account, err := s.resolveByKey(ctx, key)
	if err != nil {
		span.RecordError(err)
		return err
	}

	ok, err := s.otp.CheckCode(ctx, account.ID, code)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if !ok {
		if clearErr := s.otp.Clear(ctx, account.ID); clearErr != nil {
			span.RecordError(clearErr)
		}
		return domain.ErrOtpInvalid
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("hash password: %w", err)
	}

	// UpdatePassword clears the stored code in the same statement; the timer
	// still needs disarming so a stale expiry cannot fire later.
	if err := s.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if err := s.otp.Clear(ctx, account.ID); err != nil {
		span.RecordError(err)
	}

	s.audit("password.changed", "account_id", account.ID)
	return nil
}

// CheckUsername reports whether the username is free.
func (s *CredentialService) CheckUsername(ctx context.Context, username string) (bool, error) {
	ctx, span := s.startSpan(ctx, "CredentialService.CheckUsername")
	defer span.End()

	taken, err := s.accounts.ExistsByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return !taken, nil
}

// CheckUniqueInformation probes username, email and phone availability in one
// call. Empty fields report as available.
func (s *CredentialService) CheckUniqueInformation(ctx context.Context, in UniqueCheckInput) (UniqueCheck, error) {
	ctx, span := s.startSpan(ctx, "CredentialService.CheckUniqueInformation")
	defer span.End()

	out := UniqueCheck{Username: true, Email: true, PhoneNumber: true}

	if in.Username != "" {
		taken, err := s.accounts.ExistsByUsername(ctx, strings.TrimSpace(in.Username))
		if err != nil {
			span.RecordError(err)
			return UniqueCheck{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		out.Username = !taken
	}
	if in.Email != "" {
		taken, err := s.accounts.ExistsByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
		if err != nil {
			span.RecordError(err)
			return UniqueCheck{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		out.Email = !taken
	}
	if in.PhoneNumber != "" {
		taken, err := s.accounts.ExistsByPhoneNumber(ctx, in.PhoneNumber)
		if err != nil {
			span.RecordError(err)
			return UniqueCheck{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		out.PhoneNumber = !taken
	}

	return out, nil
}

// resolveByKey finds the account a reset key refers to, trying the key as an
// email address first and as a username second.
func (s *CredentialService) resolveByKey(ctx context.Context, key string) (domain.Account, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return domain.Account{}, domain.ErrUserNotFound
	}

	account, err := s.accounts.FindByEmail(ctx, strings.ToLower(trimmed))
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	account, err = s.accounts.FindByUsername(ctx, trimmed)
	if err != nil {
		return domain.Account{}, s.mapLookupErr(err)
	}
	return account, nil
}

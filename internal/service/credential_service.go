package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Regera24/AstraMindProject/internal/adapter/oauth"
	"github.com/Regera24/AstraMindProject/internal/config"
	"github.com/Regera24/AstraMindProject/internal/domain"
	"github.com/Regera24/AstraMindProject/internal/mail"
	"github.com/Regera24/AstraMindProject/internal/otp"
	"github.com/Regera24/AstraMindProject/internal/password"
	"github.com/Regera24/AstraMindProject/internal/repository"
	"github.com/Regera24/AstraMindProject/internal/token"
)

// CredentialService orchestrates login, registration, token refresh,
// introspection, password reset and federated sign-in.
type CredentialService struct {
	accounts  repository.AccountRepository
	sessions  repository.SessionStore
	codec     *token.Codec
	otp       *otp.Store
	federator oauth.Federator
	mailer    mail.Mailer
	snowflake *snowflake.Node
	cfg       config.Config
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewCredentialService wires dependencies.
func NewCredentialService(
	accounts repository.AccountRepository,
	sessions repository.SessionStore,
	codec *token.Codec,
	otpStore *otp.Store,
	federator oauth.Federator,
	mailer mail.Mailer,
	node *snowflake.Node,
	cfg config.Config,
	logger *zap.Logger,
) *CredentialService {
	return &CredentialService{
		accounts:  accounts,
		sessions:  sessions,
		codec:     codec,
		otp:       otpStore,
		federator: federator,
		mailer:    mailer,
		snowflake: node,
		cfg:       cfg,
		logger:    logger,
		tracer:    otel.Tracer("github.com/Regera24/AstraMindProject/internal/service"),
	}
}

// Login authenticates with username and password. On success it issues an
// access/refresh pair and stores the refresh token as the account's single
// live session, displacing whatever was stored before.
func (s *CredentialService) Login(ctx context.Context, username, pass string) (TokenPair, error) {
	ctx, span := s.startSpan(ctx, "CredentialService.Login")
	defer span.End()

	account, err := s.accounts.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		span.RecordError(err)
		return TokenPair{}, s.mapLookupErr(err)
	}

	ok, err := password.Matches(pass, account.Password)
	if err != nil || !ok {
		span.RecordError(domain.ErrUnauthenticated)
		return TokenPair{}, domain.ErrUnauthenticated
	}
	if !account.IsActive {
		span.RecordError(domain.ErrUnauthenticated)
		return TokenPair{}, domain.ErrUnauthenticated
	}

	pair, err := s.issueTokens(ctx, account)
	if err != nil {
		span.RecordError(err)
		return TokenPair{}, err
	}

	s.audit("login.success", "account_id", account.ID, "username", account.Username)
	return pair, nil
}

// Register creates a new account. Uniqueness is checked in order username,
// email, phone; the first violation wins and nothing is written.
func (s *CredentialService) Register(ctx context.Context, in RegisterInput) (domain.Account, error) {
	ctx, span := s.startSpan(ctx, "CredentialService.Register")
	defer span.End()

	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if taken, err := s.accounts.ExistsByUsername(ctx, username); err != nil {
		span.RecordError(err)
		return domain.Account{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	} else if taken {
		return domain.Account{}, domain.ErrUsernameExists
	}
	if taken, err := s.accounts.ExistsByEmail(ctx, email); err != nil {
		span.RecordError(err)
		return domain.Account{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	} else if taken {
		return domain.Account{}, domain.ErrEmailExists
	}
	if in.PhoneNumber != "" {
		if taken, err := s.accounts.ExistsByPhoneNumber(ctx, in.PhoneNumber); err != nil {
			span.RecordError(err)
			return domain.Account{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		} else if taken {
			return domain.Account{}, domain.ErrPhoneExists
		}
	}

	role := domain.RoleUser
	if in.Role != "" {
		parsed, err := domain.ParseRole(in.Role)
		if err != nil {
			return domain.Account{}, err
		}
		role = parsed
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		span.RecordError(err)
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:          s.snowflake.Generate().Int64(),
		Username:    username,
		FullName:    in.FullName,
		Email:       email,
		Password:    hash,
		IsActive:    true,
		Gender:      in.Gender,
		BirthDate:   in.BirthDate,
		AvatarURL:   in.AvatarURL,
		PhoneNumber: in.PhoneNumber,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		span.RecordError(err)
		return domain.Account{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	s.audit("register.success", "account_id", created.ID, "username", created.Username)
	return created, nil
}

// Profile loads the account behind an authenticated request.
func (s *CredentialService) Profile(ctx context.Context, accountID int64) (domain.Account, error) {
	ctx, span := s.startSpan(ctx, "CredentialService.Profile")
	defer span.End()

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		span.RecordError(err)
		return domain.Account{}, s.mapLookupErr(err)
	}
	return account, nil
}

// Introspect reports whether the presented access token is currently usable.
// Bad tokens yield Active=false, never an error.
func (s *CredentialService) Introspect(ctx context.Context, raw string) IntrospectResult {
	_, span := s.startSpan(ctx, "CredentialService.Introspect")
	defer span.End()

	claims, err := s.codec.Verify(raw, token.KindAccess)
	if err != nil {
		return IntrospectResult{Active: false}
	}
	return IntrospectResult{
		Active:    true,
		Subject:   claims.Subject,
		AccountID: claims.AccountID,
		Scope:     claims.Scope.String(),
		ExpiresAt: claims.ExpiresAt,
	}
}

// Refresh exchanges a live refresh token for a fresh access token. The
// presented token must match the account's stored session exactly; a login
// from another device displaces it and invalidates this one. The refresh
// token itself is not rotated.
func (s *CredentialService) Refresh(ctx context.Context, raw string) (string, error) {
	ctx, span := s.startSpan(ctx, "CredentialService.Refresh")
	defer span.End()

	claims, err := s.codec.Verify(raw, token.KindRefresh)
	if err != nil {
		span.RecordError(err)
		return "", domain.ErrUnauthenticated
	}

	account, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrUnauthenticated
		}
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if !account.IsActive {
		return "", domain.ErrUnauthenticated
	}

	stored, err := s.sessions.Get(ctx, account.ID)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if stored == "" || stored != raw {
		return "", domain.ErrUnauthenticated
	}

	access, err := s.codec.Issue(account.Username, account.ID, account.Role, token.KindAccess)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("issue access token: %w", err)
	}

	s.audit("refresh.success", "account_id", account.ID)
	return access, nil
}

// OutboundAuthenticate completes a Google sign-in: it exchanges the
// authorization code, loads the external profile, and finds or creates the
// local account for the profile's email. Only an access token is issued; this
// path does not establish a refresh session.
func (s *CredentialService) OutboundAuthenticate(ctx context.Context, code string) (string, error) {
	ctx, span := s.startSpan(ctx, "CredentialService.OutboundAuthenticate")
	defer span.End()

	providerToken, err := s.federator.ExchangeCode(ctx, code)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	profile, err := s.federator.FetchProfile(ctx, providerToken)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	email := strings.ToLower(strings.TrimSpace(profile.Email))
	account, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		account, err = s.provisionFederated(ctx, email, profile)
		if err != nil {
			span.RecordError(err)
			return "", err
		}
	default:
		span.RecordError(err)
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	if !account.IsActive {
		return "", domain.ErrAccountDisabled
	}

	access, err := s.codec.Issue(account.Username, account.ID, account.Role, token.KindAccess)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("issue access token: %w", err)
	}

	s.audit("oauth.login.success", "account_id", account.ID, "email", email)
	return access, nil
}

// provisionFederated creates a local account for a first-time federated
// sign-in. The password is a random uuid the user never sees; the username is
// the email local part with a numeric suffix when taken.
func (s *CredentialService) provisionFederated(ctx context.Context, email string, profile oauth.Profile) (domain.Account, error) {
	username, err := s.availableUsername(ctx, email)
	if err != nil {
		return domain.Account{}, err
	}

	hash, err := password.Hash(uuid.NewString())
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:        s.snowflake.Generate().Int64(),
		Username:  username,
		FullName:  profile.Name,
		Email:     email,
		Password:  hash,
		IsActive:  true,
		AvatarURL: profile.Picture,
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		return domain.Account{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	s.audit("oauth.register.success", "account_id", created.ID, "username", created.Username)
	return created, nil
}

func (s *CredentialService) availableUsername(ctx context.Context, email string) (string, error) {
	base := strings.ToLower(email)
	if i := strings.Index(base, "@"); i > 0 {
		base = base[:i]
	}
	if base == "" {
		base = "user"
	}

	candidate := base
	for suffix := 1; ; suffix++ {
		taken, err := s.accounts.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, suffix)
	}
}

func (s *CredentialService) issueTokens(ctx context.Context, account domain.Account) (TokenPair, error) {
	access, err := s.codec.Issue(account.Username, account.ID, account.Role, token.KindAccess)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.Issue(account.Username, account.ID, account.Role, token.KindRefresh)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.sessions.Set(ctx, account.ID, refresh, s.cfg.RefreshTokenTTL); err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *CredentialService) mapLookupErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrUserNotFound
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
}

func (s *CredentialService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *CredentialService) audit(event string, attrs ...any) {
	logger := s.log()
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *CredentialService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}

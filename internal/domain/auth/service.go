package auth

import (
	"context"
	"errors"
	"time"

	"melodix-server-go/internal/domain/auth/model"
	"melodix-server-go/internal/domain/auth/store"
	"melodix-server-go/internal/domain/eventbus"
	perrors "melodix-server-go/internal/platform/errors"
)

// User-visible messages. Login and registration deliberately share one
// wording whether the email is unknown, the account is inactive or the
// password is wrong, to resist account enumeration.
const (
	MsgInvalidCredentials = "invalid email or password"
	MsgAccountLocked      = "too many failed attempts, please try again later"
	MsgResetInvalid       = "reset token is invalid or has expired"
	MsgResetAck           = "If the email exists, a reset link has been sent."
)

// Options encapsulates the dependencies required to construct a Service.
type Options struct {
	Store       store.Store
	Tokens      *TokenService
	Sessions    *SessionRegistry
	Revocations *RevocationRegistry
	Attempts    *AttemptGuard
	UserCache   *UserCache
	Hasher      *PasswordHasher
	Bus         eventbus.Bus
	Logger      model.Logger
}

// Service is the credential orchestrator composing tokens, sessions,
// revocation, attempt throttling and the user cache into the auth flows.
type Service struct {
	store       store.Store
	tokens      *TokenService
	sessions    *SessionRegistry
	revocations *RevocationRegistry
	attempts    *AttemptGuard
	userCache   *UserCache
	hasher      *PasswordHasher
	bus         eventbus.Bus
	logger      model.Logger
}

// NewService wires a Service using the supplied options.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("auth service requires a user store")
	}
	if opts.Tokens == nil {
		return nil, errors.New("auth service requires a token service")
	}
	if opts.Sessions == nil || opts.Revocations == nil || opts.Attempts == nil || opts.UserCache == nil {
		return nil, errors.New("auth service requires the cache-backed registries")
	}
	if opts.Logger == nil {
		return nil, errors.New("auth service requires a logger")
	}
	if opts.Hasher == nil {
		opts.Hasher = NewPasswordHasher(0)
	}
	return &Service{
		store:       opts.Store,
		tokens:      opts.Tokens,
		sessions:    opts.Sessions,
		revocations: opts.Revocations,
		attempts:    opts.Attempts,
		userCache:   opts.UserCache,
		hasher:      opts.Hasher,
		bus:         opts.Bus,
		logger:      opts.Logger,
	}, nil
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// AuthResult is returned by the register and login flows.
type AuthResult struct {
	User        model.UserView `json:"user"`
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int            `json:"expires_in"`
	SessionID   string         `json:"session_id"`
}

// Register creates a credential, issues an access token and opens a session.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	const op = "auth.register"

	if err := s.rejectIfLocked(ctx, op, in.Email); err != nil {
		return nil, err
	}

	if existing, err := s.store.FindByEmail(ctx, in.Email); err != nil {
		return nil, perrors.Wrap(perrors.KindStorage, op, "user lookup failed", err)
	} else if existing != nil {
		return nil, perrors.New(perrors.KindConflict, op, "email already registered")
	}
	if existing, err := s.store.FindByUsername(ctx, in.Username); err != nil {
		return nil, perrors.Wrap(perrors.KindStorage, op, "user lookup failed", err)
	} else if existing != nil {
		return nil, perrors.New(perrors.KindConflict, op, "username already taken")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, perrors.Wrap(perrors.KindUnknown, op, "password hashing failed", err)
	}

	user := &model.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
		FullName: in.FullName,
		Active:   true,
		Role:     model.RoleUser,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, perrors.Wrap(perrors.KindStorage, op, "user creation failed", err)
	}

	result, err := s.openAuthenticated(ctx, op, user)
	if err != nil {
		return nil, err
	}
	if _, err := s.attempts.RecordAttempt(ctx, in.Email, true); err != nil {
		s.logger.Warn("attempt reset failed for %s: %v", in.Email, err)
	}
	s.logger.Info("user registered: %d (%s)", user.ID, user.Username)
	return result, nil
}

// Login verifies credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	const op = "auth.login"

	if err := s.rejectIfLocked(ctx, op, email); err != nil {
		return nil, err
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, perrors.Wrap(perrors.KindStorage, op, "user lookup failed", err)
	}
	if user == nil || !user.Active || !s.hasher.Verify(password, user.Password) {
		if _, err := s.attempts.RecordAttempt(ctx, email, false); err != nil {
			s.logger.Warn("attempt tracking failed for %s: %v", email, err)
		}
		return nil, perrors.New(perrors.KindAuth, op, MsgInvalidCredentials)
	}

	result, err := s.openAuthenticated(ctx, op, user)
	if err != nil {
		return nil, err
	}
	if _, err := s.attempts.RecordAttempt(ctx, email, true); err != nil {
		s.logger.Warn("attempt reset failed for %s: %v", email, err)
	}
	return result, nil
}

// openAuthenticated issues the access token, opens the session and populates
// the user cache. Session creation failure aborts the whole flow: the caller
// is never handed a token backed by no session.
func (s *Service) openAuthenticated(ctx context.Context, op string, user *model.User) (*AuthResult, error) {
	view := user.View()

	token, err := s.tokens.Issue(view, TokenKindAccess, 0)
	if err != nil {
		return nil, perrors.Wrap(perrors.KindUnknown, op, "token issuance failed", err)
	}

	sessionID, err := s.sessions.Open(ctx, view, token)
	if err != nil {
		if revokeErr := s.revocations.Revoke(ctx, token, s.tokens.AccessTTL()); revokeErr != nil {
			s.logger.Error("failed to revoke orphaned token: %v", revokeErr)
		}
		return nil, perrors.Wrap(perrors.KindCache, op, "session creation failed", err)
	}

	if err := s.userCache.Put(ctx, view); err != nil {
		s.logger.Warn("user cache populate failed for %d: %v", view.ID, err)
	}

	return &AuthResult{
		User:        view,
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.AccessTTL().Seconds()),
		SessionID:   sessionID,
	}, nil
}

func (s *Service) rejectIfLocked(ctx context.Context, op, identifier string) error {
	locked, err := s.attempts.IsLocked(ctx, identifier)
	if err != nil {
		return perrors.Wrap(perrors.KindCache, op, "lockout check failed", err)
	}
	if locked {
		return perrors.New(perrors.KindAuth, op, MsgAccountLocked)
	}
	return nil
}

// VerifyAccess validates a bearer token structurally and against the
// revocation registry. Internal failure kinds stay distinguishable for
// logging; callers normalise the message at the boundary.
func (s *Service) VerifyAccess(ctx context.Context, token string) (*Claims, error) {
	const op = "auth.verify"

	claims, err := s.tokens.Verify(token, TokenKindAccess)
	if err != nil {
		return nil, perrors.Wrap(perrors.KindAuth, op, "invalid token", err)
	}

	revoked, err := s.revocations.IsRevoked(ctx, token)
	if err != nil {
		return nil, perrors.Wrap(perrors.KindCache, op, "revocation check failed", err)
	}
	if revoked {
		return nil, perrors.New(perrors.KindAuth, op, "token revoked")
	}
	return claims, nil
}

// Logout revokes the presented token and closes the session, if known.
func (s *Service) Logout(ctx context.Context, token, sessionID string) error {
	const op = "auth.logout"

	if err := s.revocations.Revoke(ctx, token, s.tokens.AccessTTL()); err != nil {
		return perrors.Wrap(perrors.KindCache, op, "token revocation failed", err)
	}
	if sessionID != "" {
		if err := s.sessions.Close(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return perrors.Wrap(perrors.KindCache, op, "session close failed", err)
		}
	}
	return nil
}

// LogoutAll revokes the caller's current token, closes every session of the
// user and invalidates the cached view. Returns the number of sessions closed.
func (s *Service) LogoutAll(ctx context.Context, userID uint, token string) (int, error) {
	const op = "auth.logout_all"

	if err := s.revocations.Revoke(ctx, token, s.tokens.AccessTTL()); err != nil {
		return 0, perrors.Wrap(perrors.KindCache, op, "token revocation failed", err)
	}
	closed, err := s.sessions.CloseAll(ctx, userID)
	if err != nil {
		return closed, perrors.Wrap(perrors.KindCache, op, "session teardown failed", err)
	}
	if err := s.userCache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("user cache invalidation failed for %d: %v", userID, err)
	}
	return closed, nil
}

// ForgotPassword issues a reset token for active accounts and requests the
// notification. It intentionally reveals nothing about whether the email
// exists; the boundary always answers with MsgResetAck.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	const op = "auth.forgot_password"

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return perrors.Wrap(perrors.KindStorage, op, "user lookup failed", err)
	}
	if user == nil || !user.Active {
		return nil
	}

	token, err := s.tokens.Issue(user.View(), TokenKindReset, 0)
	if err != nil {
		return perrors.Wrap(perrors.KindUnknown, op, "reset token issuance failed", err)
	}
	expiration := time.Now().Add(s.tokens.ResetTTL())
	if _, err := s.store.Update(ctx, user.ID, map[string]any{
		store.FieldResetToken:      token,
		store.FieldResetExpiration: expiration,
	}); err != nil {
		return perrors.Wrap(perrors.KindStorage, op, "reset token persistence failed", err)
	}

	s.publish(eventbus.EventResetRequested, eventbus.ResetRequestedEvent{
		Email:       user.Email,
		Token:       token,
		DisplayName: user.DisplayName(),
	})
	s.logger.Info("password reset requested for user %d", user.ID)
	return nil
}

// ResetPassword consumes a reset token. The token must verify as kind reset
// and exactly match the persisted one within its stored expiry, making reset
// tokens single use: success clears the stored fields, so a replay fails even
// before signature-level expiry.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "auth.reset_password"

	claims, err := s.tokens.Verify(token, TokenKindReset)
	if err != nil {
		return perrors.Wrap(perrors.KindAuth, op, MsgResetInvalid, err)
	}

	user, err := s.store.FindByID(ctx, claims.UserID)
	if err != nil {
		return perrors.Wrap(perrors.KindStorage, op, "user lookup failed", err)
	}
	if user == nil {
		return perrors.New(perrors.KindAuth, op, MsgResetInvalid)
	}
	if user.ResetToken != token || user.ResetExpiration == nil || time.Now().After(*user.ResetExpiration) {
		return perrors.New(perrors.KindAuth, op, MsgResetInvalid)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return perrors.Wrap(perrors.KindUnknown, op, "password hashing failed", err)
	}
	if _, err := s.store.Update(ctx, user.ID, map[string]any{
		store.FieldPassword:        hash,
		store.FieldResetToken:      nil,
		store.FieldResetExpiration: nil,
	}); err != nil {
		return perrors.Wrap(perrors.KindStorage, op, "password update failed", err)
	}

	// The consumed reset token and every open session die with the old password.
	if err := s.revocations.Revoke(ctx, token, s.tokens.ResetTTL()); err != nil {
		s.logger.Warn("reset token revocation failed: %v", err)
	}
	if _, err := s.sessions.CloseAll(ctx, user.ID); err != nil {
		s.logger.Warn("session teardown failed for user %d: %v", user.ID, err)
	}
	if err := s.userCache.Invalidate(ctx, user.ID); err != nil {
		s.logger.Warn("user cache invalidation failed for %d: %v", user.ID, err)
	}

	s.publish(eventbus.EventPasswordChanged, eventbus.PasswordChangedEvent{
		Email:       user.Email,
		DisplayName: user.DisplayName(),
	})
	s.logger.Info("password reset completed for user %d", user.ID)
	return nil
}

// ResolveCurrentUser serves the user view behind verified claims, reading
// through the user cache with the store as source of truth.
func (s *Service) ResolveCurrentUser(ctx context.Context, claims *Claims) (*model.UserView, error) {
	const op = "auth.resolve_current_user"

	if claims == nil || claims.UserID == 0 {
		return nil, perrors.New(perrors.KindAuth, op, "invalid token payload")
	}

	return s.userCache.Fetch(ctx, claims.UserID, func(ctx context.Context) (*model.UserView, error) {
		user, err := s.store.FindByID(ctx, claims.UserID)
		if err != nil {
			return nil, perrors.Wrap(perrors.KindStorage, op, "user lookup failed", err)
		}
		if user == nil {
			return nil, perrors.New(perrors.KindNotFound, op, "user not found")
		}
		view := user.View()
		return &view, nil
	})
}

func (s *Service) publish(topic string, event any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(topic, event)
}

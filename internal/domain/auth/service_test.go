package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"melodix-server-go/internal/domain/auth/store"
	"melodix-server-go/internal/domain/eventbus"
	perrors "melodix-server-go/internal/platform/errors"
	platformtesting "melodix-server-go/internal/platform/testing"
)

type serviceFixture struct {
	service *Service
	store   store.Store
	bus     eventbus.Bus
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	_, client := platformtesting.SetupTestRedis(t)

	tokens, err := NewTokenService("test-secret", 30*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService error: %v", err)
	}
	userStore := store.NewMemory()
	bus := eventbus.New()
	service, err := NewService(Options{
		Store:       userStore,
		Tokens:      tokens,
		Sessions:    NewSessionRegistry(client, 30*time.Minute, nopLogger{}),
		Revocations: NewRevocationRegistry(client, time.Hour, nopLogger{}),
		Attempts:    NewAttemptGuard(client, 5, 50*time.Millisecond, time.Hour, nopLogger{}),
		UserCache:   NewUserCache(client, 5*time.Minute, nopLogger{}),
		Hasher:      NewPasswordHasher(4),
		Bus:         bus,
		Logger:      nopLogger{},
	})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	return &serviceFixture{service: service, store: userStore, bus: bus}
}

func (f *serviceFixture) register(t *testing.T, email string) *AuthResult {
	t.Helper()
	result, err := f.service.Register(context.Background(), RegisterInput{
		Username: strings.SplitN(email, "@", 2)[0],
		Email:    email,
		Password: "s3cret-pass",
		FullName: "Test User",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return result
}

func TestRegisterIssuesBearerAndSession(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	result := f.register(t, "alice@x.com")
	if result.TokenType != "bearer" {
		t.Fatalf("expected bearer token type, got %q", result.TokenType)
	}
	if result.AccessToken == "" || result.SessionID == "" {
		t.Fatalf("incomplete result: %+v", result)
	}
	if result.ExpiresIn != int((30 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expires_in: %d", result.ExpiresIn)
	}

	claims, err := f.service.VerifyAccess(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}
	if claims.UserID != result.User.ID || claims.Email != "alice@x.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// The password never leaves the store in clear text.
	stored, err := f.store.FindByEmail(ctx, "alice@x.com")
	if err != nil || stored == nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if stored.Password == "s3cret-pass" {
		t.Fatal("password stored unhashed")
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.register(t, "alice@x.com")

	_, err := f.service.Register(ctx, RegisterInput{
		Username: "alice2",
		Email:    "alice@x.com",
		Password: "another-pass",
	})
	if !perrors.IsKind(err, perrors.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	_, err = f.service.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "other@x.com",
		Password: "another-pass",
	})
	if !perrors.IsKind(err, perrors.KindConflict) {
		t.Fatalf("expected username conflict, got %v", err)
	}
}

func TestLoginWrongPasswordIsGeneric(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.register(t, "alice@x.com")

	_, errWrong := f.service.Login(ctx, "alice@x.com", "wrong-pass")
	_, errUnknown := f.service.Login(ctx, "nobody@x.com", "wrong-pass")

	for _, err := range []error{errWrong, errUnknown} {
		if !perrors.IsKind(err, perrors.KindAuth) {
			t.Fatalf("expected auth failure, got %v", err)
		}
		if got := perrors.UserMessage(err, ""); got != MsgInvalidCredentials {
			t.Fatalf("expected generic message, got %q", got)
		}
	}
}

func TestLoginInactiveAccountIsGeneric(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	result := f.register(t, "alice@x.com")

	if _, err := f.store.Update(ctx, result.User.ID, map[string]any{
		store.FieldActive: false,
	}); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	_, err := f.service.Login(ctx, "alice@x.com", "s3cret-pass")
	if !perrors.IsKind(err, perrors.KindAuth) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if got := perrors.UserMessage(err, ""); got != MsgInvalidCredentials {
		t.Fatalf("inactive account must not be distinguishable, got %q", got)
	}
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.register(t, "alice@x.com")

	for i := 0; i < 5; i++ {
		if _, err := f.service.Login(ctx, "alice@x.com", "wrong-pass"); err == nil {
			t.Fatal("expected login failure")
		}
	}

	// Even the correct password is rejected while locked, with the lockout
	// message rather than the credentials one.
	_, err := f.service.Login(ctx, "alice@x.com", "s3cret-pass")
	if !perrors.IsKind(err, perrors.KindAuth) {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if got := perrors.UserMessage(err, ""); got != MsgAccountLocked {
		t.Fatalf("expected lockout message, got %q", got)
	}

	// The fixture lockout is 50ms; once it elapses the correct password works
	// again and the success clears the failure record.
	time.Sleep(60 * time.Millisecond)
	result, err := f.service.Login(ctx, "alice@x.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login after lock expiry error: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected a fresh token after lock expiry")
	}
}

func TestLogoutRevokesTokenAndClosesSession(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	result := f.register(t, "alice@x.com")

	if err := f.service.Logout(ctx, result.AccessToken, result.SessionID); err != nil {
		t.Fatalf("Logout error: %v", err)
	}

	if _, err := f.service.VerifyAccess(ctx, result.AccessToken); !perrors.IsKind(err, perrors.KindAuth) {
		t.Fatalf("expected revoked token rejection, got %v", err)
	}

	// Logout is idempotent for an already-closed session.
	if err := f.service.Logout(ctx, result.AccessToken, result.SessionID); err != nil {
		t.Fatalf("repeat Logout error: %v", err)
	}
}

func TestLogoutAllClosesEverySession(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	first := f.register(t, "alice@x.com")

	second, err := f.service.Login(ctx, "alice@x.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	closed, err := f.service.LogoutAll(ctx, first.User.ID, second.AccessToken)
	if err != nil {
		t.Fatalf("LogoutAll error: %v", err)
	}
	if closed != 2 {
		t.Fatalf("expected 2 closed sessions, got %d", closed)
	}

	if _, err := f.service.VerifyAccess(ctx, second.AccessToken); !perrors.IsKind(err, perrors.KindAuth) {
		t.Fatalf("expected current token revoked, got %v", err)
	}
}

func TestForgotPasswordUnknownEmailSucceeds(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	if err := f.service.ForgotPassword(ctx, "nobody@x.com"); err != nil {
		t.Fatalf("ForgotPassword for unknown email must not error: %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	result := f.register(t, "alice@x.com")

	var resetToken string
	if err := f.bus.SubscribeOnce(eventbus.EventResetRequested, func(ev eventbus.ResetRequestedEvent) {
		resetToken = ev.Token
	}); err != nil {
		t.Fatalf("SubscribeOnce error: %v", err)
	}

	if err := f.service.ForgotPassword(ctx, "alice@x.com"); err != nil {
		t.Fatalf("ForgotPassword error: %v", err)
	}
	if resetToken == "" {
		t.Fatal("expected a reset token on the bus")
	}

	if err := f.service.ResetPassword(ctx, resetToken, "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword error: %v", err)
	}

	// Old password dead, old sessions dead, new password live.
	if _, err := f.service.Login(ctx, "alice@x.com", "s3cret-pass"); err == nil {
		t.Fatal("old password must stop working")
	}
	if err := f.service.sessions.Touch(ctx, result.SessionID); err == nil {
		t.Fatal("pre-reset session must be closed")
	}
	if _, err := f.service.Login(ctx, "alice@x.com", "brand-new-pass"); err != nil {
		t.Fatalf("Login with new password error: %v", err)
	}

	// The token is single use.
	if err := f.service.ResetPassword(ctx, resetToken, "yet-another-pass"); !perrors.IsKind(err, perrors.KindAuth) {
		t.Fatalf("expected replay rejection, got %v", err)
	}
}

func TestResetPasswordRejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	result := f.register(t, "alice@x.com")

	err := f.service.ResetPassword(ctx, result.AccessToken, "brand-new-pass")
	if !perrors.IsKind(err, perrors.KindAuth) {
		t.Fatalf("expected auth failure for wrong token kind, got %v", err)
	}
}

func TestResetPasswordRejectsSupersededToken(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.register(t, "alice@x.com")

	tokens := make([]string, 0, 2)
	if err := f.bus.Subscribe(eventbus.EventResetRequested, func(ev eventbus.ResetRequestedEvent) {
		tokens = append(tokens, ev.Token)
	}); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}

	// Two consecutive requests; only the latest persisted token is honoured.
	if err := f.service.ForgotPassword(ctx, "alice@x.com"); err != nil {
		t.Fatalf("ForgotPassword error: %v", err)
	}
	if err := f.service.ForgotPassword(ctx, "alice@x.com"); err != nil {
		t.Fatalf("ForgotPassword error: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 reset tokens, got %d", len(tokens))
	}

	if err := f.service.ResetPassword(ctx, tokens[0], "brand-new-pass"); !perrors.IsKind(err, perrors.KindAuth) {
		t.Fatalf("expected superseded token rejection, got %v", err)
	}
	if err := f.service.ResetPassword(ctx, tokens[1], "brand-new-pass"); err != nil {
		t.Fatalf("latest token must work: %v", err)
	}
}

func TestResolveCurrentUser(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	result := f.register(t, "alice@x.com")

	claims, err := f.service.VerifyAccess(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}

	view, err := f.service.ResolveCurrentUser(ctx, claims)
	if err != nil {
		t.Fatalf("ResolveCurrentUser error: %v", err)
	}
	if view.ID != result.User.ID || view.Email != "alice@x.com" {
		t.Fatalf("unexpected view: %+v", view)
	}

	if _, err := f.service.ResolveCurrentUser(ctx, nil); !perrors.IsKind(err, perrors.KindAuth) {
		t.Fatalf("expected auth failure for nil claims, got %v", err)
	}

	if _, err := f.service.ResolveCurrentUser(ctx, &Claims{UserID: 9999}); !perrors.IsKind(err, perrors.KindNotFound) {
		t.Fatalf("expected not-found for unknown user, got %v", err)
	}
}

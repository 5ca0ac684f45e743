package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KatanaSword/chit-chat/internal/core/domain"
	"github.com/KatanaSword/chit-chat/internal/core/port"
	"github.com/KatanaSword/chit-chat/internal/infra/security"
	"github.com/KatanaSword/chit-chat/internal/repository"
)

func newResetService(users *mockUserRepository, events *mockEventPublisher) *PasswordResetService {
	var publisher port.EventPublisher
	if events != nil {
		publisher = events
	}
	return NewPasswordResetService(users, newTestSecretGenerator(), lenientValidator(), publisher, nil, nil, 4)
}

func TestBeginResetIssuesTokenForIdentifier(t *testing.T) {
	users := newMockUserRepository()
	seedUser(t, users, "correct horse battery staple")
	events := newMockEventPublisher()
	service := newResetService(users, events)

	secret, err := service.Begin(context.Background(), "frodo@shire.me")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}

	stored := users.stored("user-1")
	if stored.PasswordReset.Hash != security.HashSecret(secret.Plaintext) {
		t.Fatal("stored digest must match the issued token")
	}

	event, ok := events.lastSecret()
	if !ok {
		t.Fatal("expected a secret issued event")
	}
	if event.Purpose != domain.ResetPassword || event.Plaintext != secret.Plaintext {
		t.Fatal("event must carry the reset purpose and plaintext")
	}
}

func TestBeginResetUnknownIdentifier(t *testing.T) {
	users := newMockUserRepository()
	service := newResetService(users, nil)

	if _, err := service.Begin(context.Background(), "nobody@nowhere.me"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestResetInstallsPasswordAndRevokesSessions(t *testing.T) {
	users := newMockUserRepository()
	user := seedUser(t, users, "correct horse battery staple")
	users.SetRefreshTokenHash(context.Background(), user.ID, "live-session-digest")
	events := newMockEventPublisher()
	service := newResetService(users, events)

	secret, err := service.Begin(context.Background(), "frodo")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}

	if err := service.Reset(context.Background(), secret.Plaintext, "brand new passphrase"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}

	stored := users.stored(user.ID)
	if !security.VerifyPassword("brand new passphrase", stored.PasswordHash) {
		t.Fatal("new password must verify against the stored hash")
	}
	if !stored.PasswordReset.IsZero() {
		t.Fatal("reset secret must be cleared on success")
	}
	if stored.RefreshTokenHash != "" {
		t.Fatal("outstanding sessions must be revoked")
	}
	if len(events.passwords) != 1 {
		t.Fatalf("got %d password changed events, want 1", len(events.passwords))
	}
}

func TestResetIsSingleUse(t *testing.T) {
	users := newMockUserRepository()
	seedUser(t, users, "correct horse battery staple")
	service := newResetService(users, nil)

	secret, err := service.Begin(context.Background(), "frodo")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if err := service.Reset(context.Background(), secret.Plaintext, "brand new passphrase"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}

	if err := service.Reset(context.Background(), secret.Plaintext, "another passphrase"); !errors.Is(err, ErrSecretInvalid) {
		t.Fatalf("replay: got %v, want ErrSecretInvalid", err)
	}
}

func TestResetRejectsUnknownAndEmptyToken(t *testing.T) {
	users := newMockUserRepository()
	seedUser(t, users, "correct horse battery staple")
	service := newResetService(users, nil)

	if err := service.Reset(context.Background(), "bogus-token", "brand new passphrase"); !errors.Is(err, ErrSecretInvalid) {
		t.Fatalf("unknown token: got %v, want ErrSecretInvalid", err)
	}
	if err := service.Reset(context.Background(), "", "brand new passphrase"); !errors.Is(err, ErrSecretInvalid) {
		t.Fatalf("empty token: got %v, want ErrSecretInvalid", err)
	}
}

func TestResetRejectsExpiredToken(t *testing.T) {
	users := newMockUserRepository()
	seedUser(t, users, "correct horse battery staple")

	current := time.Now()
	clock := func() time.Time { return current }
	generator := newTestSecretGenerator().WithClock(clock)
	service := NewPasswordResetService(users, generator, lenientValidator(), nil, nil, nil, 4).WithClock(clock)

	secret, err := service.Begin(context.Background(), "frodo")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}

	current = current.Add(21 * time.Minute)

	if err := service.Reset(context.Background(), secret.Plaintext, "brand new passphrase"); !errors.Is(err, ErrSecretExpired) {
		t.Fatalf("got %v, want ErrSecretExpired", err)
	}
}

func TestResetEnforcesPasswordPolicy(t *testing.T) {
	users := newMockUserRepository()
	user := seedUser(t, users, "correct horse battery staple")
	service := newResetService(users, nil)

	secret, err := service.Begin(context.Background(), "frodo")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}

	if err := service.Reset(context.Background(), secret.Plaintext, "tiny"); !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("got %v, want ErrPasswordPolicyViolation", err)
	}

	stored := users.stored(user.ID)
	if !security.VerifyPassword("correct horse battery staple", stored.PasswordHash) {
		t.Fatal("rejected reset must leave the old password in place")
	}
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	users := newMockUserRepository()
	user := seedUser(t, users, "correct horse battery staple")
	service := newResetService(users, nil)

	if err := service.ChangePassword(context.Background(), user.ID, "wrong", "brand new passphrase"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}

	if err := service.ChangePassword(context.Background(), user.ID, "correct horse battery staple", "brand new passphrase"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	stored := users.stored(user.ID)
	if !security.VerifyPassword("brand new passphrase", stored.PasswordHash) {
		t.Fatal("new password must verify against the stored hash")
	}
}

func TestResetBlocksConcurrentRefresh(t *testing.T) {
	users := newMockUserRepository()
	user := seedUser(t, users, "correct horse battery staple")

	locks := NewIdentityLocks()
	auth := NewAuthService(users, newTestSigner(t), locks)
	service := NewPasswordResetService(users, newTestSecretGenerator(), lenientValidator(), nil, locks, nil, 4)

	pair, _, err := auth.Authenticate(context.Background(), "frodo", "correct horse battery staple")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}

	secret, err := service.Begin(context.Background(), "frodo")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}

	// Hold the reset mid-flight, after its checks passed but before the
	// refresh reference is cleared.
	entered := make(chan struct{})
	release := make(chan struct{})
	users.updatePasswordHook = func() {
		close(entered)
		<-release
	}

	resetDone := make(chan error, 1)
	go func() {
		resetDone <- service.Reset(context.Background(), secret.Plaintext, "brand new passphrase")
	}()
	<-entered
	users.updatePasswordHook = nil

	refreshDone := make(chan error, 1)
	go func() {
		_, err := auth.RefreshSession(context.Background(), pair.RefreshToken)
		refreshDone <- err
	}()

	// The refresh must wait on the identity lock the reset holds. If it
	// completes now, it read the pre-reset record and will re-install a
	// live refresh reference after the reset revokes sessions.
	select {
	case err := <-refreshDone:
		t.Fatalf("refresh completed during an in-flight reset: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if err := <-resetDone; err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if err := <-refreshDone; !errors.Is(err, ErrRefreshTokenRevoked) {
		t.Fatalf("got %v, want ErrRefreshTokenRevoked", err)
	}

	if stored := users.stored(user.ID); stored.RefreshTokenHash != "" {
		t.Fatal("no refresh reference may survive a completed reset")
	}
}

func TestBeginResetSurvivesPublisherFailure(t *testing.T) {
	users := newMockUserRepository()
	seedUser(t, users, "correct horse battery staple")
	events := newMockEventPublisher()
	events.failSecrets = true
	service := newResetService(users, events)

	secret, err := service.Begin(context.Background(), "frodo")
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if secret.Plaintext == "" {
		t.Fatal("expected a token despite the publisher failure")
	}
	if users.stored("user-1").PasswordReset.IsZero() {
		t.Fatal("the reset pair must be stored despite the publisher failure")
	}
}

func TestChangePasswordRejectsSamePassword(t *testing.T) {
	users := newMockUserRepository()
	user := seedUser(t, users, "correct horse battery staple")
	service := newResetService(users, nil)

	err := service.ChangePassword(context.Background(), user.ID, "correct horse battery staple", "correct horse battery staple")
	if !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("got %v, want ErrPasswordPolicyViolation", err)
	}
}

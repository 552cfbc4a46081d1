// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package community

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/cycles/internal/auth"
	"github.com/tomtom215/cycles/internal/config"
	"github.com/tomtom215/cycles/internal/logging"
	"github.com/tomtom215/cycles/internal/models"
	"github.com/tomtom215/cycles/internal/store"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

type sentMail struct {
	kind  string
	email string
	token string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) QueueVerification(_ context.Context, email, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "verification", email: email, token: token})
	return m.err
}

func (m *recordingMailer) QueueWelcome(_ context.Context, email, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "welcome", email: email})
	return m.err
}

func (m *recordingMailer) last() sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}
	}
	return m.sent[len(m.sent)-1]
}

type testEnv struct {
	svc    *Service
	store  store.Store
	jwt    *auth.JWTManager
	mailer *recordingMailer
	clock  *time.Time
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	jwtManager, err := auth.NewJWTManager(&config.SecurityConfig{
		JWTSecret: "k7Qx9mZp2Lw4Rt8Vb1Nc6Hd3Jf5Gs0Ya",
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	st := store.NewMemoryStore()
	mailer := &recordingMailer{}
	svc := NewService(st, auth.NewPasswordHasher(bcrypt.MinCost), jwtManager, mailer, opts)

	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}

	return &testEnv{svc: svc, store: st, jwt: jwtManager, mailer: mailer, clock: &clock}
}

func (e *testEnv) advance(d time.Duration) {
	*e.clock = e.clock.Add(d)
}

func (e *testEnv) register(t *testing.T, name, email string) *RegisterResult {
	t.Helper()
	res, err := e.svc.Register(context.Background(), RegisterInput{
		Name: name, Email: email, Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register(%q) error = %v", email, err)
	}
	return res
}

func assertKind(t *testing.T, err error, want Kind, wantMsg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want %v %q", want, wantMsg)
	}
	if got := KindOf(err); got != want {
		t.Errorf("KindOf(%v) = %v, want %v", err, got, want)
	}
	var e *Error
	if errors.As(err, &e) && wantMsg != "" && e.Message != wantMsg {
		t.Errorf("Message = %q, want %q", e.Message, wantMsg)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()

	first := env.register(t, "amina", "Amina@Example.com")
	if first.User.Avatar != "AM" || first.User.Email != "amina@example.com" {
		t.Errorf("User = %+v, want avatar AM and normalised email", first.User)
	}

	_, err := env.svc.Register(ctx, RegisterInput{Name: "Other", Email: "amina@example.com", Password: "x123456"})
	assertKind(t, err, KindValidation, MsgEmailRegistered)
}

func TestRegister_IssuesTokenAndQueuesVerification(t *testing.T) {
	env := newTestEnv(t, Options{RequireVerification: true})
	res := env.register(t, "Grace", "grace@example.com")

	claims, err := env.jwt.ValidateToken(res.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != res.User.ID {
		t.Errorf("token subject = %q, want %q", claims.UserID, res.User.ID)
	}
	if !res.VerificationRequired {
		t.Error("VerificationRequired = false")
	}

	mail := env.mailer.last()
	if mail.kind != "verification" || mail.email != "grace@example.com" || len(mail.token) != 64 {
		t.Errorf("queued mail = %+v", mail)
	}

	u, _ := env.store.GetUserByEmail(context.Background(), "grace@example.com")
	if u.Verified || u.VerificationToken != mail.token {
		t.Errorf("stored user verified=%v token=%q", u.Verified, u.VerificationToken)
	}
	if want := env.clock.Add(DefaultVerificationTTL); !u.VerificationExpires.Equal(want) {
		t.Errorf("VerificationExpires = %v, want %v", u.VerificationExpires, want)
	}
}

func TestRegister_MailerFailureDoesNotFail(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.mailer.err = errors.New("outbox closed")
	env.register(t, "Grace", "grace@example.com")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, Options{RequireVerification: true})
	ctx := context.Background()

	if err := env.svc.SeedTestUser(ctx); err != nil {
		t.Fatalf("SeedTestUser() error = %v", err)
	}
	env.register(t, "Unverified", "new@example.com")

	t.Run("verified user gets a token for their identity", func(t *testing.T) {
		env.advance(time.Minute)
		res, err := env.svc.Login(ctx, TestUserEmail, TestUserPassword)
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		claims, err := env.jwt.ValidateToken(res.Token)
		if err != nil || claims.UserID != res.User.ID {
			t.Errorf("token claims = %+v, %v; want user %s", claims, err, res.User.ID)
		}
		if res.User.JoinedRooms == nil {
			t.Error("JoinedRooms = nil, want empty slice")
		}
		u, _ := env.store.GetUserByEmail(ctx, TestUserEmail)
		if !u.LastActive.Equal(*env.clock) {
			t.Errorf("LastActive = %v, want %v", u.LastActive, *env.clock)
		}
	})

	t.Run("wrong password and unknown email give the same error", func(t *testing.T) {
		_, errWrong := env.svc.Login(ctx, TestUserEmail, "nope")
		_, errUnknown := env.svc.Login(ctx, "ghost@example.com", "nope")
		assertKind(t, errWrong, KindAuth, MsgInvalidCredentials)
		assertKind(t, errUnknown, KindAuth, MsgInvalidCredentials)
		if errWrong.Error() != errUnknown.Error() {
			t.Errorf("errors differ: %q vs %q", errWrong, errUnknown)
		}
	})

	t.Run("unverified account is rejected", func(t *testing.T) {
		_, err := env.svc.Login(ctx, "new@example.com", "password123")
		assertKind(t, err, KindAuth, MsgVerifyFirst)
	})

	t.Run("email match ignores case", func(t *testing.T) {
		if _, err := env.svc.Login(ctx, "TEST@example.com", TestUserPassword); err != nil {
			t.Errorf("Login() error = %v", err)
		}
	})
}

func TestLogin_VerificationNotRequired(t *testing.T) {
	env := newTestEnv(t, Options{RequireVerification: false})
	env.register(t, "Grace", "grace@example.com")
	if _, err := env.svc.Login(context.Background(), "grace@example.com", "password123"); err != nil {
		t.Errorf("Login() error = %v", err)
	}
}

func TestVerifyEmail(t *testing.T) {
	env := newTestEnv(t, Options{RequireVerification: true})
	ctx := context.Background()
	env.register(t, "Grace", "grace@example.com")
	token := env.mailer.last().token

	assertKind(t, env.svc.VerifyEmail(ctx, ""), KindValidation, MsgInvalidVerification)
	assertKind(t, env.svc.VerifyEmail(ctx, "deadbeef"), KindValidation, MsgInvalidVerification)

	if err := env.svc.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}
	if got := env.mailer.last(); got.kind != "welcome" {
		t.Errorf("last mail = %+v, want welcome", got)
	}

	// The token is single use.
	assertKind(t, env.svc.VerifyEmail(ctx, token), KindValidation, MsgInvalidVerification)

	if _, err := env.svc.Login(ctx, "grace@example.com", "password123"); err != nil {
		t.Errorf("Login() after verification error = %v", err)
	}
}

func TestVerifyEmail_Expired(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.register(t, "Grace", "grace@example.com")
	token := env.mailer.last().token

	env.advance(DefaultVerificationTTL + time.Second)
	assertKind(t, env.svc.VerifyEmail(context.Background(), token), KindValidation, MsgInvalidVerification)
}

func TestResendVerification(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	env.register(t, "Grace", "grace@example.com")
	oldToken := env.mailer.last().token

	assertKind(t, env.svc.ResendVerification(ctx, "ghost@example.com"), KindNotFound, MsgUserNotFound)

	if err := env.svc.ResendVerification(ctx, "grace@example.com"); err != nil {
		t.Fatalf("ResendVerification() error = %v", err)
	}
	newToken := env.mailer.last().token
	if newToken == oldToken || newToken == "" {
		t.Errorf("token not rotated: %q", newToken)
	}
	assertKind(t, env.svc.VerifyEmail(ctx, oldToken), KindValidation, MsgInvalidVerification)

	if err := env.svc.VerifyEmail(ctx, newToken); err != nil {
		t.Fatalf("VerifyEmail() error = %v", err)
	}
	assertKind(t, env.svc.ResendVerification(ctx, "grace@example.com"), KindValidation, MsgAlreadyVerified)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	if err := env.svc.SeedTestUser(ctx); err != nil {
		t.Fatalf("SeedTestUser() error = %v", err)
	}
	u, _ := env.store.GetUserByEmail(ctx, TestUserEmail)

	profile, err := env.svc.Me(ctx, u.ID)
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	want := models.UserProfile{
		UserSummary: models.UserSummary{ID: u.ID, Name: TestUserName, Email: TestUserEmail, Avatar: "TU"},
		Phone:       "123-456-7890",
		Location:    "Test City",
		JoinedRooms: []string{},
		Verified:    true,
	}
	if profile.UserSummary != want.UserSummary || profile.Phone != want.Phone ||
		profile.Location != want.Location || !profile.Verified || len(profile.JoinedRooms) != 0 {
		t.Errorf("Me() = %+v, want %+v", profile, want)
	}

	_, err = env.svc.Me(ctx, "ghost")
	assertKind(t, err, KindNotFound, MsgUserNotFound)
}

func TestSeedTestUser_Idempotent(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := env.svc.SeedTestUser(ctx); err != nil {
			t.Fatalf("SeedTestUser() #%d error = %v", i, err)
		}
	}
}

func TestErrorFormatting(t *testing.T) {
	wrapped := persistenceError(errors.New("disk full"))
	if wrapped.Error() != "disk full" || wrapped.Message != "disk full" {
		t.Errorf("persistence error = %q / %q", wrapped.Error(), wrapped.Message)
	}

	nf := notFoundError(MsgRoomNotFound, store.ErrNotFound)
	if !errors.Is(nf, store.ErrNotFound) {
		t.Error("notFoundError does not unwrap to the store sentinel")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("KindOf(plain) != KindUnknown")
	}
	if KindPersistence.String() != "persistence" {
		t.Errorf("String() = %q", KindPersistence.String())
	}
}

func TestRegister_PasswordOverBcryptByteLimit(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()

	// 40 characters, 120 bytes.
	_, err := env.svc.Register(ctx, RegisterInput{
		Name: "Amara Okafor", Email: "amara@example.com", Password: strings.Repeat("€", 40),
	})
	assertKind(t, err, KindValidation, MsgPasswordTooLong)

	if _, err := env.store.GetUserByEmail(ctx, "amara@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetUserByEmail() error = %v, want ErrNotFound", err)
	}
	if len(env.mailer.sent) != 0 {
		t.Errorf("queued %d emails, want 0", len(env.mailer.sent))
	}
}

type failingIssuer struct{}

func (failingIssuer) GenerateToken(string) (string, error) {
	return "", errors.New("signing key unavailable")
}

func TestRegister_TokenFailureQueuesNoEmail(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.svc.tokens = failingIssuer{}

	_, err := env.svc.Register(context.Background(), RegisterInput{
		Name: "Amara Okafor", Email: "amara@example.com", Password: "password123",
	})
	if KindOf(err) != KindPersistence {
		t.Fatalf("Register() error = %v, want persistence error", err)
	}
	if len(env.mailer.sent) != 0 {
		t.Errorf("queued %d emails after token failure, want 0", len(env.mailer.sent))
	}
}

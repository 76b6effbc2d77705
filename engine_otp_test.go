package authflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taxnova/authflow/api"
)

func pendingChallenge(t *testing.T, eng *Engine, backend *mockBackend) *OTPChallenge {
	t.Helper()

	backend.loginFn = func(context.Context, string, string) (api.AuthPayload, error) {
		return api.AuthPayload{}, &api.VerificationRequiredError{Email: testUser.Email}
	}
	result, err := eng.PasswordLogin(context.Background(), testUser.Email, "secret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Challenge == nil {
		t.Fatal("expected challenge")
	}
	return result.Challenge
}

func TestSetCodeNormalizesInput(t *testing.T) {
	backend := newMockBackend(t)
	eng, _ := newTestEngine(t, backend)
	c := pendingChallenge(t, eng, backend)

	cases := []struct {
		raw  string
		want string
	}{
		{"123456", "123456"},
		{"12 34 56", "123456"},
		{"123-456", "123456"},
		{"12a34b56", "123456"},
		{"1234567890", "123456"},
		{"12", "12"},
		{"", ""},
	}

	for _, tc := range cases {
		c.SetCode(tc.raw)
		if got := c.Code(); got != tc.want {
			t.Fatalf("SetCode(%q) -> %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestVerifyIncompleteCodeNoNetwork(t *testing.T) {
	backend := newMockBackend(t)
	eng, _ := newTestEngine(t, backend)
	c := pendingChallenge(t, eng, backend)

	c.SetCode("123")
	_, err := c.Verify(context.Background())
	if !errors.Is(err, ErrOTPCodeIncomplete) {
		t.Fatalf("err = %v, want ErrOTPCodeIncomplete", err)
	}
	if backend.callCount("verifyOTP") != 0 {
		t.Fatal("incomplete code must not reach the backend")
	}
	if got := eng.MetricsSnapshot().Counters[MetricOTPRejectedLocal]; got != 1 {
		t.Fatalf("local rejection counter = %d", got)
	}
}

func TestVerifySuccessCommitsSessionAndClosesChallenge(t *testing.T) {
	backend := newMockBackend(t)
	eng, _ := newTestEngine(t, backend)
	c := pendingChallenge(t, eng, backend)

	backend.verifyOTPFn = func(_ context.Context, email, otp string) (api.AuthPayload, error) {
		if email != testUser.Email || otp != "123456" {
			t.Fatalf("verify called with %q %q", email, otp)
		}
		return testPayload(), nil
	}

	c.SetCode("123456")
	profile, err := c.Verify(context.Background())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if profile.ID != "u1" {
		t.Fatalf("profile = %+v", profile)
	}
	if got := eng.Status(); got != StatusAuthenticated {
		t.Fatalf("status = %v", got)
	}
	if !c.Closed() {
		t.Fatal("challenge must close after success")
	}

	if _, err := c.Verify(context.Background()); !errors.Is(err, ErrOTPChallengeClosed) {
		t.Fatalf("second verify err = %v, want ErrOTPChallengeClosed", err)
	}
	if err := c.Resend(context.Background()); !errors.Is(err, ErrOTPChallengeClosed) {
		t.Fatalf("resend after close err = %v, want ErrOTPChallengeClosed", err)
	}
}

func TestVerifyWrongCodeKeepsChallengeOpen(t *testing.T) {
	backend := newMockBackend(t)
	eng, _ := newTestEngine(t, backend)
	c := pendingChallenge(t, eng, backend)

	backend.verifyOTPFn = func(context.Context, string, string) (api.AuthPayload, error) {
		return api.AuthPayload{}, &api.Error{Status: 400, Message: "Invalid OTP"}
	}

	c.SetCode("000000")
	_, err := c.Verify(context.Background())
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if c.Closed() {
		t.Fatal("challenge must stay open after a wrong code")
	}
	if got := eng.Status(); got != StatusLoading {
		t.Fatalf("status = %v", got)
	}
}

func TestResendCooldown(t *testing.T) {
	backend := newMockBackend(t)
	eng, clock := newTestEngine(t, backend)
	c := pendingChallenge(t, eng, backend)
	ctx := context.Background()

	// The initial code counts as sent; resending immediately is blocked.
	if err := c.Resend(ctx); !errors.Is(err, ErrResendCooldown) {
		t.Fatalf("err = %v, want ErrResendCooldown", err)
	}
	if backend.callCount("resendOTP") != 0 {
		t.Fatal("blocked resend must not reach the backend")
	}
	if got := eng.MetricsSnapshot().Counters[MetricOTPResendBlocked]; got != 1 {
		t.Fatalf("blocked counter = %d", got)
	}

	if remaining := c.ResendCooldown(); remaining != 60*time.Second {
		t.Fatalf("cooldown = %v, want 60s", remaining)
	}

	clock.Advance(61 * time.Second)
	if remaining := c.ResendCooldown(); remaining != 0 {
		t.Fatalf("cooldown = %v, want 0", remaining)
	}

	backend.resendOTPFn = func(_ context.Context, email string) error {
		if email != testUser.Email {
			t.Fatalf("resend for %q", email)
		}
		return nil
	}
	c.SetCode("123")
	if err := c.Resend(ctx); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if got := c.Code(); got != "" {
		t.Fatalf("resend must clear the stale code, got %q", got)
	}

	// Cooldown restarts after a successful resend.
	if err := c.Resend(ctx); !errors.Is(err, ErrResendCooldown) {
		t.Fatalf("err = %v, want ErrResendCooldown after resend", err)
	}
}

func TestResendFailureDoesNotRestartCooldown(t *testing.T) {
	backend := newMockBackend(t)
	eng, clock := newTestEngine(t, backend)
	c := pendingChallenge(t, eng, backend)
	ctx := context.Background()

	clock.Advance(61 * time.Second)

	backend.resendOTPFn = func(context.Context, string) error {
		return &api.Error{Status: 500, Message: "mail service down"}
	}
	if err := c.Resend(ctx); err == nil {
		t.Fatal("expected resend failure")
	}

	// A failed resend leaves the window open for an immediate retry.
	backend.resendOTPFn = func(context.Context, string) error { return nil }
	if err := c.Resend(ctx); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestAbandonClosesChallenge(t *testing.T) {
	backend := newMockBackend(t)
	eng, _ := newTestEngine(t, backend)
	c := pendingChallenge(t, eng, backend)
	ctx := context.Background()

	c.Abandon(ctx)
	if !c.Closed() {
		t.Fatal("challenge must close on abandon")
	}
	c.Abandon(ctx) // second abandon is a no-op

	c.SetCode("123456")
	if _, err := c.Verify(ctx); !errors.Is(err, ErrOTPChallengeClosed) {
		t.Fatalf("verify after abandon err = %v", err)
	}
	if got := eng.Status(); got != StatusLoading {
		t.Fatalf("status = %v", got)
	}
}

func TestVerifySingleFlight(t *testing.T) {
	backend := newMockBackend(t)
	eng, _ := newTestEngine(t, backend)
	c := pendingChallenge(t, eng, backend)

	release := make(chan struct{})
	started := make(chan struct{})
	backend.verifyOTPFn = func(context.Context, string, string) (api.AuthPayload, error) {
		close(started)
		<-release
		return testPayload(), nil
	}

	c.SetCode("123456")

	done := make(chan error, 1)
	go func() {
		_, err := c.Verify(context.Background())
		done <- err
	}()

	<-started
	if _, err := c.Verify(context.Background()); !errors.Is(err, ErrOperationInFlight) {
		t.Fatalf("concurrent verify err = %v, want ErrOperationInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if got := backend.callCount("verifyOTP"); got != 1 {
		t.Fatalf("backend saw %d verifies, want 1", got)
	}
}

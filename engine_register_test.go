package authflow

import (
	"context"
	"errors"
	"testing"

	"github.com/taxnova/authflow/api"
)

func TestRegisterLocalValidation(t *testing.T) {
	cases := []struct {
		name string
		req  RegisterRequest
		opts []engineOption
		want error
	}{
		{
			name: "empty name",
			req:  RegisterRequest{Email: "a@b.co", Password: "longenough"},
			want: ErrNameRequired,
		},
		{
			name: "whitespace name",
			req:  RegisterRequest{Name: "   ", Email: "a@b.co", Password: "longenough"},
			want: ErrNameRequired,
		},
		{
			name: "bad email",
			req:  RegisterRequest{Name: "A", Email: "not-an-email", Password: "longenough"},
			want: ErrEmailInvalid,
		},
		{
			name: "empty password",
			req:  RegisterRequest{Name: "A", Email: "a@b.co"},
			want: ErrPasswordRequired,
		},
		{
			name: "short password",
			req:  RegisterRequest{Name: "A", Email: "a@b.co", Password: "short"},
			want: ErrPasswordTooShort,
		},
		{
			name: "phone required but missing",
			req:  RegisterRequest{Name: "A", Email: "a@b.co", Password: "longenough"},
			opts: []engineOption{withPhonePolicy(PhoneRequired10Digit)},
			want: ErrPhoneInvalid,
		},
		{
			name: "phone required wrong length",
			req:  RegisterRequest{Name: "A", Email: "a@b.co", Password: "longenough", Phone: "12345"},
			opts: []engineOption{withPhonePolicy(PhoneRequired10Digit)},
			want: ErrPhoneInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := newMockBackend(t)
			eng, _ := newTestEngine(t, backend, tc.opts...)

			_, err := eng.Register(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if backend.callCount("register") != 0 {
				t.Fatal("local rejection must not hit the backend")
			}
		})
	}
}

func TestRegisterRequireOTPOpensChallenge(t *testing.T) {
	backend := newMockBackend(t)
	backend.registerFn = func(_ context.Context, p api.RegisterPayload) (api.RegisterOutcome, error) {
		if p.Email != "new@example.com" {
			t.Fatalf("register email = %q", p.Email)
		}
		if p.Phone != "5550009999" {
			t.Fatalf("register phone = %q, want digits only", p.Phone)
		}
		return api.RegisterOutcome{Message: "OTP sent to your email"}, nil
	}
	eng, _ := newTestEngine(t, backend)

	result, err := eng.Register(context.Background(), RegisterRequest{
		Name:     "New User",
		Email:    "New@Example.com",
		Password: "longenough",
		Phone:    "(555) 000-9999",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.SessionCreated {
		t.Fatal("require-otp deployment must not create a session")
	}
	if result.Challenge == nil {
		t.Fatal("expected challenge")
	}
	if got := result.Challenge.Email(); got != "new@example.com" {
		t.Fatalf("challenge email = %q", got)
	}
	if result.Message != "OTP sent to your email" {
		t.Fatalf("message = %q", result.Message)
	}
	if got := eng.Status(); got != StatusLoading {
		t.Fatalf("status = %v", got)
	}
}

func TestRegisterCreateSessionSignsIn(t *testing.T) {
	backend := newMockBackend(t)
	backend.registerFn = func(context.Context, api.RegisterPayload) (api.RegisterOutcome, error) {
		u := testUser
		return api.RegisterOutcome{Token: "tok-new", User: &u, Message: "welcome"}, nil
	}
	eng, _ := newTestEngine(t, backend, withPostRegister(PostRegisterCreateSession))

	result, err := eng.Register(context.Background(), RegisterRequest{
		Name:     "Priya",
		Email:    testUser.Email,
		Password: "longenough",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !result.SessionCreated || result.Challenge != nil {
		t.Fatalf("result = %+v", result)
	}
	if got := eng.Status(); got != StatusAuthenticated {
		t.Fatalf("status = %v", got)
	}
	if eng.Token() != "tok-new" {
		t.Fatalf("token = %q", eng.Token())
	}
}

func TestRegisterCreateSessionMissingMaterialFails(t *testing.T) {
	backend := newMockBackend(t)
	backend.registerFn = func(context.Context, api.RegisterPayload) (api.RegisterOutcome, error) {
		return api.RegisterOutcome{Message: "ok"}, nil
	}
	eng, _ := newTestEngine(t, backend, withPostRegister(PostRegisterCreateSession))

	_, err := eng.Register(context.Background(), RegisterRequest{
		Name:     "Priya",
		Email:    testUser.Email,
		Password: "longenough",
	})
	if err == nil {
		t.Fatal("expected error when session material is missing")
	}
	if got := eng.Status(); got != StatusLoading {
		t.Fatalf("status = %v", got)
	}
}

func TestRegisterBackendRejection(t *testing.T) {
	backend := newMockBackend(t)
	backend.registerFn = func(context.Context, api.RegisterPayload) (api.RegisterOutcome, error) {
		return api.RegisterOutcome{}, &api.Error{Status: 409, Message: "Email already registered"}
	}
	eng, _ := newTestEngine(t, backend)

	_, err := eng.Register(context.Background(), RegisterRequest{
		Name:     "Priya",
		Email:    testUser.Email,
		Password: "longenough",
	})
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Status != 409 {
		t.Fatalf("err = %v", err)
	}
	if got := eng.MetricsSnapshot().Counters[MetricRegisterFailure]; got != 1 {
		t.Fatalf("register failure counter = %d", got)
	}
}

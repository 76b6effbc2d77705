package authflow

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the engine's immutable configuration. Populate it before Build;
// the engine clones it and never reads the caller's copy again.
type Config struct {
	API          APIConfig
	Google       GoogleConfig
	OTP          OTPConfig
	Registration RegistrationConfig
	Validation   ValidationConfig
	Restore      RestoreConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the auth backend. BaseURL is required unless a custom
// Backend is supplied to the builder.
type APIConfig struct {
	BaseURL   string        `env:"AUTHFLOW_API_BASE_URL"`
	Timeout   time.Duration `env:"AUTHFLOW_API_TIMEOUT"`
	UserAgent string        `env:"AUTHFLOW_API_USER_AGENT"`
}

/*
====================================
FEDERATED LOGIN CONFIG
====================================
*/

// GoogleConfig configures the federated login adapter. An empty ClientID
// disables federated login entirely; the engine then reports it unavailable
// without touching the network.
type GoogleConfig struct {
	ClientID string `env:"AUTHFLOW_GOOGLE_CLIENT_ID"`
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig shapes the verification challenge: how many digits a code has
// and how long a resend stays blocked after one is sent.
type OTPConfig struct {
	Digits         int           `env:"AUTHFLOW_OTP_DIGITS"`
	ResendCooldown time.Duration `env:"AUTHFLOW_OTP_RESEND_COOLDOWN"`
}

/*
====================================
REGISTRATION CONFIG
====================================
*/

// PostRegisterBehavior selects what the engine does after the backend
// accepts a registration. The backend has two deployments of the register
// endpoint and the engine must be told which one it faces.
type PostRegisterBehavior int

const (
	// PostRegisterUnspecified is the zero value; Build rejects it so the
	// choice is always explicit.
	PostRegisterUnspecified PostRegisterBehavior = iota
	// PostRegisterRequireOTP expects a message-only response and opens an
	// OTP challenge for the registered email.
	PostRegisterRequireOTP
	// PostRegisterCreateSession expects session material in the response
	// and signs the new account in immediately.
	PostRegisterCreateSession
)

// RegistrationConfig controls account creation.
type RegistrationConfig struct {
	PostRegister      PostRegisterBehavior
	MinPasswordLength int `env:"AUTHFLOW_MIN_PASSWORD_LENGTH"`
}

/*
====================================
VALIDATION CONFIG
====================================
*/

// PhonePolicy selects how registration treats the phone field.
type PhonePolicy int

const (
	// PhoneOptional accepts an empty phone and validates shape when present.
	PhoneOptional PhonePolicy = iota
	// PhoneRequired10Digit requires exactly ten digits.
	PhoneRequired10Digit
)

// ValidationConfig holds local form validation policy. Local checks only
// reject what the backend would certainly reject; the backend stays the
// authority on everything else.
type ValidationConfig struct {
	Phone PhonePolicy
}

/*
====================================
RESTORE CONFIG
====================================
*/

// RestoreConfig controls the startup session restore. When
// InspectTokenExpiry is set, a stored JWT whose exp claim has passed (with
// ExpiryLeeway subtracted) is discarded without a network call.
type RestoreConfig struct {
	InspectTokenExpiry bool          `env:"AUTHFLOW_RESTORE_INSPECT_EXPIRY"`
	ExpiryLeeway       time.Duration `env:"AUTHFLOW_RESTORE_EXPIRY_LEEWAY"`
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"AUTHFLOW_AUDIT_ENABLED"`
	BufferSize int  `env:"AUTHFLOW_AUDIT_BUFFER"`
	DropIfFull bool `env:"AUTHFLOW_AUDIT_DROP_IF_FULL"`
}

// MetricsConfig controls the in-process counters and the restore latency
// histogram.
type MetricsConfig struct {
	Enabled                 bool `env:"AUTHFLOW_METRICS_ENABLED"`
	EnableLatencyHistograms bool `env:"AUTHFLOW_METRICS_LATENCY"`
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout: 30 * time.Second,
		},
		OTP: OTPConfig{
			Digits:         6,
			ResendCooldown: 60 * time.Second,
		},
		Registration: RegistrationConfig{
			MinPasswordLength: 8,
		},
		Restore: RestoreConfig{
			InspectTokenExpiry: true,
		},
		Audit: AuditConfig{
			BufferSize: 256,
		},
	}
}

// ConfigFromEnv returns the default config overlaid with AUTHFLOW_*
// environment variables. PostRegister has no env form; set it in code.
func ConfigFromEnv() (Config, error) {
	cfg := defaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func cloneConfig(cfg Config) Config {
	// All fields are values today; the clone point stays so future
	// reference fields get copied in one place.
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks internal consistency. Build calls it; callers constructing
// a Config by hand can call it early for better error locality.
func (c *Config) Validate() error {
	if c.API.Timeout < 0 {
		return errors.New("API Timeout must be >= 0")
	}

	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be between 4 and 10")
	}
	if c.OTP.ResendCooldown < 0 {
		return errors.New("OTP ResendCooldown must be >= 0")
	}

	switch c.Registration.PostRegister {
	case PostRegisterRequireOTP, PostRegisterCreateSession:
	default:
		return errors.New("Registration PostRegister must be set explicitly")
	}
	if c.Registration.MinPasswordLength <= 0 {
		return errors.New("Registration MinPasswordLength must be > 0")
	}

	switch c.Validation.Phone {
	case PhoneOptional, PhoneRequired10Digit:
	default:
		return errors.New("unsupported phone policy")
	}

	if c.Restore.ExpiryLeeway < 0 {
		return errors.New("Restore ExpiryLeeway must be >= 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

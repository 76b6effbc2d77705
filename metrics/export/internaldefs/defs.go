// Package internaldefs holds the shared metric naming tables used by the
// exporters. It exists so the prometheus and otel exporters agree on names,
// help text, and bucket layout without importing each other.
package internaldefs

import (
	authflow "github.com/taxnova/authflow"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// CounterDefs maps every engine counter to its exported name.
var CounterDefs = []CounterDef{
	{ID: authflow.MetricLoginSuccess, Name: "authflow_login_success_total", Help: "Credential logins that created a session."},
	{ID: authflow.MetricLoginFailure, Name: "authflow_login_failure_total", Help: "Credential logins rejected by validation or the backend."},
	{ID: authflow.MetricLoginVerificationRequired, Name: "authflow_login_verification_required_total", Help: "Logins parked on an OTP challenge."},
	{ID: authflow.MetricRegisterSuccess, Name: "authflow_register_success_total", Help: "Accepted registrations."},
	{ID: authflow.MetricRegisterFailure, Name: "authflow_register_failure_total", Help: "Rejected registrations."},
	{ID: authflow.MetricOTPVerifySuccess, Name: "authflow_otp_verify_success_total", Help: "Verification codes accepted by the backend."},
	{ID: authflow.MetricOTPVerifyFailure, Name: "authflow_otp_verify_failure_total", Help: "Verification codes rejected by the backend."},
	{ID: authflow.MetricOTPRejectedLocal, Name: "authflow_otp_rejected_local_total", Help: "Verification codes rejected locally before any request."},
	{ID: authflow.MetricOTPResend, Name: "authflow_otp_resend_total", Help: "Resend requests that reached the backend."},
	{ID: authflow.MetricOTPResendBlocked, Name: "authflow_otp_resend_blocked_total", Help: "Resend requests refused by the local cooldown."},
	{ID: authflow.MetricFederatedSuccess, Name: "authflow_federated_success_total", Help: "Federated logins that created a session."},
	{ID: authflow.MetricFederatedFailure, Name: "authflow_federated_failure_total", Help: "Federated exchanges rejected by the backend."},
	{ID: authflow.MetricFederatedUnavailable, Name: "authflow_federated_unavailable_total", Help: "Federated attempts with no provider configured."},
	{ID: authflow.MetricRestoreSuccess, Name: "authflow_restore_success_total", Help: "Startup restores that revived a session."},
	{ID: authflow.MetricRestoreFailure, Name: "authflow_restore_failure_total", Help: "Startup restores that ended anonymous with an error."},
	{ID: authflow.MetricSessionCreated, Name: "authflow_session_created_total", Help: "Sessions committed from any flow."},
	{ID: authflow.MetricLogout, Name: "authflow_logout_total", Help: "Explicit logouts."},
	{ID: authflow.MetricProfileUpdateSuccess, Name: "authflow_profile_update_success_total", Help: "Accepted profile updates."},
	{ID: authflow.MetricProfileUpdateFailure, Name: "authflow_profile_update_failure_total", Help: "Rejected profile updates."},
	{ID: authflow.MetricPasswordChangeSuccess, Name: "authflow_password_change_success_total", Help: "Accepted password rotations."},
	{ID: authflow.MetricPasswordChangeFailure, Name: "authflow_password_change_failure_total", Help: "Rejected password rotations."},
	{ID: authflow.MetricGateOpened, Name: "authflow_gate_opened_total", Help: "Auth gates opened for protected features."},
	{ID: authflow.MetricGateResolved, Name: "authflow_gate_resolved_total", Help: "Gates resolved by a successful login."},
	{ID: authflow.MetricGateCancelled, Name: "authflow_gate_cancelled_total", Help: "Gates dismissed without authenticating."},
	{ID: authflow.MetricGateBypassed, Name: "authflow_gate_bypassed_total", Help: "Gate requests satisfied by an existing session."},
}

// HistogramDefs maps every engine histogram to its exported name.
var HistogramDefs = []HistogramDef{
	{ID: authflow.MetricRestoreLatency, Name: "authflow_restore_latency_seconds", Help: "Session restore latency histogram."},
}

// HistogramBounds are the upper bounds as they appear in le labels.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are the bounds in instrument-name-safe form.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to cumulative form.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

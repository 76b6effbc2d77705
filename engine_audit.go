package authflow

import (
	"context"
	"errors"
	"time"

	"github.com/taxnova/authflow/api"
	"github.com/taxnova/authflow/credstore"
)

const (
	auditEventLoginSuccess              = "login_success"
	auditEventLoginFailure              = "login_failure"
	auditEventLoginVerificationRequired = "login_verification_required"
	auditEventRegisterSuccess           = "register_success"
	auditEventRegisterFailure           = "register_failure"
	auditEventOTPVerifySuccess          = "otp_verify_success"
	auditEventOTPVerifyFailure          = "otp_verify_failure"
	auditEventOTPResend                 = "otp_resend"
	auditEventOTPResendBlocked          = "otp_resend_blocked"
	auditEventOTPAbandoned              = "otp_abandoned"
	auditEventFederatedSuccess          = "federated_success"
	auditEventFederatedFailure          = "federated_failure"
	auditEventRestoreSuccess            = "restore_success"
	auditEventRestoreFailure            = "restore_failure"
	auditEventLogout                    = "logout"
	auditEventProfileUpdate             = "profile_update"
	auditEventPasswordChange            = "password_change"
	auditEventGateOpened                = "gate_opened"
	auditEventGateResolved              = "gate_resolved"
	auditEventGateCancelled             = "gate_cancelled"
)

// AuditErrorCode is the stable error vocabulary used in audit events, so
// sinks never have to parse Go error strings.
type AuditErrorCode string

const (
	auditErrValidation          AuditErrorCode = "validation_failed"
	auditErrCredentialsRejected AuditErrorCode = "credentials_rejected"
	auditErrVerificationNeeded  AuditErrorCode = "verification_required"
	auditErrCodeIncomplete      AuditErrorCode = "otp_code_incomplete"
	auditErrChallengeClosed     AuditErrorCode = "otp_challenge_closed"
	auditErrResendCooldown      AuditErrorCode = "resend_cooldown"
	auditErrInFlight            AuditErrorCode = "operation_in_flight"
	auditErrNotAuthenticated    AuditErrorCode = "not_authenticated"
	auditErrFederatedOff        AuditErrorCode = "federated_unavailable"
	auditErrTransport           AuditErrorCode = "backend_unreachable"
	auditErrMalformed           AuditErrorCode = "malformed_response"
	auditErrStorage             AuditErrorCode = "credential_store_unavailable"
	auditErrRejected            AuditErrorCode = "backend_rejected"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	email string,
	gateID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		GateID:    gateID,
		RequestID: api.RequestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	var apiErr *api.Error
	var verr *api.VerificationRequiredError

	switch {
	case errors.Is(err, ErrEmailInvalid),
		errors.Is(err, ErrPasswordRequired),
		errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrPhoneInvalid):
		return auditErrValidation
	case errors.Is(err, ErrOTPCodeIncomplete):
		return auditErrCodeIncomplete
	case errors.Is(err, ErrOTPChallengeClosed),
		errors.Is(err, ErrGateClosed):
		return auditErrChallengeClosed
	case errors.Is(err, ErrResendCooldown):
		return auditErrResendCooldown
	case errors.Is(err, ErrOperationInFlight):
		return auditErrInFlight
	case errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, ErrEngineNotReady):
		return auditErrNotAuthenticated
	case errors.Is(err, ErrFederatedUnavailable),
		errors.Is(err, ErrFederatedCredentialMissing):
		return auditErrFederatedOff
	case errors.As(err, &verr):
		return auditErrVerificationNeeded
	case errors.As(err, &apiErr):
		if apiErr.CredentialRejected() {
			return auditErrCredentialsRejected
		}
		return auditErrRejected
	case errors.Is(err, api.ErrTransport):
		return auditErrTransport
	case errors.Is(err, api.ErrMalformedResponse):
		return auditErrMalformed
	case errors.Is(err, credstore.ErrUnavailable):
		return auditErrStorage
	default:
		return auditErrInternal
	}
}

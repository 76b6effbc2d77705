package authflow

import "strings"

// Local validation only rejects what the backend would certainly reject;
// everything subtler (existence, password correctness, duplicate accounts)
// stays with the backend.

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail checks the minimal shape local@domain.tld. Anything passing
// here still gets the backend's full validation.
func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if strings.IndexByte(email[at+1:], '@') >= 0 {
		return false
	}
	domain := email[at+1:]
	dot := strings.LastIndexByte(domain, '.')
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\r\n")
}

// digitsOf strips every non-digit rune. Used for both phone numbers and
// pasted OTP codes, which arrive with spaces and dashes.
func digitsOf(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (e *Engine) validatePhone(phone string) error {
	digits := digitsOf(phone)

	switch e.config.Validation.Phone {
	case PhoneRequired10Digit:
		if len(digits) != 10 {
			return ErrPhoneInvalid
		}
	default:
		if phone != "" && (len(digits) < 7 || len(digits) > 15) {
			return ErrPhoneInvalid
		}
	}
	return nil
}

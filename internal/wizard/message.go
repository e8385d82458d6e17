package wizard

import (
	"errors"
	"strings"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
)

const GenericErrorMessage = "Something went wrong. Please try again."

type serverMessager interface {
	ServerMessage() string
}

// ErrorMessage picks the text shown for a failed submission: the server supplied message,
// then the error's own text, then a generic fallback.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var sm serverMessager
	if errors.As(err, &sm) {
		if msg := strings.TrimSpace(sm.ServerMessage()); msg != "" {
			return msg
		}
	}
	if errors.Is(err, onboarding.ErrValidation) {
		return strings.TrimPrefix(err.Error(), onboarding.ErrValidation.Error()+": ")
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return GenericErrorMessage
}

package llm

import (
	"errors"
	"net/http"
)

// ErrMalformedOutput means the provider answered with JSON that could not be used.
var ErrMalformedOutput = errors.New("llm returned malformed output")

// Messages holds the user-facing text per failure class for one operation.
type Messages struct {
	RateLimited string
	Rejected    string
	Provider    string
	Empty       string
	Malformed   string
	Timeout     string
	Internal    string
}

// Failure is an HTTP-ready translation of an LLM-backed operation error.
type Failure struct {
	Status  int
	Code    string
	Message string
	Details any
}

const configErrorMessage = "Server configuration error. Please contact support."

// Translate maps an operation error onto status, code and message.
func Translate(err error, msgs Messages) Failure {
	var serr *SchemaError
	if errors.Is(err, ErrMalformedOutput) || errors.As(err, &serr) {
		return Failure{Status: http.StatusBadGateway, Code: "malformed_output", Message: msgs.Malformed}
	}

	switch Classify(err) {
	case KindNotConfigured:
		return Failure{Status: http.StatusInternalServerError, Code: "config_error", Message: configErrorMessage}
	case KindTimeout:
		return Failure{Status: http.StatusGatewayTimeout, Code: "timeout", Message: msgs.Timeout}
	case KindRateLimited:
		return Failure{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: msgs.RateLimited}
	case KindRejected:
		var perr *ProviderError
		errors.As(err, &perr)
		var details any
		if perr != nil && perr.Message != "" {
			details = perr.Message
		}
		return Failure{Status: http.StatusBadRequest, Code: "provider_rejected", Message: msgs.Rejected, Details: details}
	case KindProvider:
		return Failure{Status: http.StatusBadGateway, Code: "provider_error", Message: msgs.Provider}
	case KindEmptyOutput:
		return Failure{Status: http.StatusBadGateway, Code: "empty_output", Message: msgs.Empty}
	default:
		return Failure{Status: http.StatusInternalServerError, Code: "internal_error", Message: msgs.Internal}
	}
}

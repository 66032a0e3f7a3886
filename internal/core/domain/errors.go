package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates no extractor or fetcher handles the input.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Summary and page analysis are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrExtractorUnavailable indicates the external text extraction tool is missing.
	ErrExtractorUnavailable = errors.New("text extractor unavailable")

	// ErrIndexDegraded indicates the session index is degraded and cannot be searched.
	ErrIndexDegraded = errors.New("index degraded")

	// Embedding and index errors. KindOf maps these onto ErrorKind.

	// ErrConfiguration indicates a missing or invalid credential or setting.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransientAPI indicates a remote call failed in a way that may succeed on retry.
	ErrTransientAPI = errors.New("transient API error")

	// ErrMalformedResponse indicates a remote response matched no known shape.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrAPI indicates the provider rejected a request. Retrying will not help.
	ErrAPI = errors.New("API error")
)

// ErrorKind is the closed set of failure classes produced by embedding and index calls.
type ErrorKind int

// Error kinds.
const (
	// KindUnexpected is anything not covered by another kind.
	KindUnexpected ErrorKind = iota

	// KindConfiguration is a missing credential or invalid setting.
	KindConfiguration

	// KindTransient is a recoverable remote API failure.
	KindTransient

	// KindMalformed is a remote response that could not be decoded.
	KindMalformed

	// KindAPI is a provider error that is neither transient nor a credential problem.
	KindAPI
)

// KindOf classifies err. A nil error is KindUnexpected.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnexpected
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	case errors.Is(err, ErrTransientAPI):
		return KindTransient
	case errors.Is(err, ErrAPI):
		return KindAPI
	default:
		return KindUnexpected
	}
}

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransient:
		return "transient"
	case KindMalformed:
		return "malformed"
	case KindAPI:
		return "api"
	default:
		return "unexpected"
	}
}

// IsAPIFailure reports whether the kind originates from the remote provider.
func (k ErrorKind) IsAPIFailure() bool {
	return k == KindTransient || k == KindMalformed || k == KindAPI
}

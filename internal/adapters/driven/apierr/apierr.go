// Package apierr maps provider HTTP failures onto domain error kinds.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// maxBodyPreview bounds how much of an error body is quoted in messages.
const maxBodyPreview = 300

// FromStatus classifies a non-2xx response.
// 429 and 5xx are transient, 401 and 403 are configuration errors.
// Any other status is a non-retryable API error.
func FromStatus(provider string, status int, body []byte) error {
	msg := fmt.Sprintf("%s: API returned status %d: %s", provider, status, preview(body))
	switch {
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", domain.ErrTransientAPI, msg)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrConfiguration, msg)
	default:
		return fmt.Errorf("%w: %s", domain.ErrAPI, msg)
	}
}

// FromTransport classifies an error returned by http.Client.Do.
// Cancellation is passed through unchanged; everything else is transient.
func FromTransport(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrTransientAPI, provider, err)
}

// MissingKey reports an absent credential.
func MissingKey(provider, envVar string) error {
	if envVar == "" {
		return fmt.Errorf("%w: %s API key is required", domain.ErrConfiguration, provider)
	}
	return fmt.Errorf("%w: %s API key is required (set %s)", domain.ErrConfiguration, provider, envVar)
}

func preview(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodyPreview {
		return s[:maxBodyPreview] + "..."
	}
	return s
}

// FromGenAI classifies an error returned by the google.golang.org/genai client.
func FromGenAI(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var ptr *genai.APIError
		if !errors.As(err, &ptr) || ptr == nil {
			return fmt.Errorf("%w: gemini: %w", domain.ErrTransientAPI, err)
		}
		apiErr = *ptr
	}

	msg := fmt.Sprintf("gemini: %d %s: %s", apiErr.Code, apiErr.Status, apiErr.Message)
	switch {
	case apiErr.Code == http.StatusTooManyRequests, apiErr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", domain.ErrTransientAPI, msg)
	case apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusForbidden,
		strings.Contains(strings.ToLower(apiErr.Message), "api key"):
		return fmt.Errorf("%w: %s", domain.ErrConfiguration, msg)
	default:
		return fmt.Errorf("%w: %s", domain.ErrAPI, msg)
	}
}

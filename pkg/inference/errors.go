package inference

import (
	"errors"
	"net/http"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

// StatusCode digs the HTTP status out of a backend error, or 0.
func StatusCode(err error) int {
	var gerr genai.APIError
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	var gptr *genai.APIError
	if errors.As(err, &gptr) && gptr != nil {
		return gptr.Code
	}
	var oerr *openai.Error
	if errors.As(err, &oerr) && oerr != nil {
		return oerr.StatusCode
	}
	return 0
}

// IsTooLarge reports whether the backend rejected the request body for its size.
func IsTooLarge(err error) bool {
	return StatusCode(err) == http.StatusRequestEntityTooLarge
}

// IsRateLimited reports whether the backend throttled the request.
func IsRateLimited(err error) bool {
	return StatusCode(err) == http.StatusTooManyRequests
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorChain(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := fmt.Errorf("structure: %w", Transport("Failed to generate moodboard: dial tcp: timeout", cause))

	assert.True(t, Is(err, KindTransport))
	assert.False(t, Is(err, KindValidation))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to generate moodboard: dial tcp: timeout", Message(err))
	assert.Equal(t, http.StatusBadGateway, Status(err))
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Input("Please enter a story idea."), http.StatusBadRequest},
		{NotFound("scene not found"), http.StatusNotFound},
		{Conflict("busy"), http.StatusConflict},
		{PayloadTooLarge("too long", nil), http.StatusRequestEntityTooLarge},
		{Validation("bad", nil), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestMessagePlainError(t *testing.T) {
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Empty(t, Message(nil))
	assert.Equal(t, KindInput, KindOf(Input("x")))
}

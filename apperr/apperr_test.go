package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Auth("nope"), http.StatusUnauthorized},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Gateway("upstream", errors.New("timeout")), http.StatusInternalServerError},
		{GatewayRejected("declined", nil), http.StatusBadRequest},
		{Store("db", errors.New("closed")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Status(c.err), c.err.Error())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("verify: %w", NotFound("Payment not found"))

	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "Payment not found", Message(err))
	assert.Equal(t, "Internal server error", Message(errors.New("raw")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Store("Database error", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Database error: connection refused", err.Error())
}

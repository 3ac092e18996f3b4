package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "explicit transient", err: NewTransientError(errors.New("x"), "retry me"), expected: true},
		{name: "explicit permanent", err: NewPermanentError(errors.New("x"), "give up"), expected: false},
		{name: "wrapped transient", err: fmt.Errorf("outer: %w", NewTransientError(errors.New("x"), "")), expected: true},
		{name: "rate limit", err: errors.New("API error 429: rate limit exceeded"), expected: true},
		{name: "server error", err: errors.New("llm HTTP 500: oops"), expected: true},
		{name: "bad gateway", err: errors.New("502 bad gateway"), expected: true},
		{name: "timeout", err: errors.New("request timeout"), expected: true},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), expected: true},
		{name: "plain error", err: errors.New("invalid argument"), expected: false},
		{name: "auth failure", err: errors.New("401 unauthorized"), expected: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTransient(tt.err))
		})
	}
}

func TestErrorMessagesAndUnwrap(t *testing.T) {
	inner := errors.New("root cause")

	transient := NewTransientError(inner, "try again")
	assert.Equal(t, "try again", transient.Error())
	assert.ErrorIs(t, transient, inner)

	permanent := NewPermanentError(inner, "")
	assert.Contains(t, permanent.Error(), "root cause")
	assert.ErrorIs(t, permanent, inner)
}

package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrKey,
		ErrAuth,
		ErrAPI,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "Unknown auth flow 'oauth'",
			suggestion: "Set auth.flow to device or password",
		},
		{
			name:       "key error",
			code:       ErrKey,
			message:    "Key already exists at ~/.ssh/id_rsa",
			suggestion: "Use the existing key",
		},
		{
			name:       "auth error",
			code:       ErrAuth,
			message:    "GitHub authorization error: access_denied",
			suggestion: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
			assert.Nil(t, err.Kind)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		expectedParts []string
		notExpected   []string
	}{
		{
			name:          "basic error formatting",
			err:           New(ErrConfig, "Invalid configuration", "Check .ghkey.yaml syntax"),
			expectedParts: []string{"Invalid configuration", "Check .ghkey.yaml syntax"},
		},
		{
			name:          "error with failure symbol",
			err:           New(ErrAuth, "Failed to authenticate", "Try again"),
			expectedParts: []string{"✗", "Failed to authenticate"},
		},
		{
			name:          "error without suggestion",
			err:           New(ErrAPI, "Could not create key", ""),
			expectedParts: []string{"Could not create key"},
			notExpected:   []string{"suggestion"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.err.Error()

			for _, part := range tt.expectedParts {
				assert.Contains(t, output, part)
			}
			for _, part := range tt.notExpected {
				assert.NotContains(t, output, part)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset by peer")
	wrapped := Wrap(cause, "Request to api.github.com failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrAPI, wrapped.Code, "Wrap should default to ErrAPI code")
	assert.Equal(t, cause, wrapped.Cause)
	assert.Contains(t, wrapped.Error(), "connection reset by peer")
}

func TestWrapWithCode(t *testing.T) {
	cause := errors.New("exit status 1")
	wrapped := WrapWithCode(cause, ErrKey, "Failed to generate SSH key", "Ensure ssh-keygen is installed")

	assert.Equal(t, ErrKey, wrapped.Code)
	assert.Equal(t, "Failed to generate SSH key", wrapped.Message)
	assert.Equal(t, "Ensure ssh-keygen is installed", wrapped.Suggestion)
	assert.True(t, errors.Is(wrapped, cause))
}

func TestKindMatching(t *testing.T) {
	err := New(ErrAuth, "GitHub authorization error: access_denied", "").
		WithKind(ErrAuthenticationDenied)

	assert.True(t, errors.Is(err, ErrAuthenticationDenied))
	assert.False(t, errors.Is(err, ErrAuthenticationFailed))

	// Kind survives further wrapping
	outer := fmt.Errorf("authenticate: %w", err)
	assert.True(t, errors.Is(outer, ErrAuthenticationDenied))
	assert.True(t, IsCode(outer, ErrAuth))
}

func TestKindAndCauseBothMatch(t *testing.T) {
	cause := errors.New("exit status 255")
	err := WrapWithCode(cause, ErrKey, "Failed to generate SSH key", "").
		WithKind(ErrKeyGenerationFailed)

	assert.True(t, errors.Is(err, ErrKeyGenerationFailed))
	assert.True(t, errors.Is(err, cause))
}

func TestIsCode(t *testing.T) {
	err := New(ErrConfig, "Config error", "")

	assert.True(t, IsCode(err, ErrConfig))
	assert.False(t, IsCode(err, ErrKey))
	assert.False(t, IsCode(errors.New("standard error"), ErrConfig))
	assert.False(t, IsCode(nil, ErrConfig))
}

func TestErrorMessageStructure(t *testing.T) {
	err := WrapWithCode(
		errors.New("422 Unprocessable Entity"),
		ErrAPI,
		"Could not create key",
		"Check the key is not registered on another account",
	)

	lines := strings.Split(err.Error(), "\n")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[0]), "✗"))
	assert.Contains(t, lines[0], "Could not create key")
}

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMalformedManifest, "missing key %q", "parent_map")

	if err.Code != ErrCodeMalformedManifest {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMalformedManifest)
	}

	expected := `MALFORMED_MANIFEST: missing key "parent_map"`
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(ErrCodeMalformedManifest, cause, "decode manifest")

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeReferentialIntegrity,
			expected: false,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("load: %w", New(ErrCodeMalformedManifest, "inner")),
			code:     ErrCodeMalformedManifest,
			expected: true,
		},
		{
			name:     "outer code wins",
			err:      Wrap(ErrCodeInternal, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeInternal,
			expected: true,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeProductNotFound, "x")); got != ErrCodeProductNotFound {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeProductNotFound)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "fqn is empty")); got != "fqn is empty" {
		t.Errorf("UserMessage() = %q", got)
	}
	wrapped := Wrap(ErrCodeMalformedManifest, errors.New("EOF"), "decode manifest")
	if got := UserMessage(wrapped); got != "decode manifest: EOF" {
		t.Errorf("UserMessage(wrapped) = %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestIsStructural(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{ErrCodeMalformedManifest, true},
		{ErrCodeReferentialIntegrity, true},
		{ErrCodeInvalidInput, true},
		{ErrCodeUnclassifiable, false},
		{ErrCodeProductNotFound, false},
	}
	for _, tt := range tests {
		if got := IsStructural(New(tt.code, "x")); got != tt.want {
			t.Errorf("IsStructural(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"retail.orders", false},
		{"model.proj.stg_orders", false},
		{"", true},
		{" padded", true},
		{"bad\x00id", true},
		{string(make([]byte, 600)), true},
	}
	for _, tt := range tests {
		err := ValidateIdentifier(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidIdentifier) {
			t.Errorf("ValidateIdentifier(%q) code = %v", tt.id, GetCode(err))
		}
	}
}

package errors

import (
	"errors"
	"fmt"
	"testing"
)

var errReadOnly = errors.New("document is read-only")

func TestError(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  New(ErrCodeInvalidMeasurement, "block %d: height %v", 3, -1),
			want: "INVALID_MEASUREMENT: block 3: height -1",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeCommitRejected, errReadOnly, "dispatch repagination"),
			want: "COMMIT_REJECTED: dispatch repagination: document is read-only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(ErrCodeCommitRejected, errReadOnly, "dispatch repagination")
	if errors.Unwrap(err) != errReadOnly {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), errReadOnly)
	}
	if !errors.Is(fmt.Errorf("session 1a2b: %w", err), errReadOnly) {
		t.Error("errors.Is should find the host error through the chain")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeInvalidPosition, "position 99"), ErrCodeInvalidPosition, true},
		{"other code", New(ErrCodeInvalidPosition, "position 99"), ErrCodeInvalidReplacement, false},
		{"outer code wins", Wrap(ErrCodeInvalidReplacement, New(ErrCodeInvalidPosition, "inner"), "outer"), ErrCodeInvalidReplacement, true},
		{"behind fmt wrap", fmt.Errorf("a.json: %w", New(ErrCodeInvalidDocument, "root")), ErrCodeInvalidDocument, true},
		{"plain error", errReadOnly, ErrCodeCommitRejected, false},
		{"nil", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"coded", New(ErrCodeInvalidConfig, "trigger.drift_chars"), ErrCodeInvalidConfig},
		{"wrapped", fmt.Errorf("load: %w", Wrap(ErrCodeInvalidPath, errReadOnly, "x")), ErrCodeInvalidPath},
		{"plain", errReadOnly, ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeInvalidPath, "document must be a .json file"), "document must be a .json file"},
		{
			name: "nested codes are dropped",
			err:  Wrap(ErrCodeInvalidReplacement, Wrap(ErrCodeInvalidPosition, errReadOnly, "position 40"), "replacement 0 [40,42)"),
			want: "replacement 0 [40,42): position 40: document is read-only",
		},
		{
			name: "outer context is kept",
			err:  fmt.Errorf("a.json: %w", New(ErrCodeInvalidDocument, "root must be doc")),
			want: "a.json: INVALID_DOCUMENT: root must be doc",
		},
		{"plain", errReadOnly, "document is read-only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

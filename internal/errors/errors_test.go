package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorWrapping(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := ConnectionError(cause, "neo4j unreachable")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause must be reachable via errors.Is")
	}
	if got := err.Error(); got != "neo4j unreachable: dial tcp: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorIs_MatchesOnCategory(t *testing.T) {
	a := ValidationError("empty path")
	b := ValidationError("different message")
	if !stderrors.Is(a, b) {
		t.Error("two validation errors should match by category")
	}
	if stderrors.Is(a, InternalError("x")) {
		t.Error("different categories must not match")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Nil", nil, false},
		{"Validation is fatal", ValidationError("x"), true},
		{"Connection is fatal", ConnectionError(stderrors.New("x"), "y"), true},
		{"Unsupported language is not", UnsupportedLanguageError("cobol"), false},
		{"Parse is not", ParseError(stderrors.New("x"), "a.py"), false},
		{"Foreign error is not", stderrors.New("plain"), false},
		{"Wrapped fatal stays fatal", fmt.Errorf("context: %w", ValidationError("x")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, ErrorTypeQuery, SeverityMedium, "x") != nil {
		t.Error("wrapping nil should stay nil")
	}
}

func TestWithContext(t *testing.T) {
	err := UnsupportedLanguageError("cobol")
	if err.Context["language"] != "cobol" {
		t.Errorf("missing language context: %v", err.Context)
	}
	if GetType(err) != ErrorTypeUnsupportedLanguage {
		t.Errorf("GetType() = %v", GetType(err))
	}
}

func TestGetType_Unwraps(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", QueryError(stderrors.New("timeout"), "read failed"))
	if GetType(wrapped) != ErrorTypeQuery {
		t.Errorf("GetType() = %v, want query", GetType(wrapped))
	}
	if GetType(stderrors.New("plain")) != ErrorTypeInternal {
		t.Error("foreign errors must report internal")
	}
}

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{ErrorTypeValidation, "validation"},
		{ErrorTypeParse, "parse"},
		{ErrorTypeConnection, "connection"},
		{ErrorTypeQuery, "query"},
		{ErrorTypeInternal, "internal"},
	}
	for _, tt := range tests {
		if got := tt.errType.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

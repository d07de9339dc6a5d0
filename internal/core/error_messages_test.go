package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "missing file maps to unreadable input",
			err:         errors.New("open rows.csv: no such file or directory"),
			wantCode:    "FILE001",
			wantMessage: "The input file could not be read",
		},
		{
			name:        "file too large maps correctly",
			err:         fmt.Errorf("read input: %w", ErrFileTooLarge),
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
		{
			name:        "empty file maps correctly",
			err:         errors.New("CSV file is empty or malformed"),
			wantCode:    "FILE005",
			wantMessage: "The file has no data rows",
		},
		{
			name:        "missing columns maps correctly",
			err:         errors.New("missing required columns: name"),
			wantCode:    "HDR001",
			wantMessage: "Required columns are missing from the header",
		},
		{
			name:        "unknown adapter maps correctly",
			err:         errors.New(`unknown adapter "widgets"`),
			wantCode:    "ADP001",
			wantMessage: "No adapter is registered under this key",
		},
		{
			name:        "context canceled maps to cancelled migration",
			err:         fmt.Errorf("row 12: %w", errors.New("context canceled")),
			wantCode:    "UPL001",
			wantMessage: "Migration was cancelled",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("INVALID CSV on line 3"),
			wantCode:    "FILE002",
			wantMessage: "File is not a valid CSV",
		},
		{
			name:        "fatal error code wins over message text",
			err:         &FatalError{Code: "LKP001", Message: "rate limit in file name"},
			wantCode:    "LKP001",
			wantMessage: "A lookup file could not be read",
		},
		{
			name:        "fatal error file001 uses unreadable message",
			err:         Fatal("FILE001", "cannot open input", errors.New("permission denied")),
			wantCode:    "FILE001",
			wantMessage: "The input file could not be read",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := errors.New("CSV file is empty or malformed")
	result := FormatUserError(err)

	expected := "The file has no data rows (Code: FILE005). Provide a header line and at least one data line"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  errors.New("invalid csv"),
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := errors.New("too many migrations in progress")
		userErr := NewUserError(techErr)

		if userErr.Error() != "System is busy processing other migrations" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
	})
}

func TestFatalErrorJSON(t *testing.T) {
	fe := &FatalError{
		Code:    "HDR001",
		Message: "missing required columns: name",
		Context: map[string]any{"missing": []string{"name"}, "error": "shadowed"},
	}

	doc := fe.JSON()
	if doc["error"] != "missing required columns: name" {
		t.Errorf("error = %v, want message", doc["error"])
	}
	if doc["code"] != "HDR001" {
		t.Errorf("code = %v, want HDR001", doc["code"])
	}
	if _, ok := doc["missing"]; !ok {
		t.Error("context key missing not merged")
	}
}

func TestAsFatal(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", Fatal("FILE005", "CSV file is empty or malformed", nil))
	if got := AsFatal(wrapped).Code; got != "FILE005" {
		t.Errorf("AsFatal(wrapped).Code = %q, want FILE005", got)
	}

	plain := errors.New("invalid csv: bare quote")
	fe := AsFatal(plain)
	if fe.Code != "FILE002" || fe.Message != plain.Error() {
		t.Errorf("AsFatal(plain) = %+v", fe)
	}
}

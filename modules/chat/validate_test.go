package chat

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateRoomName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "valid name", input: "General", want: "General"},
		{name: "trims whitespace", input: "  Lobby  ", want: "Lobby"},
		{name: "minimum length", input: "ab", want: "ab"},
		{name: "unicode counts runes", input: "café", want: "café"},
		{name: "empty", input: "", wantErr: ErrRoomNameEmpty},
		{name: "whitespace only", input: "   ", wantErr: ErrRoomNameEmpty},
		{name: "too short", input: "a", wantErr: ErrRoomNameTooShort},
		{name: "too long", input: strings.Repeat("x", 101), wantErr: ErrRoomNameTooLong},
		{name: "exactly max", input: strings.Repeat("x", 100), want: strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateRoomName(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ValidateRoomName(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateRoomName(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ValidateRoomName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty means open room", input: ""},
		{name: "minimum length", input: "abcd"},
		{name: "too short", input: "abc", wantErr: ErrPasswordTooShort},
		{name: "too long", input: strings.Repeat("p", 129), wantErr: ErrPasswordTooLong},
		{name: "exactly max", input: strings.Repeat("p", 128)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ValidatePassword(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidatePassword(%q) unexpected error: %v", tt.input, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "simple", input: "alice", want: "alice"},
		{name: "trims whitespace", input: " bob ", want: "bob"},
		{name: "digits and separators", input: "user_42-a b", want: "user_42-a b"},
		{name: "unicode letters", input: "José", want: "José"},
		{name: "empty", input: "", wantErr: ErrUsernameEmpty},
		{name: "too short", input: "a", wantErr: ErrUsernameTooShort},
		{name: "too long", input: strings.Repeat("u", 51), wantErr: ErrUsernameTooLong},
		{name: "punctuation rejected", input: "alice!", wantErr: ErrUsernameInvalid},
		{name: "at sign rejected", input: "a@b", wantErr: ErrUsernameInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateUsername(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ValidateUsername(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateUsername(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ValidateUsername(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateMessageContent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "plain text", input: "hello", want: "hello"},
		{name: "trims whitespace", input: "  hi  ", want: "hi"},
		{name: "empty", input: "", wantErr: ErrMessageEmpty},
		{name: "whitespace only", input: " \t\n", wantErr: ErrMessageEmpty},
		{name: "too long", input: strings.Repeat("m", 2001), wantErr: ErrMessageTooLong},
		{name: "exactly max", input: strings.Repeat("m", 2000), want: strings.Repeat("m", 2000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateMessageContent(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ValidateMessageContent error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateMessageContent unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ValidateMessageContent = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorCodeRoundTrip(t *testing.T) {
	tests := []struct {
		err      error
		code     string
		category error
	}{
		{err: ErrRoomNameEmpty, code: CodeInvalidInput, category: ErrInvalidInput},
		{err: ErrRoomNotFound, code: CodeNotFound, category: ErrNotFound},
		{err: ErrWrongPassword, code: CodeUnauthorized, category: ErrUnauthorized},
		{err: ErrUsernameTaken, code: CodeConflict, category: ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.code {
				t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.code)
			}

			rebuilt := ErrorFromCode(tt.code, tt.err.Error())
			if !errors.Is(rebuilt, tt.category) {
				t.Errorf("ErrorFromCode(%q) lost category %v", tt.code, tt.category)
			}
			if rebuilt.Error() != tt.err.Error() {
				t.Errorf("ErrorFromCode(%q) = %q, want %q", tt.code, rebuilt.Error(), tt.err.Error())
			}
		})
	}
}

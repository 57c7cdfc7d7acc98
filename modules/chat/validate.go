package chat

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validation bounds. Lengths are counted in runes, not bytes.
const (
	MinRoomNameLength = 2
	MaxRoomNameLength = 100
	MinPasswordLength = 4
	MaxPasswordLength = 128
	MinUsernameLength = 2
	MaxUsernameLength = 50
	MaxMessageLength  = 2000
)

// ValidateRoomName trims the name and checks its length. It returns the
// trimmed name.
func ValidateRoomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", ErrRoomNameEmpty
	case utf8.RuneCountInString(name) < MinRoomNameLength:
		return "", ErrRoomNameTooShort
	case utf8.RuneCountInString(name) > MaxRoomNameLength:
		return "", ErrRoomNameTooLong
	}
	return name, nil
}

// ValidatePassword checks an optional room password. An empty password is
// valid and means the room is open.
func ValidatePassword(password string) error {
	if password == "" {
		return nil
	}
	switch {
	case utf8.RuneCountInString(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case utf8.RuneCountInString(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

// ValidateUsername trims the username and checks length and charset
// (letters, digits, spaces, hyphens and underscores). It returns the
// trimmed username.
func ValidateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return "", ErrUsernameEmpty
	case utf8.RuneCountInString(username) < MinUsernameLength:
		return "", ErrUsernameTooShort
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		return "", ErrUsernameTooLong
	}
	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			continue
		}
		return "", ErrUsernameInvalid
	}
	return username, nil
}

// ValidateMessageContent trims the content and checks it is non-empty and
// within the length cap. It returns the trimmed content.
func ValidateMessageContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return "", ErrMessageEmpty
	case utf8.RuneCountInString(content) > MaxMessageLength:
		return "", ErrMessageTooLong
	}
	return content, nil
}

package uniuri

import (
	"crypto/rand"
	"errors"
)

const (
	// StdLen is the default length, about 95 bits of entropy with StdChars.
	StdLen = 16
	// PasswordLen is the length of generated account passwords.
	PasswordLen = 20

	maxChars = 256
)

var (
	// StdChars are the alphanumeric characters.
	StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789") //nolint:gochecknoglobals

	// PasswordChars add punctuation that survives shells and form fields unquoted.
	PasswordChars = []byte("ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789-_.+=") //nolint:gochecknoglobals

	// ErrCharset is returned for character sets shorter than 2 or longer than 256.
	ErrCharset = errors.New("uniuri: charset must hold 2 to 256 characters")
)

// New returns a random string of StdLen standard characters.
func New() (string, error) {
	return NewLenChars(StdLen, StdChars)
}

// NewLen returns a random string of length standard characters.
func NewLen(length int) (string, error) {
	return NewLenChars(length, StdChars)
}

// Password returns a random password of PasswordLen characters.
func Password() (string, error) {
	return NewLenChars(PasswordLen, PasswordChars)
}

// NewLenChars returns a random string of length characters drawn uniformly from chars.
// Bytes that would bias the distribution are rejected and redrawn.
func NewLenChars(length int, chars []byte) (string, error) {
	if len(chars) < 2 || len(chars) > maxChars {
		return "", ErrCharset
	}

	if length <= 0 {
		return "", nil
	}

	// largest multiple of len(chars) that fits a byte
	limit := maxChars - maxChars%len(chars)

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, chars[int(b)%len(chars)])

			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}

// Package lessonplan reads and checks lesson-plan text before it is sent
// for diagnosis.
package lessonplan

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MinLength is the minimum number of characters, after trimming, for a
// plan to be worth diagnosing.
const MinLength = 100

// MaxBytes caps how much input is read.
const MaxBytes = 1 << 20

// ErrNotUTF8 is returned for input that is not valid UTF-8.
var ErrNotUTF8 = errors.New("lesson plan is not UTF-8 text; open it in a text editor and save it as UTF-8")

// ErrTooLarge is returned for input over MaxBytes.
var ErrTooLarge = fmt.Errorf("lesson plan is larger than %d bytes", MaxBytes)

// ErrTooShort is returned for plans under MinLength characters.
type ErrTooShort struct {
	Length int
}

func (e *ErrTooShort) Error() string {
	return fmt.Sprintf("lesson plan is too short to diagnose reliably (%d characters, need at least %d)", e.Length, MinLength)
}

// Read reads a plan from r and validates it.
func Read(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read lesson plan: %w", err)
	}
	if len(data) > MaxBytes {
		return "", ErrTooLarge
	}
	return Decode(data)
}

// Decode validates raw bytes and returns them as text. A UTF-8 byte order
// mark is dropped.
func Decode(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrNotUTF8
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	if err := Validate(text); err != nil {
		return "", err
	}
	return text, nil
}

// Validate checks the length of text.
func Validate(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n < MinLength {
		return &ErrTooShort{Length: n}
	}
	return nil
}

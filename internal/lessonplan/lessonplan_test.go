package lessonplan

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Valid(t *testing.T) {
	plan := strings.Repeat("教", 100)
	got, err := Read(strings.NewReader("  " + plan + "\n"))
	require.NoError(t, err)
	assert.Equal(t, "  "+plan+"\n", got)
}

func TestValidate_CountsCharactersNotBytes(t *testing.T) {
	// 99 CJK characters are 297 bytes but still too short.
	err := Validate(strings.Repeat("教", 99))
	var short *ErrTooShort
	require.True(t, errors.As(err, &short))
	assert.Equal(t, 99, short.Length)
	assert.Contains(t, err.Error(), "99 characters")

	assert.NoError(t, Validate(strings.Repeat("a", 100)))
}

func TestValidate_TrimsWhitespace(t *testing.T) {
	err := Validate("   " + strings.Repeat("a", 98) + "\n\n\t")
	var short *ErrTooShort
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 98, short.Length)
}

func TestDecode_NotUTF8(t *testing.T) {
	gbk := []byte{0xbd, 0xcc, 0xb0, 0xb8} // "教案" in GBK
	_, err := Decode(bytes.Repeat(gbk, 50))
	assert.ErrorIs(t, err, ErrNotUTF8)
}

func TestDecode_StripsBOM(t *testing.T) {
	got, err := Decode([]byte("\ufeff" + strings.Repeat("b", 100)))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("b", 100), got)
}

func TestRead_TooLarge(t *testing.T) {
	_, err := Read(bytes.NewReader(bytes.Repeat([]byte("a"), MaxBytes+1)))
	assert.ErrorIs(t, err, ErrTooLarge)
}

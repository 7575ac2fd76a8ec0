package objectdef

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNotUTF8 is returned by Decode for input that is not valid UTF-8.
var ErrNotUTF8 = errors.New("file is not valid UTF-8")

// Decode converts raw file bytes to text. A leading UTF-8 byte order mark is
// dropped; any invalid sequence fails the whole file rather than being
// replaced.
func Decode(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", ErrNotUTF8
	}
	out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decode utf-8: %w", err)
	}
	return string(out), nil
}

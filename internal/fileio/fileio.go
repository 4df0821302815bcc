// Package fileio reads anchored files using WHATWG encoding labels.
package fileio

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	sperrors "github.com/Aman-CERP/spor/internal/errors"
)

// LookupEncoding resolves a WHATWG label such as "utf-8", "latin1" or
// "shift_jis" and returns its canonical name.
func LookupEncoding(label string) (encoding.Encoding, string, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, "", sperrors.New(sperrors.ErrCodeInvalidEncoding,
			fmt.Sprintf("unknown encoding %q", label), err).
			WithSuggestion("Use a WHATWG encoding label such as utf-8 or windows-1252")
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = label
	}
	return enc, name, nil
}

// ReadFile reads path and decodes it strictly with the named encoding.
// Invalid byte sequences are an error rather than being replaced.
func ReadFile(path, label string) (string, error) {
	enc, name, err := LookupEncoding(label)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", readError(path, err)
	}

	text, err := Decode(data, enc)
	if err != nil {
		return "", sperrors.New(sperrors.ErrCodeDecodeFailed,
			fmt.Sprintf("cannot decode %s as %s", path, name), err).
			WithDetail("path", path).
			WithDetail("encoding", name)
	}
	return text, nil
}

// Decode converts data to a string using enc.
func Decode(data []byte, enc encoding.Encoding) (string, error) {
	if enc == unicode.UTF8 {
		// The x/text UTF-8 decoder substitutes U+FFFD; anchors need exact text.
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid utf-8 at byte %d", firstInvalid(data))
		}
		return string(data), nil
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	// Decoders map undefined bytes to U+FFFD instead of failing. A U+FFFD
	// that was really in the file survives re-encoding; a substituted one
	// does not.
	if i := bytes.IndexRune(out, utf8.RuneError); i >= 0 {
		back, err := enc.NewEncoder().Bytes(out)
		if err != nil || !bytes.Equal(back, data) {
			return "", fmt.Errorf("undecodable input at output byte %d", i)
		}
	}
	return string(out), nil
}

func firstInvalid(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(data)
}

func readError(path string, err error) error {
	code := sperrors.ErrCodeFileNotFound
	if errors.Is(err, fs.ErrPermission) {
		code = sperrors.ErrCodeFilePermission
	}
	return sperrors.New(code, fmt.Sprintf("cannot read %s", path), err).WithDetail("path", path)
}

// Package jsonc normalizes JSON-with-comments documents into strict JSON.
package jsonc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Normalize strips line/block comments and trailing commas.
//
// Stripped bytes are replaced with spaces so decoder offsets still map back to
// the original line/column positions.
func Normalize(content string) (string, error) {
	withoutComments, err := stripComments(content)
	if err != nil {
		return "", err
	}
	return stripTrailingCommas(withoutComments), nil
}

// Decode normalizes content and strictly decodes exactly one JSON value into out.
func Decode(content string, out any, disallowUnknown bool) error {
	normalized, err := Normalize(content)
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	if disallowUnknown {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(out); err != nil {
		return WrapDecodeError(normalized, err)
	}
	if err := ensureSingleValue(decoder); err != nil {
		return WrapDecodeError(normalized, err)
	}
	return nil
}

// WrapDecodeError annotates syntax/type errors with a line and column.
func WrapDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := OffsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := OffsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

// OffsetToLineCol converts a decoder byte offset into 1-based line/column.
func OffsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line, col := 1, 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

func ensureSingleValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

type scanner struct {
	inString bool
	escape   bool
}

// consumeString advances string/escape tracking for one byte inside a string.
func (s *scanner) consumeString(ch byte) {
	switch {
	case s.escape:
		s.escape = false
	case ch == '\\':
		s.escape = true
	case ch == '"':
		s.inString = false
	}
}

func stripComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	var (
		sc           scanner
		lineComment  bool
		blockComment bool
	)

	for i := 0; i < len(content); i++ {
		ch := content[i]

		switch {
		case lineComment:
			if ch == '\n' || ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		case blockComment:
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		case sc.inString:
			out.WriteByte(ch)
			sc.consumeString(ch)
			continue
		}

		if ch == '"' {
			sc.inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			switch content[i+1] {
			case '/':
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			case '*':
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}
	return out.String(), nil
}

func stripTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	var sc scanner
	for i := 0; i < len(content); i++ {
		ch := content[i]

		if sc.inString {
			out.WriteByte(ch)
			sc.consumeString(ch)
			continue
		}

		if ch == '"' {
			sc.inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

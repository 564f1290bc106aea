package serverconfig

import (
	"io"
	"strings"

	"github.com/matzehuels/pzmod/pkg/errors"
)

// Parse builds a document from config text.
//
// Blank lines are dropped. Lines starting with '#' (after trimming) are
// collected verbatim and attached to the next key. Every other line is split
// at the first '='; a line without '=' is a key with an empty value. Comments
// after the last key are discarded.
//
// Parse returns EMPTY_FILE for zero-length input and INVALID_CONFIG when a
// required key is missing.
func Parse(text string) (*Document, error) {
	if len(text) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyFile, "file is empty")
	}

	d := New()
	d.eol = detectLineEnding(text)

	var comments []string
	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			comments = append(comments, line)
			continue
		}

		key, raw, _ := strings.Cut(trimmed, "=")
		d.put(Entry{
			Key:      strings.TrimSpace(key),
			Comments: comments,
			Value:    ParseValue(raw),
		})
		comments = nil
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Read parses all of r.
func Read(r io.Reader) (*Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read config")
	}
	return Parse(string(b))
}

// splitLines splits on "\r\n", "\n" and lone "\r".
func splitLines(text string) []string {
	var lines []string
	for len(text) > 0 {
		i := strings.IndexAny(text, "\r\n")
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i])
		if text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n' {
			i++
		}
		text = text[i+1:]
	}
	return lines
}

// detectLineEnding returns the most frequent terminator in text, "\n" when
// there is none.
func detectLineEnding(text string) string {
	crlf := strings.Count(text, "\r\n")
	lf := strings.Count(text, "\n") - crlf
	cr := strings.Count(text, "\r") - crlf
	switch {
	case crlf > lf && crlf >= cr:
		return "\r\n"
	case cr > lf && cr > crlf:
		return "\r"
	default:
		return "\n"
	}
}

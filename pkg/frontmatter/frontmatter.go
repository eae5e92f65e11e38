package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingFrontmatter is returned by MustParse when no frontmatter is found.
var ErrMissingFrontmatter = errors.New("missing frontmatter")

// ErrUnterminated is returned when the opening delimiter has no closing one.
var ErrUnterminated = errors.New("missing closing frontmatter delimiter")

// Parse decodes optional frontmatter from content into matter and returns the body.
// Without frontmatter, matter is untouched and the full content is the body.
func Parse[T any](content []byte, matter *T) ([]byte, error) {
	return parse(content, matter, false)
}

// MustParse is like Parse but requires frontmatter to be present.
func MustParse[T any](content []byte, matter *T) ([]byte, error) {
	return parse(content, matter, true)
}

func parse[T any](content []byte, matter *T, required bool) ([]byte, error) {
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	rest, ok := bytes.CutPrefix(normalized, []byte("---\n"))
	if !ok {
		if required {
			return nil, ErrMissingFrontmatter
		}
		return content, nil
	}

	var header, body []byte
	switch {
	case bytes.HasPrefix(rest, []byte("---\n")) || bytes.Equal(rest, []byte("---")):
		header, body = nil, bytes.TrimPrefix(bytes.TrimPrefix(rest, []byte("---")), []byte("\n"))
	default:
		var found bool
		header, body, found = bytes.Cut(rest, []byte("\n---"))
		if !found {
			return nil, ErrUnterminated
		}
		body = bytes.TrimPrefix(body, []byte("\n"))
	}

	if err := yaml.Unmarshal(header, matter); err != nil {
		return nil, err
	}
	return body, nil
}

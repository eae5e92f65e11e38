// Package managedblock edits the single nori-owned region inside a
// user-owned markdown file.
//
// The region is delimited by two sentinel lines. Text outside the region is
// never modified. Only one region per file is supported; files with more
// than one BEGIN or END sentinel are reported as corrupt rather than guessed
// at.
package managedblock

import (
	"regexp"
	"strings"

	"github.com/tilework-tech/nori-profiles/internal/errors"
)

// Sentinel lines. They must match byte-for-byte on a line of their own.
const (
	Begin = "# BEGIN NORI-AI MANAGED BLOCK"
	End   = "# END NORI-AI MANAGED BLOCK"
)

var (
	// ErrCorruptBlock indicates unbalanced, reversed, or repeated sentinels.
	ErrCorruptBlock = errors.New("corrupt managed block")

	// ErrInvalidBody indicates a block body that itself contains a sentinel line.
	ErrInvalidBody = errors.New("managed block body contains a sentinel line")
)

var (
	beginRe = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(Begin) + `$`)
	endRe   = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(End) + `$`)
)

// span locates the block. begin is the offset of the BEGIN line, bodyStart
// the first byte after it, bodyEnd the offset of the END line, end the first
// byte after the END sentinel text.
type span struct {
	begin, bodyStart, bodyEnd, end int
}

func locate(content string) (span, bool, error) {
	begins := beginRe.FindAllStringIndex(content, -1)
	ends := endRe.FindAllStringIndex(content, -1)

	switch {
	case len(begins) == 0 && len(ends) == 0:
		return span{}, false, nil
	case len(begins) > 1 || len(ends) > 1:
		return span{}, false, errors.WithDetailf(ErrCorruptBlock,
			"found %d BEGIN and %d END sentinels; expected one of each", len(begins), len(ends))
	case len(begins) != len(ends):
		return span{}, false, errors.WithDetail(ErrCorruptBlock, "unmatched sentinel line")
	case ends[0][0] < begins[0][1]:
		return span{}, false, errors.WithDetail(ErrCorruptBlock, "END sentinel precedes BEGIN")
	}

	s := span{
		begin:     begins[0][0],
		bodyStart: begins[0][1],
		bodyEnd:   ends[0][0],
		end:       ends[0][1],
	}
	if s.bodyStart < len(content) && content[s.bodyStart] == '\n' {
		s.bodyStart++
	}
	return s, true, nil
}

// Has reports whether content contains a well-formed block.
func Has(content string) (bool, error) {
	_, found, err := locate(content)
	return found, err
}

// Body returns the inner text of the block without its trailing newline.
func Body(content string) (string, bool, error) {
	s, found, err := locate(content)
	if err != nil || !found {
		return "", found, err
	}
	if s.bodyStart > s.bodyEnd {
		return "", true, nil
	}
	return strings.TrimSuffix(content[s.bodyStart:s.bodyEnd], "\n"), true, nil
}

// Upsert inserts or replaces the block body.
//
// Without a block, "\n" + BEGIN + "\n" + body + "\n" + END + "\n" is appended
// to content, preserving every prior byte. With a block, only the text
// between the sentinels is replaced.
func Upsert(content, body string) (string, error) {
	if beginRe.MatchString(body) || endRe.MatchString(body) {
		return "", ErrInvalidBody
	}
	body = strings.TrimRight(body, "\n")

	s, found, err := locate(content)
	if err != nil {
		return "", err
	}
	if !found {
		return content + "\n" + Begin + "\n" + body + "\n" + End + "\n", nil
	}
	return content[:s.bodyStart] + body + "\n" + content[s.bodyEnd:], nil
}

// Remove strips the block together with the newline inserted before it and
// the one after END. When nothing but whitespace remains, it returns
// deleteFile=true and the caller removes the file instead of writing it.
func Remove(content string) (result string, deleteFile bool, err error) {
	s, found, err := locate(content)
	if err != nil {
		return "", false, err
	}
	if !found {
		return content, false, nil
	}

	start, end := s.begin, s.end
	if start > 0 && content[start-1] == '\n' {
		start--
	}
	if end < len(content) && content[end] == '\n' {
		end++
	}

	result = content[:start] + content[end:]
	if strings.TrimSpace(result) == "" {
		return "", true, nil
	}
	return result, false, nil
}

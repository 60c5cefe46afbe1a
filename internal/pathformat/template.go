package pathformat

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenYear
	tokenMonth
	tokenDay
	tokenHour
	tokenMinute
	tokenSecond
	tokenCounter
	tokenCounterDash
	tokenExtension
)

type token struct {
	kind    tokenKind
	literal string
}

// Template is a parsed destination path template. Parsing happens once; the
// token list is evaluated against an Input per file.
//
// Token grammar (strftime-flavored, matching the exiftool defaults medio
// replaced):
//
//	%Y %m %d %H %M %S  zero-padded timestamp components
//	%-c                counter, rendered "-N" when N > 0 and empty otherwise
//	%c                 counter, rendered "N" when N > 0 and empty otherwise
//	%e                 original extension, lower-cased, no leading dot
//	%%                 literal percent
//
// Every other byte is copied verbatim; path separators produce nested
// destination directories. Timestamp tokens may repeat (the default template
// repeats %Y and %m); the counter and extension tokens may appear at most
// once.
type Template struct {
	raw        string
	tokens     []token
	hasCounter bool
}

// Parse compiles a template string into a token list.
func Parse(raw string) (*Template, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("template is empty")
	}

	t := &Template{raw: raw}
	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			t.tokens = append(t.tokens, token{kind: tokenLiteral, literal: literal.String()})
			literal.Reset()
		}
	}

	sawExtension := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '%' {
			literal.WriteByte(c)
			continue
		}
		if i+1 >= len(raw) {
			return nil, fmt.Errorf("template ends with a dangling %%")
		}
		i++
		switch raw[i] {
		case '%':
			literal.WriteByte('%')
			continue
		case 'Y':
			flush()
			t.tokens = append(t.tokens, token{kind: tokenYear})
		case 'm':
			flush()
			t.tokens = append(t.tokens, token{kind: tokenMonth})
		case 'd':
			flush()
			t.tokens = append(t.tokens, token{kind: tokenDay})
		case 'H':
			flush()
			t.tokens = append(t.tokens, token{kind: tokenHour})
		case 'M':
			flush()
			t.tokens = append(t.tokens, token{kind: tokenMinute})
		case 'S':
			flush()
			t.tokens = append(t.tokens, token{kind: tokenSecond})
		case 'c':
			if t.hasCounter {
				return nil, fmt.Errorf("counter token may appear at most once")
			}
			flush()
			t.tokens = append(t.tokens, token{kind: tokenCounter})
			t.hasCounter = true
		case '-':
			if i+1 >= len(raw) || raw[i+1] != 'c' {
				return nil, fmt.Errorf("unknown token %%-%s at offset %d", safeByte(raw, i+1), i-1)
			}
			if t.hasCounter {
				return nil, fmt.Errorf("counter token may appear at most once")
			}
			i++
			flush()
			t.tokens = append(t.tokens, token{kind: tokenCounterDash})
			t.hasCounter = true
		case 'e':
			if sawExtension {
				return nil, fmt.Errorf("extension token may appear at most once")
			}
			flush()
			t.tokens = append(t.tokens, token{kind: tokenExtension})
			sawExtension = true
		default:
			return nil, fmt.Errorf("unknown token %%%c at offset %d", raw[i], i-1)
		}
	}
	flush()

	return t, nil
}

// HasCounter reports whether the template contains a disambiguation counter
// token. Templates without one cannot resolve name collisions.
func (t *Template) HasCounter() bool {
	return t.hasCounter
}

// String returns the original template text.
func (t *Template) String() string {
	return t.raw
}

// Input holds the values a template is evaluated against. Timestamp
// components are taken verbatim from the supplied time; no timezone
// conversion happens here.
type Input struct {
	Timestamp time.Time
	Extension string
	Counter   int
}

// Render expands the template into a relative destination path. Rendering is
// pure and total for any valid timestamp.
func (t *Template) Render(in Input) string {
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(in.Extension), "."))

	var out strings.Builder
	out.Grow(len(t.raw) + 8)
	for _, tok := range t.tokens {
		switch tok.kind {
		case tokenLiteral:
			out.WriteString(tok.literal)
		case tokenYear:
			out.WriteString(pad(in.Timestamp.Year(), 4))
		case tokenMonth:
			out.WriteString(pad(int(in.Timestamp.Month()), 2))
		case tokenDay:
			out.WriteString(pad(in.Timestamp.Day(), 2))
		case tokenHour:
			out.WriteString(pad(in.Timestamp.Hour(), 2))
		case tokenMinute:
			out.WriteString(pad(in.Timestamp.Minute(), 2))
		case tokenSecond:
			out.WriteString(pad(in.Timestamp.Second(), 2))
		case tokenCounter:
			if in.Counter > 0 {
				out.WriteString(strconv.Itoa(in.Counter))
			}
		case tokenCounterDash:
			if in.Counter > 0 {
				out.WriteByte('-')
				out.WriteString(strconv.Itoa(in.Counter))
			}
		case tokenExtension:
			out.WriteString(ext)
		}
	}
	return out.String()
}

func pad(value, width int) string {
	s := strconv.Itoa(value)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func safeByte(s string, i int) string {
	if i >= len(s) {
		return ""
	}
	return string(s[i])
}

package format

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// mdV2Specials lists characters Telegram reserves in MarkdownV2 text.
const mdV2Specials = "_*[]()~`>#+-=|{}.!"

var mdV2Replacer = func() *strings.Replacer {
	pairs := make([]string, 0, 2*(len(mdV2Specials)+1))
	pairs = append(pairs, `\`, `\\`)
	for _, r := range mdV2Specials {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}()

// EscapeMarkdownV2 escapes plain text so it renders literally in MarkdownV2.
func EscapeMarkdownV2(text string) string {
	return mdV2Replacer.Replace(text)
}

// IsReserved reports whether r must be escaped in MarkdownV2 text.
func IsReserved(r rune) bool {
	return strings.ContainsRune(mdV2Specials, r)
}

// MarkdownError points at the first construct Telegram would reject.
type MarkdownError struct {
	Offset int
	Char   rune
	Reason string
}

func (e *MarkdownError) Error() string {
	if e.Char == 0 {
		return fmt.Sprintf("markdownv2: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("markdownv2: %s %q at offset %d", e.Reason, e.Char, e.Offset)
}

type entity string

const (
	entBold      entity = "*"
	entItalic    entity = "_"
	entUnderline entity = "__"
	entStrike    entity = "~"
	entSpoiler   entity = "||"
)

type mdScanner struct {
	src   string
	pos   int
	stack []entity
	link  int // offset of the open '[' or -1
}

// ValidateMarkdownV2 checks that text is well-formed Telegram MarkdownV2:
// reserved characters are escaped unless they form an entity, entities are
// balanced and properly nested, links have a target and code spans are closed.
func ValidateMarkdownV2(text string) error {
	s := &mdScanner{src: text, link: -1}
	return s.run()
}

func (s *mdScanner) run() error {
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if r == utf8.RuneError && size == 1 {
			return s.fail(0, "invalid utf-8")
		}
		switch r {
		case '\\':
			if err := s.escape(); err != nil {
				return err
			}
			continue
		case '*':
			if err := s.toggle(entBold); err != nil {
				return err
			}
		case '_':
			if s.peek(1) == '_' {
				if err := s.toggle(entUnderline); err != nil {
					return err
				}
				s.pos++
			} else if err := s.toggle(entItalic); err != nil {
				return err
			}
		case '~':
			if err := s.toggle(entStrike); err != nil {
				return err
			}
		case '|':
			if s.peek(1) != '|' {
				return s.fail(r, "unescaped reserved character")
			}
			if err := s.toggle(entSpoiler); err != nil {
				return err
			}
			s.pos++
		case '`':
			if err := s.code(); err != nil {
				return err
			}
			continue
		case '[':
			if s.link >= 0 {
				return s.fail(r, "nested link")
			}
			s.link = s.pos
		case ']':
			if s.link < 0 {
				return s.fail(r, "unescaped reserved character")
			}
			if err := s.linkTarget(); err != nil {
				return err
			}
			s.link = -1
			continue
		case '>':
			if s.pos != 0 && s.src[s.pos-1] != '\n' {
				return s.fail(r, "unescaped reserved character")
			}
		default:
			if IsReserved(r) {
				return s.fail(r, "unescaped reserved character")
			}
		}
		s.pos += size
	}
	if s.link >= 0 {
		s.pos = s.link
		return s.fail('[', "unclosed link")
	}
	if n := len(s.stack); n > 0 {
		return &MarkdownError{Offset: len(s.src), Reason: "unclosed entity " + string(s.stack[n-1])}
	}
	return nil
}

func (s *mdScanner) peek(n int) byte {
	if s.pos+n >= len(s.src) {
		return 0
	}
	return s.src[s.pos+n]
}

func (s *mdScanner) fail(r rune, reason string) error {
	return &MarkdownError{Offset: s.pos, Char: r, Reason: reason}
}

// escape consumes a backslash and the character it escapes.
func (s *mdScanner) escape() error {
	if s.pos+1 >= len(s.src) {
		return s.fail('\\', "dangling escape")
	}
	next := s.src[s.pos+1]
	if next == 0 || next > 126 {
		return s.fail('\\', "escape of non-ascii character")
	}
	s.pos += 2
	return nil
}

func (s *mdScanner) toggle(e entity) error {
	n := len(s.stack)
	if n > 0 && s.stack[n-1] == e {
		s.stack = s.stack[:n-1]
		return nil
	}
	for _, open := range s.stack {
		if open == e {
			return s.fail(rune(e[0]), "overlapping entity")
		}
	}
	s.stack = append(s.stack, e)
	return nil
}

// code consumes an inline code span or a ``` pre block.
func (s *mdScanner) code() error {
	start := s.pos
	fence := "`"
	if strings.HasPrefix(s.src[s.pos:], "```") {
		fence = "```"
	}
	s.pos += len(fence)
	for s.pos < len(s.src) {
		switch {
		case s.src[s.pos] == '\\':
			if err := s.escape(); err != nil {
				return err
			}
		case strings.HasPrefix(s.src[s.pos:], fence):
			s.pos += len(fence)
			return nil
		case s.src[s.pos] == '`':
			return s.fail('`', "unescaped backtick in code")
		default:
			s.pos++
		}
	}
	s.pos = start
	return s.fail('`', "unclosed code")
}

// linkTarget consumes "](url)" after link text.
func (s *mdScanner) linkTarget() error {
	if s.peek(1) != '(' {
		return s.fail(']', "link without target")
	}
	open := s.pos + 1
	s.pos += 2
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			if err := s.escape(); err != nil {
				return err
			}
		case ')':
			if s.pos == open+1 {
				return s.fail(')', "empty link target")
			}
			s.pos++
			return nil
		default:
			s.pos++
		}
	}
	s.pos = open
	return s.fail('(', "unclosed link target")
}

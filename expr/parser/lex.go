// Copyright 2024 Quantpoll, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package parser

import (
	"errors"
	"fmt"
	"strconv"
)

// SyntaxError describes malformed expression text.
type SyntaxError struct {
	Position int    // offset in the input string
	Message  string // textual description of the error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("at position %d: %s", e.Position, e.Message)
}

// ErrRange is returned for a malformed r(a, b) range helper.
var ErrRange = errors.New("function 'r' needs 2 integer arguments")

type tokKind int

const (
	tokEOF tokKind = iota
	tokErr
	tokIdent
	tokInt
	tokFloat
	tokString
	tokOp  // punctuation and operators; token.text holds the spelling
	tokAnd // keywords
	tokOr
	tokNot
	tokIn
)

type token struct {
	kind tokKind
	pos  int
	text string
	i    int64
	f    float64
}

type scanner struct {
	from []byte
	pos  int
	err  error
}

func isdigit(x byte) bool {
	return x >= '0' && x <= '9'
}

func isalpha(x byte) bool {
	return (x >= 'a' && x <= 'z') || (x >= 'A' && x <= 'Z')
}

func isident(x byte) bool {
	return isalpha(x) || isdigit(x) || x == '_'
}

func isspace(x byte) bool {
	return x == ' ' || x == '\n' || x == '\t' || x == '\r' || x == '\f' || x == '\v'
}

func (s *scanner) peekat(i int) byte {
	if s.pos+i < len(s.from) {
		return s.from[s.pos+i]
	}
	return 0
}

// chomp whitespace from input
func (s *scanner) chompws() {
	for s.pos < len(s.from) && isspace(s.from[s.pos]) {
		s.pos++
	}
}

func (s *scanner) fail(pos int, format string, args ...any) token {
	s.err = &SyntaxError{Position: pos, Message: fmt.Sprintf(format, args...)}
	return token{kind: tokErr, pos: pos}
}

func (s *scanner) scan() token {
	s.chompws()
	if s.pos >= len(s.from) {
		return token{kind: tokEOF, pos: s.pos}
	}
	pos := s.pos
	b := s.from[s.pos]
	if isdigit(b) || (b == '.' && isdigit(s.peekat(1))) {
		return s.lexNumber()
	}
	if isident(b) {
		return s.lexIdent()
	}
	switch b {
	case '\'', '"':
		return s.lexString()
	case '=':
		if s.peekat(1) == '=' {
			s.pos += 2
			return token{kind: tokOp, pos: pos, text: "=="}
		}
		s.pos++
		return token{kind: tokOp, pos: pos, text: "="}
	case '!':
		if s.peekat(1) == '=' {
			s.pos += 2
			return token{kind: tokOp, pos: pos, text: "!="}
		}
		return s.fail(pos, "unexpected character %q", b)
	case '<':
		if s.peekat(1) == '=' {
			s.pos += 2
			return token{kind: tokOp, pos: pos, text: "<="}
		}
		s.pos++
		return token{kind: tokOp, pos: pos, text: "<"}
	case '>':
		if s.peekat(1) == '=' {
			s.pos += 2
			return token{kind: tokOp, pos: pos, text: ">="}
		}
		s.pos++
		return token{kind: tokOp, pos: pos, text: ">"}
	case '/':
		if s.peekat(1) == '/' {
			s.pos += 2
			return token{kind: tokOp, pos: pos, text: "//"}
		}
		s.pos++
		return token{kind: tokOp, pos: pos, text: "/"}
	case '(', ')', '[', ']', ',', '.', '+', '-', '*', '%', '^', '&', '|', '~':
		s.pos++
		return token{kind: tokOp, pos: pos, text: string(b)}
	}
	return s.fail(pos, "unexpected character %q", b)
}

// lex an identifier, or a keyword if it matches one
func (s *scanner) lexIdent() token {
	start := s.pos
	s.pos++
	for s.pos < len(s.from) && isident(s.from[s.pos]) {
		s.pos++
	}
	word := string(s.from[start:s.pos])
	switch word {
	case "and":
		return token{kind: tokAnd, pos: start, text: word}
	case "or":
		return token{kind: tokOr, pos: start, text: word}
	case "not":
		return token{kind: tokNot, pos: start, text: word}
	case "in":
		return token{kind: tokIn, pos: start, text: word}
	}
	return token{kind: tokIdent, pos: start, text: word}
}

// lexNumber lexes an integer or float literal
func (s *scanner) lexNumber() token {
	start := s.pos
	float := s.from[s.pos] == '.'
	s.pos++
	for s.pos < len(s.from) {
		c := s.from[s.pos]
		if isdigit(c) {
			s.pos++
			continue
		}
		if c == '.' && !float {
			float = true
			s.pos++
			continue
		}
		if c == 'e' || c == 'E' {
			float = true
			s.pos++
			if c := s.peekat(0); c == '+' || c == '-' {
				s.pos++
			}
			continue
		}
		break
	}
	str := string(s.from[start:s.pos])
	if !float {
		i, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return s.fail(start, "bad integer literal %q", str)
		}
		return token{kind: tokInt, pos: start, i: i, text: str}
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return s.fail(start, "bad number literal %q", str)
	}
	return token{kind: tokFloat, pos: start, f: f, text: str}
}

// lexString lexes a quoted string literal; single and double
// quotes are accepted, with backslash escapes for the quote
// character and the backslash itself.
func (s *scanner) lexString() token {
	start := s.pos
	q := s.from[s.pos]
	s.pos++ // ignore starting character
	var out []byte
	for s.pos < len(s.from) {
		c := s.from[s.pos]
		if c == q {
			s.pos++
			return token{kind: tokString, pos: start, text: string(out)}
		}
		if c == '\\' && s.pos+1 < len(s.from) {
			s.pos++
			c = s.from[s.pos]
		}
		out = append(out, c)
		s.pos++
	}
	return s.fail(start, "unterminated string literal")
}

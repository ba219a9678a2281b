/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package expr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType is the lexical class of a token
type TokenType int

const (
	// TokenEOF end of input
	TokenEOF TokenType = iota
	// TokenNumber integer or float literal
	TokenNumber
	// TokenString string literal, Value holds the decoded text
	TokenString
	// TokenName identifier or keyword
	TokenName
	// TokenOperator operator or delimiter
	TokenOperator
)

// Token is one lexical element of an expression
type Token struct {
	Type   TokenType
	Value  string
	Prefix string // string prefix such as r or f
	Pos    int
}

// keywords that form expressions
var exprKeywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"if": true, "else": true, "lambda": true, "for": true,
	"True": true, "False": true, "None": true,
}

// statement keywords map to the node kind reported when they appear
var statementKeywords = map[string]string{
	"import":   "Import",
	"from":     "ImportFrom",
	"def":      "FunctionDef",
	"class":    "ClassDef",
	"del":      "Delete",
	"global":   "Global",
	"nonlocal": "Nonlocal",
	"yield":    "Yield",
	"await":    "Await",
	"async":    "AsyncFunctionDef",
	"return":   "Return",
	"raise":    "Raise",
	"assert":   "Assert",
	"while":    "While",
	"with":     "With",
	"try":      "Try",
	"except":   "Try",
	"finally":  "Try",
	"pass":     "Pass",
	"break":    "Break",
	"continue": "Continue",
	"elif":     "If",
}

// operators ordered so that longer spellings match first
var operatorSpellings = []string{
	"**=", "//=", ">>=", "<<=",
	"**", "//", "==", "!=", "<=", ">=", "<<", ">>", ":=", "->",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"+", "-", "*", "/", "%", "<", ">", "&", "|", "^", "~", "=", "@",
	"(", ")", "[", "]", "{", "}", ",", ".", ":", ";",
}

var stringPrefixes = map[string]bool{
	"r": true, "u": true, "f": true, "b": true,
	"rb": true, "br": true, "fr": true, "rf": true,
}

type tokenizer struct {
	src    string
	pos    int
	tokens []Token
}

// tokenize breaks an expression into tokens
func tokenize(src string) ([]Token, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &SyntaxError{Source: src, Message: "empty expression"}
	}
	t := &tokenizer{src: src}
	for t.pos < len(src) {
		c := src[t.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\\':
			t.pos++
		case c == '#':
			for t.pos < len(src) && src[t.pos] != '\n' {
				t.pos++
			}
		case c == '\'' || c == '"':
			if err := t.readString(""); err != nil {
				return nil, err
			}
		case isDigit(c) || (c == '.' && t.pos+1 < len(src) && isDigit(src[t.pos+1])):
			t.readNumber()
		case c == '_' || c >= utf8.RuneSelf || isLetter(c):
			if err := t.readName(); err != nil {
				return nil, err
			}
		default:
			if !t.readOperator() {
				return nil, &SyntaxError{Source: src, Position: t.pos, Message: "unexpected character '" + string(c) + "'"}
			}
		}
	}
	t.tokens = append(t.tokens, Token{Type: TokenEOF, Pos: len(src)})
	return t.tokens, nil
}

func (t *tokenizer) readName() error {
	start := t.pos
	for t.pos < len(t.src) {
		r, size := utf8.DecodeRuneInString(t.src[t.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		t.pos += size
	}
	if t.pos == start {
		return &SyntaxError{Source: t.src, Position: start, Message: "invalid character"}
	}
	name := t.src[start:t.pos]
	if t.pos < len(t.src) && (t.src[t.pos] == '\'' || t.src[t.pos] == '"') && stringPrefixes[strings.ToLower(name)] {
		return t.readStringAt(start, strings.ToLower(name))
	}
	t.tokens = append(t.tokens, Token{Type: TokenName, Value: name, Pos: start})
	return nil
}

func (t *tokenizer) readString(prefix string) error {
	return t.readStringAt(t.pos, prefix)
}

func (t *tokenizer) readStringAt(start int, prefix string) error {
	quote := t.src[t.pos]
	raw := strings.Contains(prefix, "r")
	t.pos++
	var b strings.Builder
	for {
		if t.pos >= len(t.src) {
			return &SyntaxError{Source: t.src, Position: start, Message: "unterminated string literal"}
		}
		c := t.src[t.pos]
		if c == quote {
			t.pos++
			break
		}
		if c == '\\' && t.pos+1 < len(t.src) {
			next := t.src[t.pos+1]
			if raw {
				b.WriteByte(c)
				b.WriteByte(next)
				t.pos += 2
				continue
			}
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			case '\\', '\'', '"':
				b.WriteByte(next)
			default:
				b.WriteByte('\\')
				b.WriteByte(next)
			}
			t.pos += 2
			continue
		}
		b.WriteByte(c)
		t.pos++
	}
	t.tokens = append(t.tokens, Token{Type: TokenString, Value: b.String(), Prefix: prefix, Pos: start})
	return nil
}

func (t *tokenizer) readNumber() {
	start := t.pos
	src := t.src
	if src[t.pos] == '0' && t.pos+1 < len(src) && strings.ContainsRune("xXoObB", rune(src[t.pos+1])) {
		t.pos += 2
		for t.pos < len(src) && (isHexDigit(src[t.pos]) || src[t.pos] == '_') {
			t.pos++
		}
		t.tokens = append(t.tokens, Token{Type: TokenNumber, Value: src[start:t.pos], Pos: start})
		return
	}
	for t.pos < len(src) && (isDigit(src[t.pos]) || src[t.pos] == '_') {
		t.pos++
	}
	if t.pos < len(src) && src[t.pos] == '.' {
		t.pos++
		for t.pos < len(src) && (isDigit(src[t.pos]) || src[t.pos] == '_') {
			t.pos++
		}
	}
	if t.pos < len(src) && (src[t.pos] == 'e' || src[t.pos] == 'E') {
		save := t.pos
		t.pos++
		if t.pos < len(src) && (src[t.pos] == '+' || src[t.pos] == '-') {
			t.pos++
		}
		if t.pos < len(src) && isDigit(src[t.pos]) {
			for t.pos < len(src) && isDigit(src[t.pos]) {
				t.pos++
			}
		} else {
			t.pos = save
		}
	}
	t.tokens = append(t.tokens, Token{Type: TokenNumber, Value: src[start:t.pos], Pos: start})
}

func (t *tokenizer) readOperator() bool {
	for _, op := range operatorSpellings {
		if strings.HasPrefix(t.src[t.pos:], op) {
			t.tokens = append(t.tokens, Token{Type: TokenOperator, Value: op, Pos: t.pos})
			t.pos += len(op)
			return true
		}
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

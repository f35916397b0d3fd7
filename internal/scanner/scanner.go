package scanner

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/shapestone/shape-markedjson/internal/reader"
	"github.com/shapestone/shape-markedjson/pkg/mark"
)

// simpleKey remembers where a scalar or collection that might turn out to be
// a mapping key was queued.
type simpleKey struct {
	possible    bool
	tokenNumber int
	line        int
	mark        mark.Mark
}

// Scanner produces tokens lazily from a Reader.
//
// Whether a scalar inside a flow mapping is a key is only known once the
// following ':' is scanned. Candidates are remembered per flow level and a
// Key token is spliced into the queue in front of the candidate when the
// ':' arrives, so the queue stays a growable slice until tokens are taken.
// simpleKeys is a stack indexed by flow level; simpleKeysByToken finds the
// level of a candidate from its token number, so checking the queue head
// does not depend on the nesting depth. Spliced Key tokens are kept aside in
// keys, indexed by the number of the token they precede, and are not counted
// in tokensTaken.
type Scanner struct {
	rd *reader.Reader

	done      bool
	flowLevel int

	tokens      []Token
	tokensTaken int
	keys        map[int]Token

	allowSimpleKey    bool
	simpleKeys        []simpleKey
	simpleKeysByToken map[int]int
}

// New returns a Scanner reading from rd. The StreamStart token is queued
// immediately.
func New(rd *reader.Reader) *Scanner {
	s := &Scanner{
		rd:                rd,
		simpleKeys:        []simpleKey{{}},
		simpleKeysByToken: make(map[int]int),
		keys:              make(map[int]Token),
	}
	m := rd.Mark()
	s.tokens = append(s.tokens, Token{Kind: StreamStart, Start: m, End: m})
	return s
}

// Check reports whether the next token is one of kinds. With no kinds it
// reports whether any token is left.
func (s *Scanner) Check(kinds ...Kind) (bool, error) {
	if err := s.fill(); err != nil {
		return false, err
	}
	if len(s.tokens) == 0 {
		return false, nil
	}
	if len(kinds) == 0 {
		return true, nil
	}
	head := s.head()
	for _, k := range kinds {
		if head.Kind == k {
			return true, nil
		}
	}
	return false, nil
}

// Peek returns the next token without consuming it. ok is false once the
// stream is exhausted.
func (s *Scanner) Peek() (tok Token, ok bool, err error) {
	if err := s.fill(); err != nil {
		return Token{}, false, err
	}
	if len(s.tokens) == 0 {
		return Token{}, false, nil
	}
	return s.head(), true, nil
}

// Next consumes and returns the next token.
func (s *Scanner) Next() (tok Token, ok bool, err error) {
	if err := s.fill(); err != nil {
		return Token{}, false, err
	}
	if len(s.tokens) == 0 {
		return Token{}, false, nil
	}
	if key, ok := s.keys[s.tokensTaken]; ok {
		delete(s.keys, s.tokensTaken)
		return key, true, nil
	}
	tok = s.tokens[0]
	s.tokens = s.tokens[1:]
	s.tokensTaken++
	return tok, true, nil
}

// head returns the next token, which is a spliced Key when one precedes the
// first queued token.
func (s *Scanner) head() Token {
	if key, ok := s.keys[s.tokensTaken]; ok {
		return key
	}
	return s.tokens[0]
}

func (s *Scanner) fill() error {
	for s.needMoreTokens() {
		if err := s.fetchMoreTokens(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) needMoreTokens() bool {
	if s.done {
		return false
	}
	if len(s.tokens) == 0 {
		return true
	}
	// The head of the queue may still become a key.
	level, ok := s.simpleKeysByToken[s.tokensTaken]
	return ok && s.simpleKeyValid(level)
}

func (s *Scanner) fetchMoreTokens() error {
	s.scanToNextToken()

	ch := s.rd.Peek(0)
	switch {
	case ch == reader.End:
		s.fetchStreamEnd()
		return nil
	case ch == '[':
		s.fetchFlowCollectionStart(FlowSequenceStart)
		return nil
	case ch == '{':
		s.fetchFlowCollectionStart(FlowMappingStart)
		return nil
	case ch == ']':
		s.fetchFlowCollectionEnd(FlowSequenceEnd)
		return nil
	case ch == '}':
		s.fetchFlowCollectionEnd(FlowMappingEnd)
		return nil
	case ch == ',':
		s.fetchFlowEntry()
		return nil
	case ch == ':' && s.flowLevel > 0:
		s.fetchValue()
		return nil
	case ch == '"':
		return s.fetchDouble()
	case strings.ContainsRune("0123456789-ntf", ch):
		s.fetchPlain()
		return nil
	}

	m := s.rd.Mark()
	return mark.NewError(mark.KindScanner,
		"while scanning for the next token", nil,
		fmt.Sprintf("found character %q that cannot start any token", ch), &m)
}

// Simple keys.

// simpleKeyValid reports whether the candidate on level is still possible.
// A simple key never spans lines, so a candidate from an earlier line is
// dropped.
func (s *Scanner) simpleKeyValid(level int) bool {
	key := &s.simpleKeys[level]
	if !key.possible {
		return false
	}
	if key.line != s.rd.Line() {
		s.dropSimpleKey(key)
		return false
	}
	return true
}

func (s *Scanner) dropSimpleKey(key *simpleKey) {
	if key.possible {
		delete(s.simpleKeysByToken, key.tokenNumber)
		key.possible = false
	}
}

func (s *Scanner) savePossibleSimpleKey() {
	if !s.allowSimpleKey {
		return
	}
	s.removePossibleSimpleKey()
	key := simpleKey{
		possible:    true,
		tokenNumber: s.tokensTaken + len(s.tokens),
		line:        s.rd.Line(),
		mark:        s.rd.Mark(),
	}
	s.simpleKeys[s.flowLevel] = key
	s.simpleKeysByToken[key.tokenNumber] = s.flowLevel
}

func (s *Scanner) removePossibleSimpleKey() {
	s.dropSimpleKey(&s.simpleKeys[s.flowLevel])
}

// Fetchers.

func (s *Scanner) fetchStreamEnd() {
	s.removePossibleSimpleKey()
	s.allowSimpleKey = false
	s.simpleKeys = s.simpleKeys[:1]
	s.simpleKeysByToken = make(map[int]int)

	m := s.rd.Mark()
	s.tokens = append(s.tokens, Token{Kind: StreamEnd, Start: m, End: m})
	s.done = true
}

func (s *Scanner) fetchFlowCollectionStart(kind Kind) {
	// '[' and '{' may start a simple key.
	s.savePossibleSimpleKey()
	s.flowLevel++
	s.simpleKeys = append(s.simpleKeys, simpleKey{})
	s.allowSimpleKey = true
	s.addIndicator(kind)
}

func (s *Scanner) fetchFlowCollectionEnd(kind Kind) {
	s.removePossibleSimpleKey()
	if s.flowLevel > 0 {
		s.flowLevel--
		s.simpleKeys = s.simpleKeys[:s.flowLevel+1]
	}
	s.allowSimpleKey = false
	s.addIndicator(kind)
}

func (s *Scanner) fetchFlowEntry() {
	s.allowSimpleKey = true
	s.removePossibleSimpleKey()
	s.addIndicator(FlowEntry)
}

// fetchValue queues a Value token and, when a simple-key candidate exists on
// this flow level, splices a Key token in front of it.
func (s *Scanner) fetchValue() {
	if s.simpleKeyValid(s.flowLevel) {
		key := s.simpleKeys[s.flowLevel]
		s.removePossibleSimpleKey()
		s.keys[key.tokenNumber] = Token{Kind: Key, Start: key.mark, End: key.mark}
		// Two simple keys cannot follow each other.
		s.allowSimpleKey = false
	}
	s.addIndicator(Value)
}

func (s *Scanner) addIndicator(kind Kind) {
	start := s.rd.Mark()
	s.rd.Forward(1)
	s.tokens = append(s.tokens, Token{Kind: kind, Start: start, End: s.rd.Mark()})
}

func (s *Scanner) fetchDouble() error {
	s.savePossibleSimpleKey()
	s.allowSimpleKey = false
	tok, err := s.scanDoubleQuoted()
	if err != nil {
		return err
	}
	s.tokens = append(s.tokens, tok)
	return nil
}

func (s *Scanner) fetchPlain() {
	s.savePossibleSimpleKey()
	s.allowSimpleKey = false
	s.tokens = append(s.tokens, s.scanPlain())
}

// Scanners.

func (s *Scanner) scanToNextToken() {
	s.rd.TakeWhile(isBlank)
}

func isBlank(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

var escapeReplacements = map[rune]rune{
	'b':  '\b',
	't':  '\t',
	'n':  '\n',
	'f':  '\f',
	'r':  '\r',
	'"':  '"',
	'\\': '\\',
}

// unicodeEscapeLength is the number of hex digits following \u.
const unicodeEscapeLength = 4

func (s *Scanner) scanDoubleQuoted() (Token, error) {
	var b strings.Builder
	start := s.rd.Mark()
	s.rd.Forward(1)
	if err := s.scanNonSpaces(&b, start); err != nil {
		return Token{}, err
	}
	for s.rd.Peek(0) != '"' {
		if err := s.scanSpaces(&b, start); err != nil {
			return Token{}, err
		}
		if err := s.scanNonSpaces(&b, start); err != nil {
			return Token{}, err
		}
	}
	s.rd.Forward(1)
	return Token{
		Kind:  Scalar,
		Start: start,
		End:   s.rd.Mark(),
		Value: b.String(),
		Style: '"',
	}, nil
}

func (s *Scanner) scanNonSpaces(b *strings.Builder, start mark.Mark) error {
	for {
		if length := s.rd.QuotedRun(); length > 0 {
			b.WriteString(s.rd.Take(length))
		}
		if s.rd.Peek(0) != '\\' {
			return nil
		}
		s.rd.Forward(1)
		ch := s.rd.Peek(0)
		if r, ok := escapeReplacements[ch]; ok {
			b.WriteRune(r)
			s.rd.Forward(1)
			continue
		}
		if ch != 'u' {
			m := s.rd.Mark()
			return mark.NewError(mark.KindScanner,
				"while scanning a double-quoted scalar", &start,
				fmt.Sprintf("found unknown escape character %q", ch), &m)
		}
		s.rd.Forward(1)
		r, err := s.scanUnicodeEscape(start)
		if err != nil {
			return err
		}
		b.WriteRune(r)
	}
}

// scanUnicodeEscape reads the hex digits of a \u escape. A high surrogate
// directly followed by a \u low surrogate is combined into one character.
func (s *Scanner) scanUnicodeEscape(start mark.Mark) (rune, error) {
	code, err := s.scanHex(start)
	if err != nil {
		return 0, err
	}
	r := rune(code)
	if !utf16.IsSurrogate(r) {
		return r, nil
	}
	if next := s.rd.Prefix(2 + unicodeEscapeLength); strings.HasPrefix(next, `\u`) && isHex(next[2:]) {
		low, _ := strconv.ParseUint(next[2:], 16, 32)
		if pair := utf16.DecodeRune(r, rune(low)); pair != utf8.RuneError {
			s.rd.Forward(2 + unicodeEscapeLength)
			return pair, nil
		}
	}
	return r, nil
}

func (s *Scanner) scanHex(start mark.Mark) (uint64, error) {
	digits := []rune(s.rd.Prefix(unicodeEscapeLength))
	for k := 0; k < unicodeEscapeLength; k++ {
		found := reader.End
		if k < len(digits) {
			found = digits[k]
		}
		if !isHexDigit(found) {
			m := s.rd.Mark()
			return 0, mark.NewError(mark.KindScanner,
				"while scanning a double-quoted scalar", &start,
				fmt.Sprintf("expected escape sequence of %d hexadecimal numbers, but found %q",
					unicodeEscapeLength, found), &m)
		}
	}
	code, _ := strconv.ParseUint(s.rd.Take(unicodeEscapeLength), 16, 32)
	return code, nil
}

func (s *Scanner) scanSpaces(b *strings.Builder, start mark.Mark) error {
	whitespace := s.rd.TakeWhile(func(r rune) bool { return r == ' ' || r == '\t' })
	switch s.rd.Peek(0) {
	case reader.End:
		m := s.rd.Mark()
		return mark.NewError(mark.KindScanner,
			"while scanning a quoted scalar", &start,
			"found unexpected end of stream", &m)
	case '\n':
		m := s.rd.Mark()
		return mark.NewError(mark.KindScanner,
			"while scanning a quoted scalar", &start,
			"found unexpected line end", &m)
	}
	b.WriteString(whitespace)
	return nil
}

// plainChars are the characters of number, bool and null lexemes.
const plainChars = "eE.0123456789nul-tr+fas"

func (s *Scanner) scanPlain() Token {
	start := s.rd.Mark()
	value := s.rd.TakeWhile(isPlainChar)
	return Token{
		Kind:  Scalar,
		Start: start,
		End:   s.rd.Mark(),
		Value: value,
		Plain: true,
	}
}

func isPlainChar(r rune) bool {
	return r != reader.End && strings.ContainsRune(plainChars, r)
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isHex(s string) bool {
	if len(s) != unicodeEscapeLength {
		return false
	}
	for _, r := range s {
		if !isHexDigit(r) {
			return false
		}
	}
	return true
}

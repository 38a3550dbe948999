package lexer

import (
	"strings"
	"unicode/utf8"
)

// Lexer scans a workout script into tokens.
type Lexer struct {
	src    string
	start  int // start offset of current token
	cur    int // current offset
	line   int // 1-based
	col    int // 1-based, in runes
	tokens []Token

	startLine int
	startCol  int
}

func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Tokenize is shorthand for New(src).Scan().
func Tokenize(src string) []Token {
	return New(src).Scan()
}

// Scan tokenizes the whole source. It never fails: characters no rule
// accepts become Illegal tokens and the parser reports them with their line.
// The final token is always EOF.
func (l *Lexer) Scan() []Token {
	for !l.isAtEnd() {
		l.start = l.cur
		l.startLine, l.startCol = l.line, l.col
		l.scanToken()
	}
	l.start = l.cur
	l.startLine, l.startCol = l.line, l.col
	l.emit(EOF)
	return l.tokens
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peekAt(n int) (byte, bool) {
	if l.cur+n >= len(l.src) {
		return 0, false
	}
	return l.src[l.cur+n], true
}

// advanceTo moves the cursor to offset end, tracking lines and columns.
func (l *Lexer) advanceTo(end int) {
	for l.cur < end {
		r, size := utf8.DecodeRuneInString(l.src[l.cur:])
		l.cur += size
		if r == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
}

func (l *Lexer) emit(tt TokenType) {
	l.tokens = append(l.tokens, Token{
		Type:   tt,
		Lexeme: l.src[l.start:l.cur],
		Line:   l.startLine,
		Col:    l.startCol,
		EndCol: l.startCol + utf8.RuneCountInString(l.src[l.start:l.cur]),
		Offset: l.start,
		End:    l.cur,
	})
}

func (l *Lexer) scanToken() {
	rest := l.src[l.cur:]

	// Return, then skipped whitespace.
	if ws := whitespaceRun(rest); ws > 0 {
		if nl := strings.LastIndexByte(rest[:ws], '\n'); nl >= 0 {
			l.advanceTo(l.cur + nl + 1)
			l.emit(Return)
			return
		}
		l.advanceTo(l.cur + ws)
		return
	}

	if tt, ok := singles[rest[0]]; ok {
		l.advanceTo(l.cur + 1)
		l.emit(tt)
		return
	}

	if n := matchTimer(rest); n > 0 {
		l.advanceTo(l.cur + n)
		l.emit(Timer)
		return
	}

	switch rest[0] {
	case ':':
		l.advanceTo(l.cur + 1)
		l.emit(Colon)
		return
	case '^':
		l.advanceTo(l.cur + 1)
		l.emit(Up)
		return
	case '-':
		l.advanceTo(l.cur + 1)
		l.emit(Minus)
		return
	case '+':
		l.advanceTo(l.cur + 1)
		l.emit(Plus)
		return
	}

	if n := matchUnit(rest, weightUnits); n > 0 {
		l.advanceTo(l.cur + n)
		l.emit(Weight)
		return
	}
	if n := matchUnit(rest, distanceUnits); n > 0 {
		l.advanceTo(l.cur + n)
		l.emit(Distance)
		return
	}

	if rest[0] == '?' {
		l.advanceTo(l.cur + 1)
		l.emit(Question)
		return
	}

	if n := spanOf(rest, isAllowedSymbol); n > 0 {
		l.advanceTo(l.cur + n)
		l.emit(AllowedSymbol)
		return
	}

	if isAlpha(rest[0]) {
		l.advanceTo(l.cur + 1 + spanOf(rest[1:], isWordChar))
		l.emit(Identifier)
		return
	}

	if n := matchNumber(rest); n > 0 {
		l.advanceTo(l.cur + n)
		l.emit(Number)
		return
	}

	_, size := utf8.DecodeRuneInString(rest)
	l.advanceTo(l.cur + size)
	l.emit(Illegal)
}

var singles = map[byte]TokenType{
	'[': ActionOpen,
	']': ActionClose,
	'(': GroupOpen,
	')': GroupClose,
	',': Comma,
	'@': AtSign,
}

// Alternatives are tried in order, each needing a word boundary after it.
var (
	weightUnits   = []string{"kg", "lb", "bw"}
	distanceUnits = []string{"m", "ft", "mile", "km", "miles"}
)

func matchUnit(s string, units []string) int {
	for _, u := range units {
		if len(s) < len(u) || !strings.EqualFold(s[:len(u)], u) {
			continue
		}
		if len(s) == len(u) || !isWordChar(s[len(u)]) {
			return len(u)
		}
	}
	return 0
}

// matchTimer matches ":SS" or one to three "N:" groups followed by "N".
func matchTimer(s string) int {
	if s[0] == ':' {
		if d := spanOf(s[1:], isDigit); d > 0 {
			return 1 + d
		}
		return 0
	}

	n := spanOf(s, isDigit)
	if n == 0 {
		return 0
	}
	colons := 0
	for colons < 3 && n < len(s) && s[n] == ':' {
		d := spanOf(s[n+1:], isDigit)
		if d == 0 {
			break
		}
		n += 1 + d
		colons++
	}
	if colons == 0 {
		return 0
	}
	return n
}

// matchNumber matches \d*\.?\d+.
func matchNumber(s string) int {
	n := spanOf(s, isDigit)
	if n < len(s) && s[n] == '.' {
		if frac := spanOf(s[n+1:], isDigit); frac > 0 {
			return n + 1 + frac
		}
	}
	return n
}

func whitespaceRun(s string) int {
	return spanOf(s, func(b byte) bool {
		switch b {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			return true
		}
		return false
	})
}

func spanOf(s string, pred func(byte) bool) int {
	n := 0
	for n < len(s) && pred(s[n]) {
		n++
	}
	return n
}

func isDigit(b byte) bool    { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool    { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isWordChar(b byte) bool { return isAlpha(b) || isDigit(b) || b == '_' }

func isAllowedSymbol(b byte) bool {
	return strings.IndexByte(`\/.,@!$%^*=&`, b) >= 0
}

// Package lexer splits workout script text into tokens.
//
// Matching is ordered: at each position the first rule that matches wins,
// not the longest. Whitespace is skipped except when it ends in a newline,
// which produces a single Return token covering the whole run.
package lexer

import "github.com/roach88/wodwiki/internal/ir"

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	Illegal

	// Structure
	Return      // optional whitespace then "\n"
	ActionOpen  // "["
	ActionClose // "]"
	GroupOpen   // "("
	GroupClose  // ")"
	Comma       // ","
	AtSign      // "@"
	Timer       // ":10", "1:00", "1:02:03:04"
	Colon       // ":" not part of a timer
	Up          // "^"
	Minus       // "-"
	Plus        // "+"

	// Units
	Weight   // kg, lb, bw
	Distance // m, ft, mile, km, miles

	// Words and numbers
	Question      // "?"
	AllowedSymbol // run of \ / . , @ ! $ % ^ * = &
	Identifier
	Number
)

var tokenNames = [...]string{
	EOF:           "EOF",
	Illegal:       "Illegal",
	Return:        "Return",
	ActionOpen:    "ActionOpen",
	ActionClose:   "ActionClose",
	GroupOpen:     "GroupOpen",
	GroupClose:    "GroupClose",
	Comma:         "Comma",
	AtSign:        "AtSign",
	Timer:         "Timer",
	Colon:         "Colon",
	Up:            "Up",
	Minus:         "Minus",
	Plus:          "Plus",
	Weight:        "Weight",
	Distance:      "Distance",
	Question:      "Question",
	AllowedSymbol: "AllowedSymbol",
	Identifier:    "Identifier",
	Number:        "Number",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return "TokenType(?)"
}

// Token is a lexical token.
// Line and Col are 1-based; Offset and End are byte offsets, End exclusive.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Col    int
	EndCol int
	Offset int
	End    int
}

// Meta converts the token position into source metadata.
func (t Token) Meta() ir.SourceMeta {
	return ir.SourceMeta{
		Line:        t.Line,
		ColumnStart: t.Col,
		ColumnEnd:   t.EndCol,
		StartOffset: t.Offset,
		EndOffset:   t.End,
	}
}

// Adjacent reports whether next starts exactly where t ends.
func (t Token) Adjacent(next Token) bool {
	return t.End == next.Offset
}

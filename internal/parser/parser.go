package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/wodwiki/internal/ir"
	"github.com/roach88/wodwiki/internal/lexer"
)

// SyntaxError is a statement that could not be parsed.
type SyntaxError struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Offset  int    `json:"offset"`
	Message string `json:"message"`
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
}

// Parser walks a token stream one line at a time.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// Parse builds one Statement per non-blank line. Lines that fail are
// reported and skipped; the remaining statements are still returned.
func Parse(tokens []lexer.Token) ([]Statement, []*SyntaxError) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.EOF {
		tokens = append(tokens, lexer.Token{Type: lexer.EOF})
	}
	p := &Parser{tokens: tokens}

	var (
		stmts []Statement
		errs  []*SyntaxError
	)
	for !p.at(lexer.EOF) {
		if p.at(lexer.Return) {
			p.advance()
			continue
		}
		stmt, err := p.statement()
		if err != nil {
			errs = append(errs, err)
			p.skipLine()
			continue
		}
		if !stmt.Empty() {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, errs
}

// ParseSource tokenizes and parses src.
func ParseSource(src string) ([]Statement, []*SyntaxError) {
	return Parse(lexer.Tokenize(src))
}

func (p *Parser) peek() lexer.Token { return p.tokens[p.pos] }

func (p *Parser) at(tt lexer.TokenType) bool { return p.peek().Type == tt }

func (p *Parser) atLineEnd() bool { return p.at(lexer.Return) || p.at(lexer.EOF) }

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Type != lexer.EOF {
		p.pos++
	}
	return tok
}

// skipLine discards the rest of the current line including its Return.
func (p *Parser) skipLine() {
	for !p.atLineEnd() {
		p.advance()
	}
	if p.at(lexer.Return) {
		p.advance()
	}
}

func (p *Parser) errorAt(tok lexer.Token, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Line:    tok.Line,
		Column:  tok.Col,
		Offset:  tok.Offset,
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *Parser) unexpected(tok lexer.Token) *SyntaxError {
	if tok.Type == lexer.Return || tok.Type == lexer.EOF {
		return p.errorAt(tok, "unexpected end of line")
	}
	return p.errorAt(tok, "unexpected %s %q", tok.Type, tok.Lexeme)
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, *SyntaxError) {
	if !p.at(tt) {
		return lexer.Token{}, p.unexpected(p.peek())
	}
	return p.advance(), nil
}

// statement := lap? rounds? trend? item*
func (p *Parser) statement() (Statement, *SyntaxError) {
	stmt := Statement{Line: p.peek().Line}

	switch {
	case p.at(lexer.Plus):
		stmt.Lap = &LapMarker{Kind: ir.LapCompose, Meta: p.advance().Meta()}
	case p.at(lexer.Minus):
		stmt.Lap = &LapMarker{Kind: ir.LapRound, Meta: p.advance().Meta()}
	}

	if p.at(lexer.GroupOpen) {
		rounds, err := p.rounds()
		if err != nil {
			return stmt, err
		}
		stmt.Rounds = rounds
	}

	if p.at(lexer.Up) {
		stmt.Trend = &Trend{Meta: p.advance().Meta()}
	}

	for !p.atLineEnd() {
		item, err := p.item()
		if err != nil {
			return stmt, err
		}
		stmt.Items = append(stmt.Items, item)
	}
	if p.at(lexer.Return) {
		p.advance()
	}
	return stmt, nil
}

// rounds := '(' Number ((',' | '-') Number)* ')'
func (p *Parser) rounds() (*RoundsGroup, *SyntaxError) {
	open := p.advance()
	group := &RoundsGroup{}

	for {
		tok, err := p.expect(lexer.Number)
		if err != nil {
			return nil, err
		}
		n, convErr := strconv.Atoi(tok.Lexeme)
		if convErr != nil || n < 1 {
			return nil, p.errorAt(tok, "round count %q must be a positive whole number", tok.Lexeme)
		}
		group.Counts = append(group.Counts, n)

		if p.at(lexer.Comma) || p.at(lexer.Minus) {
			p.advance()
			continue
		}
		break
	}

	closing, err := p.expect(lexer.GroupClose)
	if err != nil {
		return nil, err
	}
	group.Meta = ir.CombineMeta(open.Meta(), closing.Meta())
	return group, nil
}

func (p *Parser) item() (Item, *SyntaxError) {
	tok := p.peek()
	switch tok.Type {
	case lexer.Timer:
		p.advance()
		if _, err := ir.ParseTimer(tok.Lexeme); err != nil {
			return nil, p.errorAt(tok, "invalid timer %q", tok.Lexeme)
		}
		return Timer{Image: tok.Lexeme, Meta: tok.Meta()}, nil

	case lexer.ActionOpen:
		return p.action()

	case lexer.AtSign:
		at := p.advance()
		amount := ""
		if p.at(lexer.Number) {
			amount = p.advance().Lexeme
		}
		unit, err := p.expect(lexer.Weight)
		if err != nil {
			return nil, err
		}
		return Resistance{Amount: amount, Unit: unit.Lexeme, Meta: ir.CombineMeta(at.Meta(), unit.Meta())}, nil

	case lexer.Number:
		num := p.advance()
		switch {
		case p.at(lexer.Weight):
			unit := p.advance()
			return Resistance{Amount: num.Lexeme, Unit: unit.Lexeme, Meta: ir.CombineMeta(num.Meta(), unit.Meta())}, nil
		case p.at(lexer.Distance):
			unit := p.advance()
			return Distance{Amount: num.Lexeme, Unit: unit.Lexeme, Meta: ir.CombineMeta(num.Meta(), unit.Meta())}, nil
		}
		count, err := strconv.Atoi(num.Lexeme)
		if err != nil {
			return nil, p.errorAt(num, "repetitions %q must be a whole number", num.Lexeme)
		}
		return Reps{Count: count, Meta: num.Meta()}, nil

	case lexer.Weight:
		p.advance()
		return Resistance{Unit: tok.Lexeme, Meta: tok.Meta()}, nil

	case lexer.Distance:
		p.advance()
		return Distance{Unit: tok.Lexeme, Meta: tok.Meta()}, nil

	case lexer.Identifier:
		return p.effort(), nil
	}
	return nil, p.unexpected(tok)
}

// action := '[' (Identifier | Number)+ ']'
func (p *Parser) action() (Item, *SyntaxError) {
	open := p.advance()
	var words []string
	for !p.at(lexer.ActionClose) {
		tok := p.peek()
		switch tok.Type {
		case lexer.Identifier, lexer.Number:
			words = append(words, p.advance().Lexeme)
		case lexer.Return, lexer.EOF:
			return nil, p.errorAt(open, "unterminated action")
		default:
			return nil, p.unexpected(tok)
		}
	}
	closing := p.advance()
	if len(words) == 0 {
		return nil, p.errorAt(open, "empty action")
	}
	return ActionPhrase{Name: strings.Join(words, " "), Meta: ir.CombineMeta(open.Meta(), closing.Meta())}, nil
}

// effort := Identifier (Identifier | '+' | '-' | AllowedSymbol)*
// Tokens that touch in the source are joined without a space.
func (p *Parser) effort() Item {
	first := p.advance()
	var b strings.Builder
	b.WriteString(first.Lexeme)

	last := first
	for {
		tok := p.peek()
		switch tok.Type {
		case lexer.Identifier, lexer.Plus, lexer.Minus, lexer.AllowedSymbol:
		default:
			return Effort{Text: b.String(), Meta: ir.CombineMeta(first.Meta(), last.Meta())}
		}
		p.advance()
		if !last.Adjacent(tok) {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Lexeme)
		last = tok
	}
}

// Package parser implements a recursive-descent parser with Pratt-style
// precedence climbing for binary operators, per spec.md §4.3.
package parser

import (
	"fmt"

	"github.com/ember-lang/ember/internal/ast"
	"github.com/ember-lang/ember/internal/diag"
	"github.com/ember-lang/ember/internal/token"
)

// Parser consumes a flat token list and builds an ast.Program.
type Parser struct {
	file   string
	toks   []token.Token
	pos    int
}

func New(file string, toks []token.Token) *Parser {
	return &Parser{file: file, toks: toks}
}

func (p *Parser) current() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[idx]
}

func (p *Parser) advance() token.Token {
	t := p.current()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// advanceIfMatch consumes and returns true if the current token has kind k.
func (p *Parser) advanceIfMatch(k token.Kind) bool {
	if p.current().Kind == k {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) errorf(code string, format string, args ...any) error {
	t := p.current()
	return diag.New(diag.ParseError, code, p.file, t.Line, t.Column, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(k token.Kind, code string) (token.Token, error) {
	if p.current().Kind != k {
		return token.Token{}, p.errorf(code, "expected %s, got %s", k, p.current().Kind)
	}
	return p.advance(), nil
}

// skipStatementTerminator accepts ';' or EndOfLine or EOF, consuming any
// run of them (blank lines between statements are not meaningful).
func (p *Parser) skipStatementTerminator() error {
	if p.current().Kind != token.SEMI && p.current().Kind != token.EOL && p.current().Kind != token.EOF {
		return p.errorf("P001", "expected statement terminator, got %s", p.current().Kind)
	}
	for p.current().Kind == token.SEMI || p.current().Kind == token.EOL {
		p.advance()
	}
	return nil
}

// skipBlankLines consumes any leading ';'/EOL tokens without requiring
// at least one, used between statements inside a block/program.
func (p *Parser) skipBlankLines() {
	for p.current().Kind == token.SEMI || p.current().Kind == token.EOL {
		p.advance()
	}
}

// Parse builds the full program.
func Parse(file string, toks []token.Token) (*ast.Program, error) {
	p := New(file, toks)
	prog := &ast.Program{}
	p.skipBlankLines()
	for p.current().Kind != token.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
		p.skipBlankLines()
	}
	return prog, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.current().Kind {
	case token.VAR:
		return p.parseVarDecl()
	case token.FUNC:
		return p.parseFuncDef()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.RETURN:
		return p.parseReturn()
	case token.BREAK:
		t := p.advance()
		if err := p.skipStatementTerminator(); err != nil {
			return nil, err
		}
		return &ast.BreakStmt{Token: t}, nil
	case token.CONTINUE:
		t := p.advance()
		if err := p.skipStatementTerminator(); err != nil {
			return nil, err
		}
		return &ast.ContinueStmt{Token: t}, nil
	case token.IMPORT:
		return p.parseImport()
	default:
		return p.parseExprOrAssignStatement()
	}
}

func (p *Parser) parseVarDecl() (ast.Statement, error) {
	t := p.advance() // 'var'
	nameTok, err := p.expect(token.IDENT, "P002")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN, "P003"); err != nil {
		return nil, err
	}
	val, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.skipStatementTerminator(); err != nil {
		return nil, err
	}
	return &ast.VarDecl{Token: t, Name: nameTok.Literal, Value: val}, nil
}

func (p *Parser) parseExprOrAssignStatement() (ast.Statement, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.current().Kind == token.ASSIGN {
		eqTok := p.advance()
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.skipStatementTerminator(); err != nil {
			return nil, err
		}
		switch target := expr.(type) {
		case *ast.Identifier:
			return &ast.Assign{Token: eqTok, Target: target, Value: val}, nil
		case *ast.GetMember:
			return &ast.SetMember{Token: eqTok, X: target.X, Name: target.Name, Value: val}, nil
		default:
			return nil, diag.New(diag.ParseError, "P004", p.file, eqTok.Line, eqTok.Column, "invalid assignment target")
		}
	}
	if err := p.skipStatementTerminator(); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Token: expr.Tok(), X: expr}, nil
}

func (p *Parser) parseFuncDef() (ast.Statement, error) {
	t := p.advance() // 'func'
	nameTok, err := p.expect(token.IDENT, "P005")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN, "P006"); err != nil {
		return nil, err
	}
	var params []string
	for p.current().Kind != token.RPAREN {
		pt, err := p.expect(token.IDENT, "P007")
		if err != nil {
			return nil, err
		}
		params = append(params, pt.Literal)
		if !p.advanceIfMatch(token.COMMA) {
			break
		}
	}
	if _, err := p.expect(token.RPAREN, "P008"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDef{Token: t, Name: nameTok.Literal, Params: params, Body: body}, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	brace, err := p.expect(token.LBRACE, "P009")
	if err != nil {
		return nil, err
	}
	block := &ast.Block{Token: brace}
	p.skipBlankLines()
	for p.current().Kind != token.RBRACE {
		if p.current().Kind == token.EOF {
			return nil, diag.New(diag.ParseError, "P010", p.file, brace.Line, brace.Column, "unterminated block, missing '}'")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
		p.skipBlankLines()
	}
	p.advance() // '}'
	return block, nil
}

func (p *Parser) parseIf() (ast.Statement, error) {
	t := p.advance() // 'if'
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Token: t, Cond: cond, Then: thenBlock}
	p.skipBlankLines()
	if p.current().Kind == token.ELSE {
		p.advance()
		if p.current().Kind == token.IF {
			elseIf, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			stmt.ElseIf = elseIf.(*ast.IfStmt)
		} else {
			elseBlock, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseBlock
		}
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Statement, error) {
	t := p.advance() // 'while'
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Token: t, Cond: cond, Body: body}, nil
}

func (p *Parser) parseReturn() (ast.Statement, error) {
	t := p.advance() // 'return'
	if p.current().Kind == token.SEMI || p.current().Kind == token.EOL || p.current().Kind == token.EOF {
		if err := p.skipStatementTerminator(); err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Token: t}, nil
	}
	val, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.skipStatementTerminator(); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Token: t, Value: val}, nil
}

func (p *Parser) parseImport() (ast.Statement, error) {
	t := p.advance() // 'import'
	nameTok, err := p.expect(token.IDENT, "P011")
	if err != nil {
		return nil, err
	}
	if err := p.skipStatementTerminator(); err != nil {
		return nil, err
	}
	return &ast.ImportStmt{Token: t, Name: nameTok.Literal}, nil
}

// ---- expressions ----

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseLogicalOr()
}

func (p *Parser) parseLogicalOr() (ast.Expression, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == token.OR {
		t := p.advance()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Token: t, Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseLogicalAnd() (ast.Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == token.AND {
		t := p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Token: t, Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	for {
		switch p.current().Kind {
		case token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE, token.IN:
			t := p.advance()
			right, err := p.parseAddSub()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryExpr{Token: t, Op: t.Kind.String(), Left: left, Right: right}
		case token.NOT:
			if p.peekAt(1).Kind != token.IN {
				return left, nil
			}
			t := p.advance()
			p.advance() // 'in'
			right, err := p.parseAddSub()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryExpr{Token: t, Op: "not in", Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseAddSub() (ast.Expression, error) {
	left, err := p.parseMulDivMod()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == token.PLUS || p.current().Kind == token.MINUS {
		t := p.advance()
		right, err := p.parseMulDivMod()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Token: t, Op: t.Kind.String(), Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMulDivMod() (ast.Expression, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for p.current().Kind == token.STAR || p.current().Kind == token.SLASH || p.current().Kind == token.PERCENT {
		t := p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Token: t, Op: t.Kind.String(), Left: left, Right: right}
	}
	return left, nil
}

// parsePower is right-associative: a ^ b ^ c == a ^ (b ^ c).
func (p *Parser) parsePower() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.current().Kind == token.CARET {
		t := p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Token: t, Op: "^", Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	switch p.current().Kind {
	case token.NOT, token.MINUS, token.BANG:
		t := p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Token: t, Op: t.Kind.String(), X: x}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (ast.Expression, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.current().Kind {
		case token.DOT:
			t := p.advance()
			nameTok, err := p.expect(token.IDENT, "P012")
			if err != nil {
				return nil, err
			}
			x = &ast.GetMember{Token: t, X: x, Name: nameTok.Literal}
		case token.LBRACKET:
			t := p.advance()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET, "P013"); err != nil {
				return nil, err
			}
			x = &ast.IndexExpr{Token: t, X: x, Index: idx}
		case token.LPAREN:
			t := p.advance()
			args, err := p.parseArgs(token.RPAREN)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RPAREN, "P014"); err != nil {
				return nil, err
			}
			x = &ast.CallExpr{Token: t, Callee: x, Args: args}
		default:
			return x, nil
		}
	}
}

func (p *Parser) parseArgs(end token.Kind) ([]ast.Expression, error) {
	var args []ast.Expression
	for p.current().Kind != end {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.advanceIfMatch(token.COMMA) {
			break
		}
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	t := p.current()
	switch t.Kind {
	case token.NUMBER:
		p.advance()
		return &ast.NumberLit{Token: t, Text: t.Literal}, nil
	case token.STRING:
		p.advance()
		return &ast.StringLit{Token: t, Value: t.Literal}, nil
	case token.NULL:
		p.advance()
		return &ast.NullLit{Token: t}, nil
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{Token: t, Value: true}, nil
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{Token: t, Value: false}, nil
	case token.IDENT:
		p.advance()
		return &ast.Identifier{Token: t, Name: t.Literal}, nil
	case token.LPAREN:
		p.advance()
		x, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN, "P015"); err != nil {
			return nil, err
		}
		return x, nil
	case token.LBRACKET:
		p.advance()
		elems, err := p.parseArgs(token.RBRACKET)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACKET, "P016"); err != nil {
			return nil, err
		}
		return &ast.ListLit{Token: t, Elements: elems}, nil
	case token.DICT:
		p.advance()
		return p.parseDictLit(t)
	case token.LBRACE:
		return p.parseDictLit(t)
	case token.PIPE:
		return p.parseLambda(t)
	default:
		return nil, p.errorf("P017", "unexpected token %s in expression", t.Kind)
	}
}

// parseDictLit parses `{ (IDENT '=' expression (',' | ';'))* }`. tok is
// the leading token (either the '{' itself or the preceding 'dict'
// keyword, which is a non-semantic alternate spelling — see DESIGN.md).
func (p *Parser) parseDictLit(tok token.Token) (ast.Expression, error) {
	if _, err := p.expect(token.LBRACE, "P018"); err != nil {
		return nil, err
	}
	lit := &ast.DictLit{Token: tok}
	p.skipBlankLines()
	for p.current().Kind != token.RBRACE {
		keyTok, err := p.expect(token.IDENT, "P019")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.ASSIGN, "P020"); err != nil {
			return nil, err
		}
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		lit.Entries = append(lit.Entries, ast.DictEntry{Key: keyTok.Literal, Value: val})
		if p.current().Kind == token.COMMA || p.current().Kind == token.SEMI {
			p.advance()
		}
		p.skipBlankLines()
	}
	p.advance() // '}'
	return lit, nil
}

// parseLambda parses `'|' params '|' expression`.
func (p *Parser) parseLambda(tok token.Token) (ast.Expression, error) {
	p.advance() // leading '|'
	var params []string
	for p.current().Kind != token.PIPE {
		nameTok, err := p.expect(token.IDENT, "P021")
		if err != nil {
			return nil, err
		}
		params = append(params, nameTok.Literal)
		if !p.advanceIfMatch(token.COMMA) {
			break
		}
	}
	if _, err := p.expect(token.PIPE, "P022"); err != nil {
		return nil, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Lambda{Token: tok, Params: params, Body: body}, nil
}

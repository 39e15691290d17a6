package parser

import (
	"fmt"

	"github.com/danshapiro/coretiny/lexer"
)

type parser struct {
	tokens []lexer.Token
	pos    int
}

// Parse consumes a token list and produces a Program, or a descriptive
// error naming the offending token's kind and position (or end-of-file).
// The one backtrack point — disambiguating an assignment statement from an
// expression statement — uses a single saved cursor position and never
// builds a subtree it then discards.
func Parse(tokens []lexer.Token) (*Program, error) {
	p := &parser{tokens: tokens}
	prog := &Program{}
	for !p.check(lexer.KindEOF) {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
	}
	if len(prog.Functions) == 0 {
		return nil, p.errorAt("expected at least one function")
	}
	return prog, nil
}

func (p *parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

func (p *parser) check(k lexer.Kind) bool {
	return p.peek().Kind == k
}

func (p *parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Kind != lexer.KindEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(k lexer.Kind, message string) (lexer.Token, error) {
	if p.check(k) {
		return p.advance(), nil
	}
	return lexer.Token{}, p.errorAt(message)
}

func (p *parser) errorAt(message string) error {
	tok := p.peek()
	if tok.Kind == lexer.KindEOF {
		return fmt.Errorf("%s at end of file", message)
	}
	return fmt.Errorf("%s at line %d, column %d. Got '%s'", message, tok.Line, tok.Column, tok.Kind.String())
}

func tokenType(tok lexer.Token) (Type, bool) {
	switch tok.Kind {
	case lexer.KindIntType:
		return TypeInt, true
	case lexer.KindBoolType:
		return TypeBool, true
	default:
		return TypeUnknown, false
	}
}

func (p *parser) parseType() (Type, error) {
	tok := p.peek()
	t, ok := tokenType(tok)
	if !ok {
		return TypeUnknown, p.errorAt("expected a type")
	}
	p.advance()
	return t, nil
}

func (p *parser) parseFunction() (*Function, error) {
	tok, err := p.expect(lexer.KindFunc, "expected 'func'")
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.KindIdent, "expected function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindLParen, "expected '('"); err != nil {
		return nil, err
	}

	var params []Param
	if !p.check(lexer.KindRParen) {
		for {
			param, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
			if !p.check(lexer.KindComma) {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(lexer.KindRParen, "expected ')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindColon, "expected ':'"); err != nil {
		return nil, err
	}
	retType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &Function{
		Name:       nameTok.Lexeme,
		Params:     params,
		ReturnType: retType,
		Body:       body,
		Line:       tok.Line,
		Column:     tok.Column,
	}, nil
}

func (p *parser) parseParam() (Param, error) {
	nameTok, err := p.expect(lexer.KindIdent, "expected parameter name")
	if err != nil {
		return Param{}, err
	}
	if _, err := p.expect(lexer.KindColon, "expected ':' after parameter name"); err != nil {
		return Param{}, err
	}
	t, err := p.parseType()
	if err != nil {
		return Param{}, err
	}
	return Param{Name: nameTok.Lexeme, Type: t, Line: nameTok.Line, Column: nameTok.Column}, nil
}

func (p *parser) parseBlock() (*Stmt, error) {
	open, err := p.expect(lexer.KindLBrace, "expected '{'")
	if err != nil {
		return nil, err
	}
	block := &Stmt{Kind: StmtBlock, Line: open.Line, Column: open.Column}
	for !p.check(lexer.KindRBrace) && !p.check(lexer.KindEOF) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	if _, err := p.expect(lexer.KindRBrace, "expected '}'"); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *parser) parseStmt() (*Stmt, error) {
	switch p.peek().Kind {
	case lexer.KindVar:
		return p.parseVarDecl()
	case lexer.KindIf:
		return p.parseIf()
	case lexer.KindWhile:
		return p.parseWhile()
	case lexer.KindReturn:
		return p.parseReturn()
	case lexer.KindLBrace:
		return p.parseBlock()
	case lexer.KindIdent:
		return p.parseAssignOrExprStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *parser) parseVarDecl() (*Stmt, error) {
	tok := p.advance() // "var"
	nameTok, err := p.expect(lexer.KindIdent, "expected variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindAssign, "expected '=' in variable declaration"); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindSemicolon, "expected ';'"); err != nil {
		return nil, err
	}
	return &Stmt{Kind: StmtVarDecl, Name: nameTok.Lexeme, Expr: expr, Line: tok.Line, Column: tok.Column}, nil
}

// parseAssignOrExprStmt is the single backtrack point: IDENT '=' is an
// assignment, any other continuation starting with IDENT is an expression
// statement. It saves the cursor, peeks past the identifier, and restores
// before reparsing as a full expression — no throwaway AST is built.
func (p *parser) parseAssignOrExprStmt() (*Stmt, error) {
	saved := p.pos
	nameTok := p.advance()
	if p.check(lexer.KindAssign) {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.KindSemicolon, "expected ';'"); err != nil {
			return nil, err
		}
		return &Stmt{Kind: StmtAssign, Name: nameTok.Lexeme, Expr: expr, Line: nameTok.Line, Column: nameTok.Column}, nil
	}
	p.pos = saved
	return p.parseExprStmt()
}

func (p *parser) parseExprStmt() (*Stmt, error) {
	tok := p.peek()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindSemicolon, "expected ';'"); err != nil {
		return nil, err
	}
	return &Stmt{Kind: StmtExpr, Expr: expr, Line: tok.Line, Column: tok.Column}, nil
}

func (p *parser) parseIf() (*Stmt, error) {
	tok := p.advance() // "if"
	if _, err := p.expect(lexer.KindLParen, "expected '(' after 'if'"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindRParen, "expected ')'"); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &Stmt{Kind: StmtIf, Cond: cond, Then: thenBlock, Line: tok.Line, Column: tok.Column}
	if p.check(lexer.KindElse) {
		p.advance()
		elseBlock, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.Else = elseBlock
	}
	return stmt, nil
}

func (p *parser) parseWhile() (*Stmt, error) {
	tok := p.advance() // "while"
	if _, err := p.expect(lexer.KindLParen, "expected '(' after 'while'"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindRParen, "expected ')'"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &Stmt{Kind: StmtWhile, Cond: cond, Then: body, Line: tok.Line, Column: tok.Column}, nil
}

func (p *parser) parseReturn() (*Stmt, error) {
	tok := p.advance() // "return"
	stmt := &Stmt{Kind: StmtReturn, Line: tok.Line, Column: tok.Column}
	if !p.check(lexer.KindSemicolon) {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Expr = expr
	}
	if _, err := p.expect(lexer.KindSemicolon, "expected ';'"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseExpr() (*Expr, error) {
	return p.parseLogicalOr()
}

func (p *parser) parseLogicalOr() (*Expr, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.KindOr) {
		op := p.advance()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprBinary, Op: "||", Left: left, Right: right, Line: op.Line, Column: op.Column}
	}
	return left, nil
}

func (p *parser) parseLogicalAnd() (*Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.KindAnd) {
		op := p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprBinary, Op: "&&", Left: left, Right: right, Line: op.Line, Column: op.Column}
	}
	return left, nil
}

func (p *parser) parseEquality() (*Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.KindEq) || p.check(lexer.KindNe) {
		op := p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprBinary, Op: op.Lexeme, Left: left, Right: right, Line: op.Line, Column: op.Column}
	}
	return left, nil
}

func (p *parser) parseComparison() (*Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.KindLt) || p.check(lexer.KindLe) || p.check(lexer.KindGt) || p.check(lexer.KindGe) {
		op := p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprBinary, Op: op.Lexeme, Left: left, Right: right, Line: op.Line, Column: op.Column}
	}
	return left, nil
}

func (p *parser) parseTerm() (*Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.KindPlus) || p.check(lexer.KindMinus) {
		op := p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprBinary, Op: op.Lexeme, Left: left, Right: right, Line: op.Line, Column: op.Column}
	}
	return left, nil
}

func (p *parser) parseFactor() (*Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.check(lexer.KindStar) || p.check(lexer.KindSlash) || p.check(lexer.KindPercent) {
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Expr{Kind: ExprBinary, Op: op.Lexeme, Left: left, Right: right, Line: op.Line, Column: op.Column}
	}
	return left, nil
}

func (p *parser) parseUnary() (*Expr, error) {
	if p.check(lexer.KindNot) {
		op := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: ExprUnary, Op: "!", Operand: operand, Line: op.Line, Column: op.Column}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case lexer.KindIntLiteral:
		p.advance()
		return &Expr{Kind: ExprIntLiteral, IntValue: tok.IntValue, Type: TypeInt, Line: tok.Line, Column: tok.Column}, nil
	case lexer.KindTrue:
		p.advance()
		return &Expr{Kind: ExprBoolLiteral, BoolValue: true, Type: TypeBool, Line: tok.Line, Column: tok.Column}, nil
	case lexer.KindFalse:
		p.advance()
		return &Expr{Kind: ExprBoolLiteral, BoolValue: false, Type: TypeBool, Line: tok.Line, Column: tok.Column}, nil
	case lexer.KindLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.KindRParen, "expected ')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case lexer.KindIdent:
		p.advance()
		if p.check(lexer.KindLParen) {
			p.advance()
			var args []*Expr
			if !p.check(lexer.KindRParen) {
				for {
					arg, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if !p.check(lexer.KindComma) {
						break
					}
					p.advance()
				}
			}
			if _, err := p.expect(lexer.KindRParen, "expected ')'"); err != nil {
				return nil, err
			}
			return &Expr{Kind: ExprCall, Name: tok.Lexeme, Args: args, Line: tok.Line, Column: tok.Column}, nil
		}
		return &Expr{Kind: ExprVarRef, Name: tok.Lexeme, Line: tok.Line, Column: tok.Column}, nil
	default:
		return nil, p.errorAt("expected an expression")
	}
}

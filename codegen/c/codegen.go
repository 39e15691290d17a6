// Package c lowers a type-checked AST to a self-contained C translation
// unit: forward declarations in source order followed by each function
// body, with every binary expression fully parenthesized so the emitted
// precedence can never diverge from the checked AST's shape.
package c

import (
	"fmt"
	"strings"

	"github.com/danshapiro/coretiny/config"
	"github.com/danshapiro/coretiny/parser"
)

type generator struct {
	buf    strings.Builder
	indent int
	cfg    config.CompileConfig
}

// Generate emits C source for prog. cfg.EmitComments adds a one-line
// banner comment above each function; cfg.PrettyPrint is accepted for
// symmetry with the IR generator but has no effect here since the C
// output is already consistently indented.
func Generate(prog *parser.Program, cfg config.CompileConfig) (string, error) {
	g := &generator{cfg: cfg}
	g.writeHeader()

	for _, fn := range prog.Functions {
		g.writeLn(g.signature(fn) + ";")
	}
	g.writeLn("")

	for _, fn := range prog.Functions {
		if cfg.EmitComments {
			g.writeLn(fmt.Sprintf("// %s", fn.Name))
		}
		if err := g.writeFunction(fn); err != nil {
			return "", err
		}
		g.writeLn("")
	}

	return g.buf.String(), nil
}

func (g *generator) writeHeader() {
	g.writeLn("#include <stdio.h>")
	g.writeLn("#include <stdbool.h>")
	g.writeLn("")
}

func cType(t parser.Type) string {
	switch t {
	case parser.TypeInt:
		return "int"
	case parser.TypeBool:
		return "bool"
	case parser.TypeVoid:
		return "void"
	default:
		return "int"
	}
}

func (g *generator) signature(fn *parser.Function) string {
	if len(fn.Params) == 0 {
		return fmt.Sprintf("%s %s(void)", cType(fn.ReturnType), fn.Name)
	}
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = fmt.Sprintf("%s %s", cType(p.Type), p.Name)
	}
	return fmt.Sprintf("%s %s(%s)", cType(fn.ReturnType), fn.Name, strings.Join(params, ", "))
}

func (g *generator) writeFunction(fn *parser.Function) error {
	g.writeLn(g.signature(fn) + " {")
	g.indent++
	for _, stmt := range fn.Body.Stmts {
		if err := g.writeStmt(stmt); err != nil {
			return err
		}
	}
	g.indent--
	g.writeLn("}")
	return nil
}

func (g *generator) writeLn(line string) {
	if line == "" {
		g.buf.WriteString("\n")
		return
	}
	g.buf.WriteString(strings.Repeat("    ", g.indent))
	g.buf.WriteString(line)
	g.buf.WriteString("\n")
}

func (g *generator) writeBlock(block *parser.Stmt) error {
	g.writeLn("{")
	g.indent++
	for _, stmt := range block.Stmts {
		if err := g.writeStmt(stmt); err != nil {
			return err
		}
	}
	g.indent--
	g.writeLn("}")
	return nil
}

func (g *generator) writeStmt(stmt *parser.Stmt) error {
	switch stmt.Kind {
	case parser.StmtVarDecl:
		expr, err := g.writeExpr(stmt.Expr)
		if err != nil {
			return err
		}
		g.writeLn(fmt.Sprintf("%s %s = %s;", cType(stmt.Expr.Type), stmt.Name, expr))
		return nil

	case parser.StmtAssign:
		expr, err := g.writeExpr(stmt.Expr)
		if err != nil {
			return err
		}
		g.writeLn(fmt.Sprintf("%s = %s;", stmt.Name, expr))
		return nil

	case parser.StmtIf:
		cond, err := g.writeExpr(stmt.Cond)
		if err != nil {
			return err
		}
		g.writeLn(fmt.Sprintf("if (%s) {", cond))
		g.indent++
		for _, s := range stmt.Then.Stmts {
			if err := g.writeStmt(s); err != nil {
				return err
			}
		}
		g.indent--
		if stmt.Else != nil {
			g.writeLn("} else {")
			g.indent++
			for _, s := range stmt.Else.Stmts {
				if err := g.writeStmt(s); err != nil {
					return err
				}
			}
			g.indent--
		}
		g.writeLn("}")
		return nil

	case parser.StmtWhile:
		cond, err := g.writeExpr(stmt.Cond)
		if err != nil {
			return err
		}
		g.writeLn(fmt.Sprintf("while (%s) {", cond))
		g.indent++
		for _, s := range stmt.Then.Stmts {
			if err := g.writeStmt(s); err != nil {
				return err
			}
		}
		g.indent--
		g.writeLn("}")
		return nil

	case parser.StmtReturn:
		if stmt.Expr == nil {
			g.writeLn("return;")
			return nil
		}
		expr, err := g.writeExpr(stmt.Expr)
		if err != nil {
			return err
		}
		g.writeLn(fmt.Sprintf("return %s;", expr))
		return nil

	case parser.StmtBlock:
		return g.writeBlock(stmt)

	case parser.StmtExpr:
		expr, err := g.writeExpr(stmt.Expr)
		if err != nil {
			return err
		}
		g.writeLn(expr + ";")
		return nil

	default:
		return fmt.Errorf("codegen/c: unhandled statement kind %d", stmt.Kind)
	}
}

func (g *generator) writeExpr(expr *parser.Expr) (string, error) {
	switch expr.Kind {
	case parser.ExprIntLiteral:
		return fmt.Sprintf("%d", expr.IntValue), nil

	case parser.ExprBoolLiteral:
		if expr.BoolValue {
			return "1", nil
		}
		return "0", nil

	case parser.ExprVarRef:
		return expr.Name, nil

	case parser.ExprUnary:
		operand, err := g.writeExpr(expr.Operand)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(!%s)", operand), nil

	case parser.ExprBinary:
		left, err := g.writeExpr(expr.Left)
		if err != nil {
			return "", err
		}
		right, err := g.writeExpr(expr.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, expr.Op, right), nil

	case parser.ExprCall:
		if expr.Name == "print" {
			arg, err := g.writeExpr(expr.Args[0])
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(`printf("%%d\n", %s)`, arg), nil
		}
		args := make([]string, len(expr.Args))
		for i, a := range expr.Args {
			s, err := g.writeExpr(a)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return fmt.Sprintf("%s(%s)", expr.Name, strings.Join(args, ", ")), nil

	default:
		return "", fmt.Errorf("codegen/c: unhandled expression kind %d", expr.Kind)
	}
}

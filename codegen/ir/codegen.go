// Package ir lowers a type-checked AST to a textual SSA-esque IR: a
// module header declaring the print intrinsic, then one define block per
// function with alloca'd locals, load/store variable access, and
// explicit branch-based control flow.
package ir

import (
	"fmt"
	"strings"

	"github.com/danshapiro/coretiny/config"
	"github.com/danshapiro/coretiny/parser"
)

type generator struct {
	buf       strings.Builder
	tempCount int
	labelCount int
	locals    map[string]bool
}

// Generate emits IR for prog. Temp and label counters are monotonic across
// the whole run rather than reset per function — the original source never
// resets them between functions, and no tested property depends on exact
// numbering, so the literal behavior is kept rather than guessed away.
func Generate(prog *parser.Program, cfg config.CompileConfig) (string, error) {
	g := &generator{}
	g.writeLn("declare void @print(i32)")
	g.writeLn("")

	for _, fn := range prog.Functions {
		if err := g.writeFunction(fn); err != nil {
			return "", err
		}
		g.writeLn("")
	}
	return g.buf.String(), nil
}

func (g *generator) writeLn(line string) {
	g.buf.WriteString(line)
	g.buf.WriteString("\n")
}

func irType(t parser.Type) string {
	switch t {
	case parser.TypeInt:
		return "i32"
	case parser.TypeBool:
		return "i1"
	case parser.TypeVoid:
		return "void"
	default:
		return "i32"
	}
}

func (g *generator) newTemp() string {
	t := fmt.Sprintf("%%t%d", g.tempCount)
	g.tempCount++
	return t
}

func (g *generator) newLabel() string {
	l := fmt.Sprintf("L%d", g.labelCount)
	g.labelCount++
	return l
}

func (g *generator) writeFunction(fn *parser.Function) error {
	g.locals = make(map[string]bool)

	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = fmt.Sprintf("%s %%%s.param", irType(p.Type), p.Name)
	}
	g.writeLn(fmt.Sprintf("define %s @%s(%s) {", irType(fn.ReturnType), fn.Name, strings.Join(params, ", ")))
	g.writeLn("entry:")

	for _, p := range fn.Params {
		g.writeLn(fmt.Sprintf("  %%%s = alloca i32", p.Name))
		g.writeLn(fmt.Sprintf("  store i32 %%%s.param, %%%s", p.Name, p.Name))
		g.locals[p.Name] = true
	}

	if err := g.writeStmts(fn.Body.Stmts); err != nil {
		return err
	}
	g.writeLn("}")
	return nil
}

func (g *generator) writeStmts(stmts []*parser.Stmt) error {
	for _, stmt := range stmts {
		if err := g.writeStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) writeStmt(stmt *parser.Stmt) error {
	switch stmt.Kind {
	case parser.StmtVarDecl:
		if !g.locals[stmt.Name] {
			g.writeLn(fmt.Sprintf("  %%%s = alloca i32", stmt.Name))
			g.locals[stmt.Name] = true
		}
		val, err := g.writeExpr(stmt.Expr)
		if err != nil {
			return err
		}
		g.writeLn(fmt.Sprintf("  store i32 %s, %%%s", val, stmt.Name))
		return nil

	case parser.StmtAssign:
		val, err := g.writeExpr(stmt.Expr)
		if err != nil {
			return err
		}
		g.writeLn(fmt.Sprintf("  store i32 %s, %%%s", val, stmt.Name))
		return nil

	case parser.StmtIf:
		cond, err := g.writeExpr(stmt.Cond)
		if err != nil {
			return err
		}
		thenLabel := g.newLabel()
		endLabel := g.newLabel()
		elseLabel := endLabel
		if stmt.Else != nil {
			elseLabel = g.newLabel()
		}
		g.writeLn(fmt.Sprintf("  br i1 %s, label %%%s, label %%%s", cond, thenLabel, elseLabel))
		g.writeLn(thenLabel + ":")
		if err := g.writeStmts(stmt.Then.Stmts); err != nil {
			return err
		}
		g.writeLn(fmt.Sprintf("  br label %%%s", endLabel))
		if stmt.Else != nil {
			g.writeLn(elseLabel + ":")
			if err := g.writeStmts(stmt.Else.Stmts); err != nil {
				return err
			}
			g.writeLn(fmt.Sprintf("  br label %%%s", endLabel))
		}
		g.writeLn(endLabel + ":")
		return nil

	case parser.StmtWhile:
		condLabel := g.newLabel()
		bodyLabel := g.newLabel()
		endLabel := g.newLabel()
		g.writeLn(fmt.Sprintf("  br label %%%s", condLabel))
		g.writeLn(condLabel + ":")
		cond, err := g.writeExpr(stmt.Cond)
		if err != nil {
			return err
		}
		g.writeLn(fmt.Sprintf("  br i1 %s, label %%%s, label %%%s", cond, bodyLabel, endLabel))
		g.writeLn(bodyLabel + ":")
		if err := g.writeStmts(stmt.Then.Stmts); err != nil {
			return err
		}
		g.writeLn(fmt.Sprintf("  br label %%%s", condLabel))
		g.writeLn(endLabel + ":")
		return nil

	case parser.StmtReturn:
		if stmt.Expr == nil {
			g.writeLn("  ret void")
			return nil
		}
		val, err := g.writeExpr(stmt.Expr)
		if err != nil {
			return err
		}
		g.writeLn(fmt.Sprintf("  ret i32 %s", val))
		return nil

	case parser.StmtBlock:
		return g.writeStmts(stmt.Stmts)

	case parser.StmtExpr:
		_, err := g.writeExpr(stmt.Expr)
		return err

	default:
		return fmt.Errorf("codegen/ir: unhandled statement kind %d", stmt.Kind)
	}
}

func (g *generator) writeExpr(expr *parser.Expr) (string, error) {
	switch expr.Kind {
	case parser.ExprIntLiteral:
		t := g.newTemp()
		g.writeLn(fmt.Sprintf("  %s = add i32 0, %d", t, expr.IntValue))
		return t, nil

	case parser.ExprBoolLiteral:
		t := g.newTemp()
		v := 0
		if expr.BoolValue {
			v = 1
		}
		g.writeLn(fmt.Sprintf("  %s = add i1 0, %d", t, v))
		return t, nil

	case parser.ExprVarRef:
		t := g.newTemp()
		g.writeLn(fmt.Sprintf("  %s = load %%%s", t, expr.Name))
		return t, nil

	case parser.ExprUnary:
		operand, err := g.writeExpr(expr.Operand)
		if err != nil {
			return "", err
		}
		t := g.newTemp()
		g.writeLn(fmt.Sprintf("  %s = xor i1 %s, 1", t, operand))
		return t, nil

	case parser.ExprBinary:
		return g.writeBinary(expr)

	case parser.ExprCall:
		return g.writeCall(expr)

	default:
		return "", fmt.Errorf("codegen/ir: unhandled expression kind %d", expr.Kind)
	}
}

var arithOp = map[string]string{"+": "add", "-": "sub", "*": "mul", "/": "div", "%": "mod"}
var cmpPred = map[string]string{"<": "slt", "<=": "sle", ">": "sgt", ">=": "sge", "==": "eq", "!=": "ne"}
var logicalOp = map[string]string{"&&": "and", "||": "or"}

func (g *generator) writeBinary(expr *parser.Expr) (string, error) {
	left, err := g.writeExpr(expr.Left)
	if err != nil {
		return "", err
	}
	right, err := g.writeExpr(expr.Right)
	if err != nil {
		return "", err
	}

	if op, ok := arithOp[expr.Op]; ok {
		t := g.newTemp()
		g.writeLn(fmt.Sprintf("  %s = %s i32 %s, %s", t, op, left, right))
		return t, nil
	}
	if pred, ok := cmpPred[expr.Op]; ok {
		t := g.newTemp()
		g.writeLn(fmt.Sprintf("  %s = icmp %s i32 %s, %s", t, pred, left, right))
		return t, nil
	}
	if op, ok := logicalOp[expr.Op]; ok {
		t := g.newTemp()
		g.writeLn(fmt.Sprintf("  %s = %s i1 %s, %s", t, op, left, right))
		return t, nil
	}
	return "", fmt.Errorf("codegen/ir: unknown binary operator %q", expr.Op)
}

func (g *generator) writeCall(expr *parser.Expr) (string, error) {
	if expr.Name == "print" {
		arg, err := g.writeExpr(expr.Args[0])
		if err != nil {
			return "", err
		}
		g.writeLn(fmt.Sprintf("  call void @print(i32 %s)", arg))
		return "", nil
	}

	argTemps := make([]string, len(expr.Args))
	for i, a := range expr.Args {
		v, err := g.writeExpr(a)
		if err != nil {
			return "", err
		}
		argTemps[i] = fmt.Sprintf("i32 %s", v)
	}
	t := g.newTemp()
	g.writeLn(fmt.Sprintf("  %s = call i32 @%s(%s)", t, expr.Name, strings.Join(argTemps, ", ")))
	return t, nil
}

// Package typecheck implements the two-pass type checker: a signature
// pass that registers every function (plus the built-in print) ahead of a
// body pass that walks each function under nested lexical scopes linked to
// their parent, annotating the AST's Type fields in place.
package typecheck

import (
	"fmt"

	"github.com/danshapiro/coretiny/parser"
)

type signature struct {
	paramTypes []parser.Type
	returnType parser.Type
}

type symbol struct {
	typ        parser.Type
	isFunction bool
	sig        signature
}

type scope struct {
	parent  *scope
	symbols map[string]symbol
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, symbols: make(map[string]symbol)}
}

func (s *scope) declare(name string, sym symbol) error {
	if _, exists := s.symbols[name]; exists {
		return fmt.Errorf("redeclaration of %q in the same scope", name)
	}
	s.symbols[name] = sym
	return nil
}

func (s *scope) lookup(name string) (symbol, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.symbols[name]; ok {
			return sym, true
		}
	}
	return symbol{}, false
}

// Check type-checks prog in place. On the first failing rule it returns a
// descriptive error and stops (single-message-wins).
func Check(prog *parser.Program) error {
	global := newScope(nil)
	if err := global.declare("print", symbol{
		isFunction: true,
		sig:        signature{paramTypes: []parser.Type{parser.TypeInt}, returnType: parser.TypeVoid},
	}); err != nil {
		return err
	}

	for _, fn := range prog.Functions {
		paramTypes := make([]parser.Type, len(fn.Params))
		for i, p := range fn.Params {
			paramTypes[i] = p.Type
		}
		if err := global.declare(fn.Name, symbol{
			isFunction: true,
			sig:        signature{paramTypes: paramTypes, returnType: fn.ReturnType},
		}); err != nil {
			return fmt.Errorf("duplicate function name %q", fn.Name)
		}
	}

	for _, fn := range prog.Functions {
		if err := checkFunction(fn, global); err != nil {
			return err
		}
	}
	return nil
}

func checkFunction(fn *parser.Function, global *scope) error {
	fnScope := newScope(global)
	for _, param := range fn.Params {
		if err := fnScope.declare(param.Name, symbol{typ: param.Type}); err != nil {
			return fmt.Errorf("duplicate parameter name %q in function %q", param.Name, fn.Name)
		}
	}
	return checkBlock(fn.Body, fnScope, fn.ReturnType)
}

func checkBlock(block *parser.Stmt, parent *scope, returnType parser.Type) error {
	s := newScope(parent)
	for _, stmt := range block.Stmts {
		if err := checkStmt(stmt, s, returnType); err != nil {
			return err
		}
	}
	return nil
}

func checkStmt(stmt *parser.Stmt, s *scope, returnType parser.Type) error {
	switch stmt.Kind {
	case parser.StmtVarDecl:
		t, err := checkExpr(stmt.Expr, s)
		if err != nil {
			return err
		}
		if err := s.declare(stmt.Name, symbol{typ: t}); err != nil {
			return fmt.Errorf("redeclaration of variable %q", stmt.Name)
		}
		return nil

	case parser.StmtAssign:
		sym, ok := s.lookup(stmt.Name)
		if !ok {
			return fmt.Errorf("assignment to undeclared variable %q", stmt.Name)
		}
		if sym.isFunction {
			return fmt.Errorf("%q is a function and cannot be assigned to", stmt.Name)
		}
		t, err := checkExpr(stmt.Expr, s)
		if err != nil {
			return err
		}
		if t != sym.typ {
			return fmt.Errorf("cannot assign %s to variable %q of type %s", t, stmt.Name, sym.typ)
		}
		return nil

	case parser.StmtIf:
		condType, err := checkExpr(stmt.Cond, s)
		if err != nil {
			return err
		}
		if condType != parser.TypeBool {
			return fmt.Errorf("if condition must be bool, got %s", condType)
		}
		if err := checkBlock(stmt.Then, s, returnType); err != nil {
			return err
		}
		if stmt.Else != nil {
			if err := checkBlock(stmt.Else, s, returnType); err != nil {
				return err
			}
		}
		return nil

	case parser.StmtWhile:
		condType, err := checkExpr(stmt.Cond, s)
		if err != nil {
			return err
		}
		if condType != parser.TypeBool {
			return fmt.Errorf("while condition must be bool, got %s", condType)
		}
		return checkBlock(stmt.Then, s, returnType)

	case parser.StmtReturn:
		if returnType == parser.TypeVoid {
			if stmt.Expr != nil {
				return fmt.Errorf("void function cannot return a value")
			}
			return nil
		}
		if stmt.Expr == nil {
			return fmt.Errorf("non-void function must return a value of type %s", returnType)
		}
		t, err := checkExpr(stmt.Expr, s)
		if err != nil {
			return err
		}
		if t != returnType {
			return fmt.Errorf("return type mismatch: function returns %s, got %s", returnType, t)
		}
		return nil

	case parser.StmtBlock:
		return checkBlock(stmt, s, returnType)

	case parser.StmtExpr:
		_, err := checkExpr(stmt.Expr, s)
		return err

	default:
		return fmt.Errorf("unhandled statement kind %d", stmt.Kind)
	}
}

func checkExpr(expr *parser.Expr, s *scope) (parser.Type, error) {
	switch expr.Kind {
	case parser.ExprIntLiteral:
		expr.Type = parser.TypeInt
		return parser.TypeInt, nil

	case parser.ExprBoolLiteral:
		expr.Type = parser.TypeBool
		return parser.TypeBool, nil

	case parser.ExprVarRef:
		sym, ok := s.lookup(expr.Name)
		if !ok {
			return parser.TypeUnknown, fmt.Errorf("undefined variable %q", expr.Name)
		}
		if sym.isFunction {
			return parser.TypeUnknown, fmt.Errorf("%q is a function, not a value", expr.Name)
		}
		expr.Type = sym.typ
		return sym.typ, nil

	case parser.ExprUnary:
		t, err := checkExpr(expr.Operand, s)
		if err != nil {
			return parser.TypeUnknown, err
		}
		if t != parser.TypeBool {
			return parser.TypeUnknown, fmt.Errorf("operand of '!' must be bool, got %s", t)
		}
		expr.Type = parser.TypeBool
		return parser.TypeBool, nil

	case parser.ExprBinary:
		return checkBinary(expr, s)

	case parser.ExprCall:
		return checkCall(expr, s)

	default:
		return parser.TypeUnknown, fmt.Errorf("unhandled expression kind %d", expr.Kind)
	}
}

func checkBinary(expr *parser.Expr, s *scope) (parser.Type, error) {
	left, err := checkExpr(expr.Left, s)
	if err != nil {
		return parser.TypeUnknown, err
	}
	right, err := checkExpr(expr.Right, s)
	if err != nil {
		return parser.TypeUnknown, err
	}

	switch expr.Op {
	case "+", "-", "*", "/", "%":
		if left != parser.TypeInt || right != parser.TypeInt {
			return parser.TypeUnknown, fmt.Errorf("operator %q requires int operands, got %s and %s", expr.Op, left, right)
		}
		expr.Type = parser.TypeInt
		return parser.TypeInt, nil

	case "<", "<=", ">", ">=":
		if left != parser.TypeInt || right != parser.TypeInt {
			return parser.TypeUnknown, fmt.Errorf("operator %q requires int operands, got %s and %s", expr.Op, left, right)
		}
		expr.Type = parser.TypeBool
		return parser.TypeBool, nil

	case "==", "!=":
		if left != right {
			return parser.TypeUnknown, fmt.Errorf("operator %q requires operands of equal type, got %s and %s", expr.Op, left, right)
		}
		expr.Type = parser.TypeBool
		return parser.TypeBool, nil

	case "&&", "||":
		if left != parser.TypeBool || right != parser.TypeBool {
			return parser.TypeUnknown, fmt.Errorf("operator %q requires bool operands, got %s and %s", expr.Op, left, right)
		}
		expr.Type = parser.TypeBool
		return parser.TypeBool, nil

	default:
		return parser.TypeUnknown, fmt.Errorf("unknown binary operator %q", expr.Op)
	}
}

func checkCall(expr *parser.Expr, s *scope) (parser.Type, error) {
	sym, ok := s.lookup(expr.Name)
	if !ok {
		return parser.TypeUnknown, fmt.Errorf("call to undefined function %q", expr.Name)
	}
	if !sym.isFunction {
		return parser.TypeUnknown, fmt.Errorf("%q is not callable", expr.Name)
	}
	if len(expr.Args) != len(sym.sig.paramTypes) {
		return parser.TypeUnknown, fmt.Errorf("function %q expects %d argument(s), got %d", expr.Name, len(sym.sig.paramTypes), len(expr.Args))
	}
	for i, arg := range expr.Args {
		argType, err := checkExpr(arg, s)
		if err != nil {
			return parser.TypeUnknown, err
		}
		if argType != sym.sig.paramTypes[i] {
			return parser.TypeUnknown, fmt.Errorf("argument %d to %q must be %s, got %s", i+1, expr.Name, sym.sig.paramTypes[i], argType)
		}
	}
	expr.Type = sym.sig.returnType
	return sym.sig.returnType, nil
}

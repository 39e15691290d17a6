package c

import (
	"strings"
	"testing"

	"github.com/danshapiro/coretiny/config"
	"github.com/danshapiro/coretiny/lexer"
	"github.com/danshapiro/coretiny/parser"
	"github.com/danshapiro/coretiny/typecheck"
)

func compile(t *testing.T, src string) string {
	t.Helper()
	tokens, err := lexer.Lex(src)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if err := typecheck.Check(prog); err != nil {
		t.Fatalf("type error: %v", err)
	}
	out, err := Generate(prog, config.CompileConfig{Target: "C"})
	if err != nil {
		t.Fatalf("codegen error: %v", err)
	}
	return out
}

func TestFactorialEmitsForwardDeclarationsAndBody(t *testing.T) {
	out := compile(t, `
		func factorial(n: int): int {
			if (n <= 1) {
				return 1;
			}
			return n * factorial(n - 1);
		}
		func main(): int {
			print(factorial(5));
			return 0;
		}
	`)
	if !strings.Contains(out, "int factorial(int n);") {
		t.Fatalf("missing forward declaration:\n%s", out)
	}
	if !strings.Contains(out, "int main(void);") {
		t.Fatalf("missing forward declaration for main:\n%s", out)
	}
	if !strings.Contains(out, `printf("%d\n", factorial(5))`) {
		t.Fatalf("print call not lowered to printf:\n%s", out)
	}
	if !strings.Contains(out, "(n <= 1)") {
		t.Fatalf("binary expression should be parenthesized:\n%s", out)
	}
}

func TestBoolEmittedAsIntegerInExpressions(t *testing.T) {
	out := compile(t, `
		func f(): bool {
			var flag = true;
			return flag;
		}
	`)
	if !strings.Contains(out, "bool flag = 1;") {
		t.Fatalf("bool literal should lower to 1 in expression position:\n%s", out)
	}
}

func TestNestedBinaryExpressionsAreFullyParenthesized(t *testing.T) {
	out := compile(t, `func f(): int { return 1 + 2 * 3; }`)
	if !strings.Contains(out, "(1 + (2 * 3))") {
		t.Fatalf("expected fully parenthesized expression:\n%s", out)
	}
}

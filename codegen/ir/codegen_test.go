package ir

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
	out, err := Generate(prog, config.CompileConfig{Target: "IR"})
	if err != nil {
		t.Fatalf("codegen error: %v", err)
	}
	return out
}

func TestModuleHeaderDeclaresPrint(t *testing.T) {
	out := compile(t, `func main(): int { print(1); return 0; }`)
	if !strings.HasPrefix(out, "declare void @print(i32)") {
		t.Fatalf("missing module header:\n%s", out)
	}
}

func TestFactorialLowersRecursiveCallAndBranch(t *testing.T) {
	out := compile(t, `
		func factorial(n: int): int {
			if (n <= 1) {
				return 1;
			}
			return n * factorial(n - 1);
		}
	`)
	if !strings.Contains(out, "define i32 @factorial(i32 %n.param) {") {
		t.Fatalf("missing function header:\n%s", out)
	}
	if !strings.Contains(out, "%n = alloca i32") {
		t.Fatalf("missing parameter prologue alloca:\n%s", out)
	}
	if !strings.Contains(out, "store i32 %n.param, %n") {
		t.Fatalf("missing parameter store:\n%s", out)
	}
	if !strings.Contains(out, "icmp sle i32") {
		t.Fatalf("missing comparison lowering:\n%s", out)
	}
	if !strings.Contains(out, "br i1") {
		t.Fatalf("missing conditional branch:\n%s", out)
	}
	if !strings.Contains(out, "call i32 @factorial(") {
		t.Fatalf("missing recursive call lowering:\n%s", out)
	}
}

func TestPrintCallHasNoResultTemp(t *testing.T) {
	out := compile(t, `func main(): int { print(42); return 0; }`)
	if !strings.Contains(out, "call void @print(i32 %t") {
		t.Fatalf("expected a void print call:\n%s", out)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "= call void @print") {
			t.Fatalf("print call should not assign a result temp: %q", line)
		}
	}
}

func TestWhileLoopLowersToThreeLabels(t *testing.T) {
	out := compile(t, `
		func f(): int {
			var i = 0;
			while (i < 10) {
				i = i + 1;
			}
			return i;
		}
	`)
	if !strings.Contains(out, "br label %L") {
		t.Fatalf("missing unconditional branch into loop condition:\n%s", out)
	}
	condCount := strings.Count(out, "icmp slt")
	if condCount != 1 {
		t.Fatalf("expected exactly one slt comparison, got %d:\n%s", condCount, out)
	}
	labels := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "L") && strings.HasSuffix(line, ":") {
			labels++
		}
	}
	if labels != 3 {
		t.Fatalf("expected three labels (cond, body, end), got %d:\n%s", labels, out)
	}
}

func TestNotOperatorLowersToXor(t *testing.T) {
	out := compile(t, `func f(): bool { return !true; }`)
	if !strings.Contains(out, "xor i1") {
		t.Fatalf("expected xor lowering for '!':\n%s", out)
	}
}

package lexer

import (
	"strings"
	"testing"
)

func TestLexIsDeterministic(t *testing.T) {
	src := `func main() int { var x int = 1 + 2 * 3; return x; }`
	a, errA := Lex(src)
	b, errB := Lex(src)
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v, %v", errA, errB)
	}
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("token %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestEOFIsAlwaysLast(t *testing.T) {
	tokens, err := Lex("var x int = 5;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := tokens[len(tokens)-1]
	if last.Kind != KindEOF {
		t.Fatalf("last token = %v, want EOF", last.Kind)
	}
	for _, tok := range tokens[:len(tokens)-1] {
		if tok.Kind == KindEOF {
			t.Fatal("EOF token appeared before the end of the stream")
		}
	}
}

func TestKeywordsAndIdentifiersDistinguished(t *testing.T) {
	tokens, err := Lex("func iffy")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[0].Kind != KindFunc {
		t.Fatalf("tokens[0].Kind = %v, want KindFunc", tokens[0].Kind)
	}
	if tokens[1].Kind != KindIdent || tokens[1].Lexeme != "iffy" {
		t.Fatalf("tokens[1] = %+v, want identifier \"iffy\"", tokens[1])
	}
}

func TestIntegerLiteralParsesValue(t *testing.T) {
	tokens, err := Lex("12345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[0].Kind != KindIntLiteral || tokens[0].IntValue != 12345 {
		t.Fatalf("tokens[0] = %+v, want IntLiteral 12345", tokens[0])
	}
}

func TestLineCommentSkipped(t *testing.T) {
	tokens, err := Lex("1 // trailing comment\n2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[0].IntValue != 1 || tokens[1].IntValue != 2 {
		t.Fatalf("tokens = %+v, want [1, 2, EOF]", tokens)
	}
	if tokens[1].Line != 2 {
		t.Fatalf("second literal line = %d, want 2", tokens[1].Line)
	}
}

func TestUnterminatedBlockCommentConsumesToEOF(t *testing.T) {
	tokens, err := Lex("1 /* never closed\nstill going")
	if err != nil {
		t.Fatalf("unexpected error from unterminated comment: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("tokens = %+v, want just [IntLiteral(1), EOF]", tokens)
	}
	if tokens[0].IntValue != 1 {
		t.Fatalf("tokens[0] = %+v", tokens[0])
	}
	if tokens[1].Kind != KindEOF {
		t.Fatalf("tokens[1].Kind = %v, want EOF", tokens[1].Kind)
	}
}

func TestTwoCharacterOperatorsDisambiguated(t *testing.T) {
	tokens, err := Lex("== != <= >= = < > && ||")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Kind{KindEq, KindNe, KindLe, KindGe, KindAssign, KindLt, KindGt, KindAnd, KindOr, KindEOF}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(tokens), len(want), tokens)
	}
	for i, k := range want {
		if tokens[i].Kind != k {
			t.Fatalf("tokens[%d].Kind = %v, want %v", i, tokens[i].Kind, k)
		}
	}
}

func TestBareAmpersandAndPipeAreErrorTokens(t *testing.T) {
	tokens, err := Lex("&")
	if err == nil {
		t.Fatal("expected an error for bare &")
	}
	if tokens[0].Kind != KindError || tokens[0].Lexeme != "&" {
		t.Fatalf("tokens[0] = %+v, want error token \"&\"", tokens[0])
	}

	tokens, err = Lex("|")
	if err == nil {
		t.Fatal("expected an error for bare |")
	}
	if tokens[0].Kind != KindError || tokens[0].Lexeme != "|" {
		t.Fatalf("tokens[0] = %+v, want error token \"|\"", tokens[0])
	}
}

func TestUnrecognizedCharacterReportsPosition(t *testing.T) {
	_, err := Lex("var x = 1;\n@bad")
	if err == nil {
		t.Fatal("expected an error for '@'")
	}
	if !strings.Contains(err.Error(), "line 2, column 0") {
		t.Fatalf("error = %q, want it to name line 2, column 0", err.Error())
	}
}

func TestErrorTokenDoesNotStopScanning(t *testing.T) {
	tokens, err := Lex("1 @ 2")
	if err == nil {
		t.Fatal("expected an error for '@'")
	}
	if len(tokens) != 4 {
		t.Fatalf("tokens = %+v, want [1, error, 2, EOF]", tokens)
	}
	if tokens[2].Kind != KindIntLiteral || tokens[2].IntValue != 2 {
		t.Fatalf("scanning should continue past the error token: %+v", tokens)
	}
}

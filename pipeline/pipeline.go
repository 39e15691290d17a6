// Package pipeline wires the four compiler phases (lexer, parser, type
// checker, code generator) into chain.Event instances, following the
// convention that every phase is an event and the context is their only
// shared channel.
package pipeline

import (
	"fmt"

	c "github.com/danshapiro/coretiny/codegen/c"
	"github.com/danshapiro/coretiny/codegen/ir"
	"github.com/danshapiro/coretiny/chain"
	"github.com/danshapiro/coretiny/chctx"
	"github.com/danshapiro/coretiny/config"
	"github.com/danshapiro/coretiny/corerr"
	"github.com/danshapiro/coretiny/lexer"
	"github.com/danshapiro/coretiny/parser"
	"github.com/danshapiro/coretiny/typecheck"
)

// Context keys shared between phases.
const (
	KeySourceCode = "source_code"
	KeyTokens     = "tokens"
	KeyAST        = "ast"
	KeyOutputCode = "output_code"
)

// LexEvent scans context key source_code into tokens.
func LexEvent() *chain.Event {
	return chain.NewEvent("lex", func(ctx *chctx.Context, userData any) chain.EventResult {
		raw, err := ctx.Get(KeySourceCode)
		if err != nil {
			return chain.Fail(corerr.NotFound, corerr.DetailFull, fmt.Sprintf("lex: %v", err))
		}
		source, ok := raw.(string)
		if !ok {
			return chain.Fail(corerr.InvalidParameter, corerr.DetailFull, "lex: source_code is not a string")
		}
		tokens, err := lexer.Lex(source)
		if err != nil {
			return chain.Fail(corerr.InvalidParameter, corerr.DetailFull, fmt.Sprintf("lex: %v", err))
		}
		if err := ctx.Set(KeyTokens, tokens); err != nil {
			return chain.Fail(corerr.InvalidParameter, corerr.DetailFull, fmt.Sprintf("lex: %v", err))
		}
		return chain.Ok()
	}, nil)
}

// ParseEvent parses context key tokens into ast.
func ParseEvent() *chain.Event {
	return chain.NewEvent("parse", func(ctx *chctx.Context, userData any) chain.EventResult {
		raw, err := ctx.Get(KeyTokens)
		if err != nil {
			return chain.Fail(corerr.NotFound, corerr.DetailFull, fmt.Sprintf("parse: %v", err))
		}
		tokens, ok := raw.([]lexer.Token)
		if !ok {
			return chain.Fail(corerr.InvalidParameter, corerr.DetailFull, "parse: tokens is not a token list")
		}
		prog, err := parser.Parse(tokens)
		if err != nil {
			return chain.Fail(corerr.InvalidParameter, corerr.DetailFull, fmt.Sprintf("parse: %v", err))
		}
		if err := ctx.Set(KeyAST, prog); err != nil {
			return chain.Fail(corerr.InvalidParameter, corerr.DetailFull, fmt.Sprintf("parse: %v", err))
		}
		return chain.Ok()
	}, nil)
}

// TypeCheckEvent mutates context key ast in place; it installs no new key.
func TypeCheckEvent() *chain.Event {
	return chain.NewEvent("typecheck", func(ctx *chctx.Context, userData any) chain.EventResult {
		raw, err := ctx.Get(KeyAST)
		if err != nil {
			return chain.Fail(corerr.NotFound, corerr.DetailFull, fmt.Sprintf("typecheck: %v", err))
		}
		prog, ok := raw.(*parser.Program)
		if !ok {
			return chain.Fail(corerr.InvalidParameter, corerr.DetailFull, "typecheck: ast is not a *parser.Program")
		}
		if err := typecheck.Check(prog); err != nil {
			return chain.Fail(corerr.InvalidParameter, corerr.DetailFull, fmt.Sprintf("typecheck: %v", err))
		}
		return chain.Ok()
	}, nil)
}

// CodegenEvent lowers context key ast into output_code, dispatching
// between the C and IR generators based on cfg.Target.
func CodegenEvent(cfg config.CompileConfig) *chain.Event {
	return chain.NewEvent("codegen", func(ctx *chctx.Context, userData any) chain.EventResult {
		raw, err := ctx.Get(KeyAST)
		if err != nil {
			return chain.Fail(corerr.NotFound, corerr.DetailFull, fmt.Sprintf("codegen: %v", err))
		}
		prog, ok := raw.(*parser.Program)
		if !ok {
			return chain.Fail(corerr.InvalidParameter, corerr.DetailFull, "codegen: ast is not a *parser.Program")
		}

		var output string
		var genErr error
		switch cfg.Target {
		case "IR":
			output, genErr = ir.Generate(prog, cfg)
		case "C", "":
			output, genErr = c.Generate(prog, cfg)
		default:
			return chain.Fail(corerr.InvalidParameter, corerr.DetailFull, fmt.Sprintf("codegen: unknown target %q", cfg.Target))
		}
		if genErr != nil {
			return chain.Fail(corerr.InvalidParameter, corerr.DetailFull, fmt.Sprintf("codegen: %v", genErr))
		}
		if err := ctx.Set(KeyOutputCode, output); err != nil {
			return chain.Fail(corerr.InvalidParameter, corerr.DetailFull, fmt.Sprintf("codegen: %v", err))
		}
		return chain.Ok()
	}, cfg)
}

// BuildChain assembles the four pipeline events in source order under the
// given fault mode, ready for source_code to be seeded and Execute called.
func BuildChain(mode chain.FaultMode, cfg config.CompileConfig) (*chain.Chain, error) {
	ch := chain.New(mode)
	for _, event := range []*chain.Event{LexEvent(), ParseEvent(), TypeCheckEvent(), CodegenEvent(cfg)} {
		if err := ch.AddEvent(event); err != nil {
			return nil, err
		}
	}
	return ch, nil
}

// Package driver provides the source-discovery and end-to-end compilation
// glue that sits outside the engine proper: finding source files, seeding
// a chain's context, executing it, and handing back the compiled output
// or the recorded failures.
package driver

import (
	"fmt"
	"io"
	"os"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/danshapiro/coretiny/chain"
	"github.com/danshapiro/coretiny/config"
	"github.com/danshapiro/coretiny/pipeline"
	"github.com/danshapiro/coretiny/telemetry"
)

// CollectSources expands a doublestar glob pattern (e.g. "testdata/**/*.tiny")
// against the working directory's filesystem into a sorted list of
// matching file paths.
func CollectSources(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("driver: invalid glob %q: %w", pattern, err)
	}
	return matches, nil
}

// CompileResult is what the driver hands back to its caller after running
// one source file through the pipeline.
type CompileResult struct {
	Path        string
	Output      string
	OutputDigest string
	ChainResult *chain.ChainResult
}

// CompileFile reads path, runs it through the four-phase pipeline under
// mode and cfg, and returns the emitted output alongside the chain's
// result. The output is empty (but ChainResult still populated) if
// compilation failed before codegen produced anything. telemetryOut, if
// non-nil, receives msgpack-encoded lifecycle events: one when the chain
// starts, one per chain phase, and one when the chain completes.
func CompileFile(path string, mode chain.FaultMode, cfg config.CompileConfig, telemetryOut io.Writer) (*CompileResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("driver: read %s: %w", path, err)
	}
	return CompileSource(path, string(source), mode, cfg, telemetryOut)
}

// CompileSource runs source text (already read into memory) through the
// pipeline, as CompileFile does for a file on disk. name is used only for
// the returned CompileResult.Path.
func CompileSource(name, source string, mode chain.FaultMode, cfg config.CompileConfig, telemetryOut io.Writer) (*CompileResult, error) {
	ch, err := pipeline.BuildChain(mode, cfg)
	if err != nil {
		return nil, fmt.Errorf("driver: build chain: %w", err)
	}

	var sink *telemetry.Sink
	if telemetryOut != nil {
		sink = telemetry.Init(telemetryOut)
		ch.SetTelemetry(sink)
		defer sink.Close()
	}

	if err := ch.Context().Set(pipeline.KeySourceCode, source); err != nil {
		return nil, fmt.Errorf("driver: seed source_code: %w", err)
	}

	result := ch.Execute()

	var output, digest string
	if raw, err := ch.Context().Get(pipeline.KeyOutputCode); err == nil {
		if s, ok := raw.(string); ok {
			output = s
		}
		if d, err := ch.Context().Digest(pipeline.KeyOutputCode); err == nil {
			digest = d
		}
	}

	return &CompileResult{Path: name, Output: output, OutputDigest: digest, ChainResult: result}, nil
}

// Command coretinyc is the thin command-line driver for the compilation
// engine: it reads a source file, runs it through the pipeline, prints the
// compiled output or the recorded failures, and exits 1 when the chain
// reports overall failure and 2 on a usage error or when the source or
// telemetry file cannot be opened.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danshapiro/coretiny/config"
	"github.com/danshapiro/coretiny/driver"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: coretinyc [--target=C|IR] [--fault-mode=strict|lenient|best_effort] [--telemetry=<path>] <source-file>")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	target := "C"
	faultMode := "strict"
	telemetryPath := ""
	var path string

	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--target="):
			target = strings.TrimPrefix(arg, "--target=")
		case strings.HasPrefix(arg, "--fault-mode="):
			faultMode = strings.TrimPrefix(arg, "--fault-mode=")
		case strings.HasPrefix(arg, "--telemetry="):
			telemetryPath = strings.TrimPrefix(arg, "--telemetry=")
		case strings.HasPrefix(arg, "--"):
			fmt.Fprintf(os.Stderr, "coretinyc: unknown flag %q\n", arg)
			usage()
			return 2
		default:
			path = arg
		}
	}
	if path == "" {
		usage()
		return 2
	}

	cfg := config.ChainConfig{FaultMode: faultMode, DetailLevel: "full"}
	mode, err := cfg.FaultModeValue()
	if err != nil {
		fmt.Fprintf(os.Stderr, "coretinyc: %v\n", err)
		return 2
	}

	var telemetryOut io.Writer
	if telemetryPath != "" {
		f, err := os.Create(telemetryPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "coretinyc: %v\n", err)
			return 2
		}
		defer f.Close()
		telemetryOut = f
	}

	result, err := driver.CompileFile(path, mode, config.CompileConfig{Target: target}, telemetryOut)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coretinyc: %v\n", err)
		return 2
	}

	for _, failure := range result.ChainResult.Failures {
		fmt.Fprintf(os.Stderr, "%s: %s (%s)\n", failure.EventName, failure.ErrorMessage, failure.ErrorCode)
	}

	if !result.ChainResult.Success {
		return 1
	}

	fmt.Print(result.Output)
	return 0
}

// Package config loads and validates chain and compilation configuration
// from YAML, using the pointer-field "unset vs explicit zero" idiom for
// ChainConfig's optional caps.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/danshapiro/coretiny/chain"
	"github.com/danshapiro/coretiny/corerr"
)

// ChainConfig is the runtime policy for a chain. Pointer fields distinguish
// "unset, take the default" from "explicitly set to the zero value".
type ChainConfig struct {
	FaultMode     string `yaml:"fault_mode" json:"fault_mode"`
	DetailLevel   string `yaml:"detail_level" json:"detail_level"`
	MaxEvents     *int   `yaml:"max_events,omitempty" json:"max_events,omitempty"`
	MaxMiddleware *int   `yaml:"max_middleware,omitempty" json:"max_middleware,omitempty"`
}

func (c *ChainConfig) applyDefaults() {
	if strings.TrimSpace(c.FaultMode) == "" {
		c.FaultMode = "strict"
	}
	if strings.TrimSpace(c.DetailLevel) == "" {
		c.DetailLevel = "full"
	}
	if c.MaxEvents == nil {
		n := chain.MaxEvents
		c.MaxEvents = &n
	}
	if c.MaxMiddleware == nil {
		n := chain.MaxMiddleware
		c.MaxMiddleware = &n
	}
}

// FaultModeValue parses FaultMode into a chain.FaultMode.
func (c ChainConfig) FaultModeValue() (chain.FaultMode, error) {
	switch strings.ToLower(strings.TrimSpace(c.FaultMode)) {
	case "strict":
		return chain.FaultStrict, nil
	case "lenient":
		return chain.FaultLenient, nil
	case "best_effort", "besteffort":
		return chain.FaultBestEffort, nil
	case "custom":
		return chain.FaultCustom, nil
	default:
		return 0, fmt.Errorf("config: unknown fault_mode %q", c.FaultMode)
	}
}

// DetailLevelValue parses DetailLevel into a corerr.DetailLevel.
func (c ChainConfig) DetailLevelValue() (corerr.DetailLevel, error) {
	switch strings.ToLower(strings.TrimSpace(c.DetailLevel)) {
	case "full":
		return corerr.DetailFull, nil
	case "minimal":
		return corerr.DetailMinimal, nil
	default:
		return 0, fmt.Errorf("config: unknown detail_level %q", c.DetailLevel)
	}
}

// CompileConfig is the per-compilation user-data handed to the codegen
// event.
type CompileConfig struct {
	Target       string `yaml:"target" json:"target"`
	EmitComments bool   `yaml:"emit_comments" json:"emit_comments"`
	PrettyPrint  bool   `yaml:"pretty_print" json:"pretty_print"`
}

// LoadChainConfig reads and parses a YAML chain configuration file,
// applying defaults for any field left unset.
func LoadChainConfig(path string) (ChainConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ChainConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg ChainConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return ChainConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadCompileConfig reads and parses a YAML per-compilation configuration
// file.
func LoadCompileConfig(path string) (CompileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return CompileConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg CompileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return CompileConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if strings.TrimSpace(cfg.Target) == "" {
		cfg.Target = "C"
	}
	return cfg, nil
}

const chainConfigSchemaDoc = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "fault_mode": {"type": "string", "enum": ["strict", "lenient", "best_effort", "custom"]},
    "detail_level": {"type": "string", "enum": ["full", "minimal"]},
    "max_events": {"type": "integer", "minimum": 0, "maximum": 1024},
    "max_middleware": {"type": "integer", "minimum": 0, "maximum": 16}
  },
  "required": ["fault_mode", "detail_level"]
}`

var chainConfigSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("chain_config.json", strings.NewReader(chainConfigSchemaDoc)); err != nil {
		panic(fmt.Sprintf("config: embedded schema is invalid: %v", err))
	}
	schema, err := compiler.Compile("chain_config.json")
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema failed to compile: %v", err))
	}
	chainConfigSchema = schema
}

// ValidateChainConfig checks cfg against the embedded JSON Schema before a
// chain is constructed from it, rejecting out-of-range caps and unknown
// enum values up front instead of failing deep inside chain construction.
func ValidateChainConfig(cfg ChainConfig) error {
	applied := cfg
	applied.applyDefaults()

	doc := map[string]any{
		"fault_mode":   applied.FaultMode,
		"detail_level": applied.DetailLevel,
	}
	if applied.MaxEvents != nil {
		doc["max_events"] = *applied.MaxEvents
	}
	if applied.MaxMiddleware != nil {
		doc["max_middleware"] = *applied.MaxMiddleware
	}

	if err := chainConfigSchema.Validate(doc); err != nil {
		return fmt.Errorf("config: chain config invalid: %w", err)
	}
	return nil
}

// Package config loads process configuration from the environment,
// following the env-var-driven wiring convention used across the example
// pack (no CLI/flag library, since a CLI surface is explicitly out of scope
// for this kernel). A short YAML document supplies the Validator's domain
// allow/deny scope list.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/premanandc/agent-fleet/validator"
)

// Config is the fully-resolved process configuration (§6 "Configuration
// (environment)").
type Config struct {
	LLMProvider     string // ROUTER_LLM_PROVIDER: anthropic | openai | bedrock
	LLMModel        string // ROUTER_LLM_MODEL
	ControlPlaneURL string // ROUTER_CONTROL_PLANE_URL
	MaxReplans      int    // ROUTER_MAX_REPLANS
	TaskTimeout     time.Duration
	LLMTimeout      time.Duration
	RunTimeout      time.Duration
	StateBackend    string // ROUTER_STATE_BACKEND: inmem | redis
}

const (
	envLLMProvider     = "ROUTER_LLM_PROVIDER"
	envLLMModel        = "ROUTER_LLM_MODEL"
	envControlPlaneURL = "ROUTER_CONTROL_PLANE_URL"
	envMaxReplans      = "ROUTER_MAX_REPLANS"
	envTaskTimeout     = "ROUTER_TASK_TIMEOUT"
	envLLMTimeout      = "ROUTER_LLM_TIMEOUT"
	envRunTimeout      = "ROUTER_RUN_TIMEOUT"
	envStateBackend    = "ROUTER_STATE_BACKEND"
)

// Defaults applied when the corresponding env var is unset.
const (
	DefaultMaxReplans   = 3
	DefaultTaskTimeout  = 300 * time.Second
	DefaultLLMTimeout   = 60 * time.Second
	DefaultRunTimeout   = 20 * time.Minute
	DefaultStateBackend = "inmem"
)

// FromEnv resolves a Config from the process environment, applying defaults
// for anything unset.
func FromEnv() (Config, error) {
	cfg := Config{
		LLMProvider:     getenvDefault(envLLMProvider, "anthropic"),
		LLMModel:        os.Getenv(envLLMModel),
		ControlPlaneURL: os.Getenv(envControlPlaneURL),
		MaxReplans:      DefaultMaxReplans,
		TaskTimeout:     DefaultTaskTimeout,
		LLMTimeout:      DefaultLLMTimeout,
		RunTimeout:      DefaultRunTimeout,
		StateBackend:    getenvDefault(envStateBackend, DefaultStateBackend),
	}

	if v := os.Getenv(envMaxReplans); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", envMaxReplans, err)
		}
		cfg.MaxReplans = n
	}

	for env, dst := range map[string]*time.Duration{
		envTaskTimeout: &cfg.TaskTimeout,
		envLLMTimeout:  &cfg.LLMTimeout,
		envRunTimeout:  &cfg.RunTimeout,
	} {
		if v := os.Getenv(env); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", env, err)
			}
			*dst = d
		}
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// scopeDocument is the on-disk shape of the Validator's domain allow/deny
// list (§4.1).
type scopeDocument struct {
	InScope  []string `yaml:"in_scope"`
	OutScope []string `yaml:"out_scope"`
}

// LoadScope reads a YAML scope document from path, used to configure the
// Validator's in-scope/out-of-scope domain lists.
func LoadScope(path string) (validator.Scope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return validator.Scope{}, fmt.Errorf("read scope document %q: %w", path, err)
	}
	var doc scopeDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return validator.Scope{}, fmt.Errorf("parse scope document %q: %w", path, err)
	}
	return validator.Scope{InScope: doc.InScope, OutScope: doc.OutScope}, nil
}

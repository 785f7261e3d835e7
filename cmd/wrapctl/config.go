package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-descriptor/hooks"
	"github.com/goliatone/go-descriptor/internal/hydrate"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

const (
	envPrefix = "WRAPCTL"

	cfgKeyFile     = "file"
	cfgKeyEngine   = "engine"
	cfgKeyLogLevel = "log_level"

	defaultEngine   = hooks.EngineExpr
	defaultLogLevel = "warn"
)

// newConfig returns a viper instance reading WRAPCTL_* environment variables.
func newConfig() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(cfgKeyEngine, defaultEngine)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	return v
}

// loadDocument reads the definition file named by the file key. YAML, JSON and
// TOML are accepted; viper lower-cases map keys, which the decoder tolerates.
func loadDocument(v *viper.Viper) (hydrate.Document, error) {
	path := v.GetString(cfgKeyFile)
	if path == "" {
		return hydrate.Document{}, fmt.Errorf("wrapctl: --file or %s_FILE is required", envPrefix)
	}
	doc := viper.New()
	doc.SetConfigFile(path)
	if err := doc.ReadInConfig(); err != nil {
		return hydrate.Document{}, fmt.Errorf("wrapctl: read %s: %w", path, err)
	}
	payload := doc.AllSettings()
	fields, err := originalFields(path)
	if err != nil {
		return hydrate.Document{}, fmt.Errorf("wrapctl: read %s: %w", path, err)
	}
	if fields != nil {
		payload["fields"] = fields
	}
	return hydrate.NewDocumentDecoder().Decode(hydrate.Context{Source: path}, payload)
}

// originalFields decodes the fields section again with its keys as written.
// Viper folds map keys to lower case, which would detach a camelCase field
// from the layers stacked on it.
func originalFields(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "yaml", "yml":
		err = yaml.Unmarshal(raw, &doc)
	case "json":
		err = json.Unmarshal(raw, &doc)
	case "toml":
		err = toml.Unmarshal(raw, &doc)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for key, value := range doc {
		if !strings.EqualFold(key, "fields") {
			continue
		}
		fields, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("fields is %T, want object", value)
		}
		return fields, nil
	}
	return nil, nil
}

// resolver applies the configured default engine to hooks that name none.
func resolver(v *viper.Viper, opts ...hooks.EngineOption) hydrate.Resolver {
	fallback := v.GetString(cfgKeyEngine)
	return func(engine string) (hooks.Evaluator, error) {
		if engine == "" {
			engine = fallback
		}
		return hooks.Lookup(engine, opts...)
	}
}

func logLevel(v *viper.Viper) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString(cfgKeyLogLevel))); err != nil {
		return level, fmt.Errorf("wrapctl: %w", err)
	}
	return level, nil
}

// Package config loads client runtime configuration from YAML files and
// the process environment, implementing core.RawConfigLoader so the
// resolved values feed the service's layered option stack.
package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/goliatone/go-client-runtime/core"
)

const defaultEnvPrefix = "CLIENT_"

// FileLoader reads a YAML config file and overlays environment variables.
// A missing file is not an error; the environment alone may configure the
// client. CLIENT_TIMEOUTS__ATTEMPT=2s maps to timeouts.attempt.
type FileLoader struct {
	// Path to the YAML file. Empty skips file loading entirely.
	Path string
	// EnvPrefix for environment overrides. Empty defaults to CLIENT_.
	EnvPrefix string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

func (l *FileLoader) LoadRaw(context.Context) (map[string]any, error) {
	k := koanf.New(".")

	if strings.TrimSpace(l.Path) != "" {
		if err := k.Load(file.Provider(l.Path), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	prefix := l.EnvPrefix
	if prefix == "" {
		prefix = defaultEnvPrefix
	}
	if err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, prefix)), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	return k.Raw(), nil
}

var _ core.RawConfigLoader = (*FileLoader)(nil)

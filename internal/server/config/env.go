package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/identity/internal/timex"
)

// EnvPrefix is prepended to every env tag of Config.
const EnvPrefix = "IDENTITY_"

// parseEnv overlays Config with the IDENTITY_* variables that are set.
// Durations accept the same formats as the JSON file ("1 hour", "90m").
func parseEnv(config *Config, environ map[string]string) error {
	opts := env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(time.Duration(0)): func(v string) (any, error) {
				return timex.ParseDuration(v)
			},
		},
	}
	if err := env.ParseWithOptions(config, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

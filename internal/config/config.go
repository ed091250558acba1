// Package config loads process-wide settings from the environment for
// behavior the CLI does not expose as a flag.
package config

import "github.com/caarlos0/env/v6"

// Config holds settings sourced from the environment.
type Config struct {
	// Strict stops a multi-file command at the first file that fails to
	// parse or compile, instead of reporting every file's errors and
	// continuing on to the next one.
	Strict bool `env:"LUACODE_STRICT" envDefault:"false"`

	// MaxConstants bounds how many entries a single function's constant
	// pool may hold; the compile command rejects a Prototype that exceeds
	// it rather than silently dumping an oversized chunk.
	MaxConstants int `env:"LUACODE_MAX_CONSTANTS" envDefault:"262144"`
}

// Load reads Config from the process environment, applying envDefault
// values for anything unset.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

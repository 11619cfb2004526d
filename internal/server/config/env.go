package config

import "github.com/caarlos0/env/v11"

// parseEnv overlays environment variables (CLAMEA_* tags on Config) onto the
// current values. Variables that are unset leave the corresponding fields
// untouched, so the overlay order defaults -> json -> env -> flags holds.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}

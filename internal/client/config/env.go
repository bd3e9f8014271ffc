package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays PROJECTHUB_* variables onto cfg. Unset variables keep
// the current value.
func parseEnv(cfg *Config) {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		panic(err)
	}
}

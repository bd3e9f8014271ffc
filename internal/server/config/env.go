package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays PROJECTHUB_* environment variables. Variables that are
// not set leave the current value alone. Durations use time.ParseDuration
// syntax. A malformed value panics, like a malformed JSON file.
func parseEnv(config *Config) {
	if err := cleanenv.ReadEnv(config); err != nil {
		panic(err)
	}
}

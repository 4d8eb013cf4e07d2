package procsup

import "github.com/wagiedev/procsup-go/internal/config"

// LoadSettings reads settings from configFile, or from config.yaml in the
// user config directory or the working directory when configFile is empty.
// PROCSUP_* environment variables override file values, e.g.
// PROCSUP_EXCHANGE_TIMEOUT=2s.
func LoadSettings(configFile string) (*Settings, error) {
	return config.Load(config.NewViper(configFile))
}

package config

import "go.uber.org/fx"

// NewProvider supplies customConfig when given, otherwise loads the
// configuration from the environment when the fx graph is built.
func NewProvider(customConfig *Config) fx.Option {
	if customConfig != nil {
		return fx.Supply(customConfig)
	}

	return fx.Provide(func() (*Config, error) {
		cfg := &Config{}
		if err := LoadConfig(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	})
}

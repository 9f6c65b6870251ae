package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 10
	}
	if cfg.Generate.Directive == "" {
		cfg.Generate.Directive = "classnames:const"
	}
	if cfg.Generate.OutputSuffix == "" {
		cfg.Generate.OutputSuffix = "_classnames.go"
	}
	if cfg.Generate.Extensions == nil {
		cfg.Generate.Extensions = []string{".go"}
	}
	if cfg.Generate.DebounceMS == 0 {
		cfg.Generate.DebounceMS = 400
	}
	if cfg.Tracing.SampleRatio <= 0 || cfg.Tracing.SampleRatio > 1 {
		cfg.Tracing.SampleRatio = 1
	}
}

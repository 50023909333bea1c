package config

import "testing"

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"empty output dir", func(c *Config) { c.OutputDir = "" }, true},
		{"zero threads", func(c *Config) { c.Threads = 0 }, true},
		{"bad max size", func(c *Config) { c.MaxSize = "lots" }, true},
		{"plain numeric max size", func(c *Config) { c.MaxSize = "100" }, false},
		{"lowercase unit", func(c *Config) { c.MaxSize = "30g" }, false},
		{"zero short min length", func(c *Config) { c.Short.MinLength = 0 }, true},
		{"zero long min length", func(c *Config) { c.Long.MinLength = 0 }, true},
		{"negative quality", func(c *Config) { c.Short.QualityPhred = -1 }, true},
		{"zero cut window", func(c *Config) { c.Short.CutWindowSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

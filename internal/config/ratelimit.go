package config

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v4"
)

// RateLimitRuleは1ルート分の固定ウィンドウ設定
type RateLimitRule struct {
	Limit         int64 `yaml:"limit"`
	WindowSeconds int   `yaml:"window_seconds"`
}

func (r RateLimitRule) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

type rateLimitFile struct {
	SweepIntervalSeconds int                      `yaml:"sweep_interval_seconds"`
	Rules                map[string]RateLimitRule `yaml:"rules"`
}

// RateLimitConfigはレート制限の全体設定
type RateLimitConfig struct {
	SweepInterval time.Duration
	Rules         map[string]RateLimitRule
}

func (c RateLimitConfig) Rule(name string) RateLimitRule {
	if r, ok := c.Rules[name]; ok {
		return r
	}
	return RateLimitRule{Limit: 10, WindowSeconds: 60}
}

func DefaultRateLimits() RateLimitConfig {
	return RateLimitConfig{
		SweepInterval: 5 * time.Minute,
		Rules: map[string]RateLimitRule{
			"contact":           {Limit: 5, WindowSeconds: 60},
			"subscribe":         {Limit: 5, WindowSeconds: 60},
			"gc-balance":        {Limit: 10, WindowSeconds: 60},
			"gc-validate":       {Limit: 10, WindowSeconds: 60},
			"discount-validate": {Limit: 20, WindowSeconds: 60},
			"order-lookup":      {Limit: 10, WindowSeconds: 60},
		},
	}
}

// LoadRateLimitRulesはYAMLのルールをデフォルトに上書きする。pathが空ならデフォルトのまま。
func LoadRateLimitRules(path string) (RateLimitConfig, error) {
	cfg := DefaultRateLimits()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RateLimitConfig{}, fmt.Errorf("failed to read rate limit file: %w", err)
	}

	var f rateLimitFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return RateLimitConfig{}, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if f.SweepIntervalSeconds > 0 {
		cfg.SweepInterval = time.Duration(f.SweepIntervalSeconds) * time.Second
	}
	for name, r := range f.Rules {
		if r.Limit <= 0 || r.WindowSeconds <= 0 {
			return RateLimitConfig{}, fmt.Errorf("rate limit rule %q: limit and window_seconds must be > 0", name)
		}
		cfg.Rules[name] = r
	}
	return cfg, nil
}

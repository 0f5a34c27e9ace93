package config

import "time"

// AnswerCacheConfig controls the Redis cache in front of the AI proxy.
// Answers are sampled with a non-zero temperature, so caching is opt-in.
type AnswerCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadAnswerCacheConfig reads AI_CACHE_* variables.
func LoadAnswerCacheConfig() AnswerCacheConfig {
	cfg := AnswerCacheConfig{
		Enabled: envBool("AI_CACHE_ENABLED", false),
		TTL:     envDur("AI_CACHE_TTL", 10*time.Minute),
		Prefix:  envStr("AI_CACHE_PREFIX", "ai:answer"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return cfg
}

package collectmarketinsights

import (
	"time"

	"readiness-workers/internal/common/config"
	"readiness-workers/internal/providers"
	"readiness-workers/pkg/registry"
)

type Config struct {
	Timeout time.Duration
	// DefaultLimit applies per source when the job does not set limit.
	DefaultLimit int
}

func LoadConfig(appCfg *config.Config, activity *registry.Activity) *Config {
	cfg := &Config{
		Timeout:      activity.TimeoutOr(90 * time.Second),
		DefaultLimit: providers.DefaultLimit,
	}
	if appCfg == nil {
		return cfg
	}
	if w, ok := appCfg.Workers[TaskType]; ok && w.Timeout > 0 {
		cfg.Timeout = config.GetDuration(w.Timeout)
	}
	if appCfg.Scoring.InsightLimit > 0 {
		cfg.DefaultLimit = min(appCfg.Scoring.InsightLimit, providers.MaxLimit)
	}
	return cfg
}

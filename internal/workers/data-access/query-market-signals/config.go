package querymarketsignals

import (
	"time"

	"readiness-workers/internal/common/config"
	"readiness-workers/pkg/registry"
)

type Config struct {
	Timeout time.Duration
	Index   string
}

func LoadConfig(appCfg *config.Config, activity *registry.Activity) *Config {
	cfg := &Config{Timeout: activity.TimeoutOr(30 * time.Second)}
	if appCfg != nil {
		cfg.Index = appCfg.Scoring.ArchiveIndex
		if w, ok := appCfg.Workers[TaskType]; ok && w.Timeout > 0 {
			cfg.Timeout = config.GetDuration(w.Timeout)
		}
	}
	return cfg
}

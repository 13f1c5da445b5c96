package generatereadinessscore

import (
	"time"

	"readiness-workers/internal/common/config"
	"readiness-workers/pkg/registry"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig takes the timeout from the worker config when set, otherwise from
// the registered activity.
func LoadConfig(appCfg *config.Config, activity *registry.Activity) *Config {
	cfg := &Config{Timeout: activity.TimeoutOr(2 * time.Minute)}
	if appCfg != nil {
		if w, ok := appCfg.Workers[TaskType]; ok && w.Timeout > 0 {
			cfg.Timeout = config.GetDuration(w.Timeout)
		}
	}
	return cfg
}

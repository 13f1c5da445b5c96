package sendscoresummary

import (
	"time"

	"readiness-workers/internal/common/config"
	"readiness-workers/pkg/registry"
)

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	FromEmail    string
}

func LoadConfig(appCfg *config.Config, activity *registry.Activity) *Config {
	cfg := &Config{Timeout: activity.TimeoutOr(30 * time.Second)}
	if appCfg == nil {
		return cfg
	}
	cfg.EmailEnabled = appCfg.Notifications.Email.Enabled
	cfg.FromEmail = appCfg.Notifications.Email.FromEmail
	if w, ok := appCfg.Workers[TaskType]; ok && w.Timeout > 0 {
		cfg.Timeout = config.GetDuration(w.Timeout)
	}
	return cfg
}

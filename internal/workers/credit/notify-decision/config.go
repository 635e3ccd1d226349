// internal/workers/credit/notify-decision/config.go
package notifydecision

import (
	"time"

	"credit-risk-workers/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	OnlyOnDenial bool
	FromEmail    string
	Timeout      time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	n := cfg.Notifications
	return &Config{
		EmailEnabled: n.Email.Enabled,
		SMSEnabled:   n.SMS.Enabled,
		OnlyOnDenial: n.SMS.OnlyOnDenial,
		FromEmail:    n.Email.FromEmail,
		Timeout:      config.GetDuration(wcfg.Timeout),
	}
}

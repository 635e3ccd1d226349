// internal/workers/credit/score-applicant/config.go
package scoreapplicant

import (
	"time"

	"credit-risk-workers/internal/common/config"
)

type Config struct {
	DefaultStrategy string
	Timeout         time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		DefaultStrategy: cfg.Scoring.DefaultStrategy,
		Timeout:         config.GetDuration(wcfg.Timeout),
	}
}

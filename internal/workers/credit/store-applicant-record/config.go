// internal/workers/credit/store-applicant-record/config.go
package storeapplicantrecord

import (
	"time"

	"credit-risk-workers/internal/common/config"
)

type Config struct {
	Collection string
	Timeout    time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Collection: cfg.Records.Collection,
		Timeout:    config.GetDuration(wcfg.Timeout),
	}
}

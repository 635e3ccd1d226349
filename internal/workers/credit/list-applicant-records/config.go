// internal/workers/credit/list-applicant-records/config.go
package listapplicantrecords

import (
	"time"

	"credit-risk-workers/internal/common/config"
)

type Config struct {
	Collection string
	// MaxRecords caps the records returned as process variables. Zero means
	// no cap.
	MaxRecords int
	Timeout    time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Collection: cfg.Records.Collection,
		MaxRecords: 1000,
		Timeout:    config.GetDuration(wcfg.Timeout),
	}
}

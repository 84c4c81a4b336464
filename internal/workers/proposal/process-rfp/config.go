// internal/workers/proposal/process-rfp/config.go
package processrfp

import "time"

type Config struct {
	Timeout       time.Duration
	MaxJobsActive int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       5 * time.Minute,
		MaxJobsActive: 4,
	}
}

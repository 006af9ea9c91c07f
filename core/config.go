package core

import (
	"fmt"
	"strings"
	"time"
)

// TimeoutConfig holds the two independent timeout budgets. Zero disables a
// budget.
type TimeoutConfig struct {
	Operation time.Duration `koanf:"operation" mapstructure:"operation"`
	Attempt   time.Duration `koanf:"attempt" mapstructure:"attempt"`
}

type Config struct {
	ServiceName string        `koanf:"service_name" mapstructure:"service_name"`
	Timeouts    TimeoutConfig `koanf:"timeouts" mapstructure:"timeouts"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "client-runtime",
		Timeouts:    TimeoutConfig{},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Timeouts.Operation < 0 {
		return fmt.Errorf("core: timeouts.operation must not be negative")
	}
	if c.Timeouts.Attempt < 0 {
		return fmt.Errorf("core: timeouts.attempt must not be negative")
	}
	return nil
}

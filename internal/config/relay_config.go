package config

import "fmt"

// RelayConfig holds what the outbox relay needs and nothing more.
type RelayConfig struct {
	DatabaseURL string `mapstructure:"DB_CONNECTION_STRING"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	QueueName   string `mapstructure:"PATIENT_EVENTS_QUEUE"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	Env         string `mapstructure:"ENV"`
}

func LoadRelayConfig() (*RelayConfig, error) {
	v := newViper()
	v.SetDefault("PATIENT_EVENTS_QUEUE", "patient-events")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENV", "development")
	for _, key := range []string{"DB_CONNECTION_STRING", "RABBITMQ_URL", "PATIENT_EVENTS_QUEUE", "LOG_LEVEL", "ENV"} {
		_ = v.BindEnv(key)
	}
	_ = v.ReadInConfig()

	cfg := &RelayConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal relay config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DB_CONNECTION_STRING environment variable is required")
	}
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL environment variable is required")
	}
	return cfg, nil
}

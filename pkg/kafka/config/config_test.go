package kafka_config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if len(cfg.Brokers) != 1 || cfg.Brokers[0] != DefaultKafkaBrokers {
		t.Errorf("brokers = %v", cfg.Brokers)
	}
	if cfg.PaymentCompletedTopic != DefaultPaymentCompletedTopic {
		t.Errorf("payment topic = %q", cfg.PaymentCompletedTopic)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " k1:9092 , k2:9092")
	t.Setenv(EnvKafkaConsumerGroupID, "rk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[0] != "k1:9092" || cfg.Brokers[1] != "k2:9092" {
		t.Errorf("brokers = %q", cfg.Brokers)
	}
	if cfg.ConsumerGroupID != "rk-test" {
		t.Errorf("group = %q", cfg.ConsumerGroupID)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "consumer topic equals producer topic",
			mutate:  func(c *Config) { c.PaymentCompletedTopic = c.StatusChangedTopic },
			wantErr: "must use different topics",
		},
		{
			name:    "empty dlq",
			mutate:  func(c *Config) { c.DLQTopic = "" },
			wantErr: "DLQTopic cannot be empty",
		},
		{
			name:    "heartbeat not below session timeout",
			mutate:  func(c *Config) { c.ConsumerHeartbeatInterval = c.ConsumerSessionTimeout },
			wantErr: "must be shorter than ConsumerSessionTimeout",
		},
		{
			name:    "unknown compression",
			mutate:  func(c *Config) { c.ProducerCompression = "brotli" },
			wantErr: "ProducerCompression",
		},
		{
			name:    "non-positive duration",
			mutate:  func(c *Config) { c.ConsumerMaxWait = 0 },
			wantErr: "ConsumerMaxWait must be positive",
		},
		{
			name:    "explicit offset",
			mutate:  func(c *Config) { c.ConsumerStartOffset = 42 },
			wantErr: "ConsumerStartOffset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.ProducerMaxAttempts = 0
	cfg.ProducerBatchTimeout = -time.Second

	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"ProducerMaxAttempts", "ProducerBatchTimeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

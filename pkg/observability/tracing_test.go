package observability

import (
	"context"
	"testing"

	"roomkeeper/pkg/logger"
)

func TestSetupTracing_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), TracingConfig{ServiceName: "test"}, logger.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestExporterOptions(t *testing.T) {
	tests := []struct {
		endpoint string
		wantErr  bool
		wantLen  int
	}{
		{"collector:4318", false, 2},
		{"http://collector:4318", false, 3},
		{"https://otlp.example.com/otlp", false, 2},
		{"http://bad host:4318", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			opts, err := exporterOptions(tt.endpoint)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(opts) != tt.wantLen {
				t.Errorf("got %d options, want %d", len(opts), tt.wantLen)
			}
		})
	}
}

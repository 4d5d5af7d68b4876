package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "salesagg.yaml")
	requireNoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	requireNoError(t, err)

	rc := cfg.Aggregation.Runtime()
	if !rc.EnableRealTimeUpdates || rc.BatchSize != 100 || rc.UpdateInterval != 5*time.Second {
		t.Fatalf("unexpected runtime defaults: %+v", rc)
	}
	opts := cfg.Aggregation.Options()
	if opts.MaxPending != 100000 || opts.Retry.MaxAttempts != 5 || opts.Retry.MaxDelay != 5*time.Minute {
		t.Fatalf("unexpected engine option defaults: %+v", opts)
	}
	if cfg.Database.EffectiveAggregateStore() != "postgres" {
		t.Fatalf("expected aggregate store to default to database.type, got %q", cfg.Database.EffectiveAggregateStore())
	}
	if cfg.Feed.Enabled || cfg.Cache.Enabled {
		t.Fatal("feed and cache must be opt-in")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "127.0.0.1"
  seller_rate_limit: 20
database:
  type: "memory"
  aggregate_store: "mongo"
  mongo:
    uri: "mongodb://localhost:27017"
aggregation:
  batch_size: 500
  update_interval: "250ms"
  time_zone: "America/New_York"
cache:
  enabled: true
  ttl: "1m"
feed:
  enabled: true
  brokers: "kafka-1:9092, kafka-2:9092"
  codec: "protobuf"
logging:
  format: "json"
`)

	cfg, err := Load(path)
	requireNoError(t, err)

	if cfg.Server.Port != 9090 || cfg.Server.SellerRateLimit != 20 {
		t.Fatalf("server section not applied: %+v", cfg.Server)
	}
	if cfg.Database.EffectiveAggregateStore() != "mongo" || cfg.Database.Mongo.Collection != "sales_aggregates" {
		t.Fatalf("database section not applied: %+v", cfg.Database)
	}
	if got := cfg.Aggregation.Runtime(); got.BatchSize != 500 || got.UpdateInterval != 250*time.Millisecond {
		t.Fatalf("aggregation section not applied: %+v", got)
	}
	loc, err := cfg.Aggregation.Location()
	requireNoError(t, err)
	if loc.String() != "America/New_York" {
		t.Fatalf("unexpected location %s", loc)
	}
	if cfg.Cache.TTLDuration() != time.Minute {
		t.Fatalf("unexpected cache ttl %s", cfg.Cache.TTLDuration())
	}
	if brokers := cfg.Feed.BrokerList(); len(brokers) != 2 || brokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", brokers)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
aggregation:
  batch_size: 500
`)
	t.Setenv("SALESAGG_AGGREGATION__BATCH_SIZE", "42")
	t.Setenv("SALESAGG_AGGREGATION__ENABLE_REAL_TIME_UPDATES", "false")
	t.Setenv("SALESAGG_SERVER__PORT", "7070")

	cfg, err := Load(path)
	requireNoError(t, err)

	rc := cfg.Aggregation.Runtime()
	if rc.BatchSize != 42 || rc.EnableRealTimeUpdates {
		t.Fatalf("env overrides not applied: %+v", rc)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected port 7070, got %d", cfg.Server.Port)
	}
}

func TestLoad_InvalidConfigFailsStartup(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "server port",
			body:    "server:\n  port: -1\n",
			wantErr: "invalid server.port",
		},
		{
			name:    "update interval",
			body:    "aggregation:\n  update_interval: \"soon\"\n",
			wantErr: "invalid aggregation.update_interval",
		},
		{
			name:    "zero batch size",
			body:    "aggregation:\n  batch_size: 0\n",
			wantErr: "batch_size must be positive",
		},
		{
			name:    "retry delays inverted",
			body:    "aggregation:\n  retry_base_delay: \"1m\"\n  retry_max_delay: \"1s\"\n",
			wantErr: "retry_max_delay",
		},
		{
			name:    "time zone",
			body:    "aggregation:\n  time_zone: \"Mars/Olympus\"\n",
			wantErr: "invalid aggregation.time_zone",
		},
		{
			name:    "database type",
			body:    "database:\n  type: \"sqlite\"\n",
			wantErr: "unsupported database.type",
		},
		{
			name:    "mongo without uri",
			body:    "database:\n  aggregate_store: \"mongo\"\n",
			wantErr: "database.mongo.uri is required",
		},
		{
			name:    "feed codec",
			body:    "feed:\n  enabled: true\n  codec: \"avro\"\n",
			wantErr: "invalid feed.codec",
		},
		{
			name:    "logging level",
			body:    "logging:\n  level: \"verbose\"\n",
			wantErr: "invalid logging.level",
		},
		{
			name:    "missing alias file",
			body:    "aggregation:\n  channel_aliases_file: \"/nonexistent/channels.yaml\"\n",
			wantErr: "channel_aliases_file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to load config file") {
		t.Fatalf("expected file load error, got %v", err)
	}
}

func requireNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

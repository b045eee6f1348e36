// Package integration cross-checks rkv against a real Redis Cluster
// deployment, reading its target from integration.yaml the way the
// teacher's own integration suite reads source/target addresses — skipped
// entirely when that file is absent so `go test ./...` never requires a
// live cluster.
package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	rkv "github.com/boomballa/rkv"
	"github.com/boomballa/rkv/internal/rkvconfig"
	"github.com/boomballa/rkv/internal/testutil"
)

type config struct {
	Seeds    []string `yaml:"seeds"`
	Password string   `yaml:"password"`
}

func loadConfig(t *testing.T) config {
	t.Helper()
	const path = "integration.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("skipping integration test: integration.yaml not found. Create it with seeds and password fields to run against a live cluster.")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

func TestSetGetAgainstLiveCluster(t *testing.T) {
	cfg := loadConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := rkvconfig.DefaultOptions()
	opts.Seeds = cfg.Seeds
	opts.Password = cfg.Password
	client, err := rkv.Dial(ctx, opts)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	oracle := testutil.NewOracle(testutil.OracleConfig{Addrs: cfg.Seeds, Password: cfg.Password})
	defer oracle.Close()
	if err := oracle.Ping(ctx); err != nil {
		t.Skipf("skipping: oracle cannot reach cluster: %v", err)
	}

	key := "rkv-integration-test-key"
	value := []byte("rkv-integration-test-value")

	if err := client.Set(ctx, key, value); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(value) {
		t.Fatalf("Get returned %q, want %q", got, value)
	}
	if err := oracle.CrossCheckGet(ctx, key, value); err != nil {
		t.Fatalf("cross-check against go-redis failed: %v", err)
	}

	if _, err := client.Del(ctx, key); err != nil {
		t.Fatalf("Del: %v", err)
	}
}

func TestClusterSlotsAgainstLiveCluster(t *testing.T) {
	cfg := loadConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := rkvconfig.DefaultOptions()
	opts.Seeds = cfg.Seeds
	opts.Password = cfg.Password
	client, err := rkv.Dial(ctx, opts)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	ranges, err := client.ClusterSlots(ctx)
	if err != nil {
		t.Fatalf("ClusterSlots: %v", err)
	}
	if len(ranges) == 0 {
		t.Fatal("expected at least one slot range from a live cluster")
	}
}

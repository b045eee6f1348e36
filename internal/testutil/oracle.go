package testutil

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// OracleConfig points at a real Redis Cluster deployment to check rkv's
// behavior against, playing the same role
// boomballa-df2redis/internal/comparator.RunSimpleComparison's src/tgt
// pair played for migration verification — except here both sides read
// the same live cluster, one through rkv and one through go-redis.
type OracleConfig struct {
	Addrs    []string
	Password string
}

// Oracle wraps a go-redis ClusterClient used purely as ground truth in
// integration tests; it is never part of the production dispatch path.
type Oracle struct {
	rdb *redis.ClusterClient
}

// NewOracle dials a go-redis ClusterClient against cfg.
func NewOracle(cfg OracleConfig) *Oracle {
	return &Oracle{rdb: redis.NewClusterClient(&redis.ClusterOptions{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})}
}

// Close releases the oracle's connections.
func (o *Oracle) Close() error { return o.rdb.Close() }

// Ping verifies the oracle can reach the cluster, surfaced so integration
// tests can skip cleanly when no cluster is available.
func (o *Oracle) Ping(ctx context.Context) error {
	return o.rdb.Ping(ctx).Err()
}

// CrossCheckGet asserts that a key rkv just wrote reads back identically
// through go-redis, catching divergence between our hand-rolled RESP
// handling and a battle-tested client.
func (o *Oracle) CrossCheckGet(ctx context.Context, key string, want []byte) error {
	got, err := o.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		if want != nil {
			return fmt.Errorf("oracle: key %q missing, rkv reported %q", key, want)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("oracle: GET %q: %w", key, err)
	}
	if string(got) != string(want) {
		return fmt.Errorf("oracle: key %q = %q, rkv reported %q", key, got, want)
	}
	return nil
}

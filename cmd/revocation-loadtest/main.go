// Command revocation-loadtest drives concurrent IsRevoked and Revoke calls
// against the Redis revocation ledger and prints latency percentiles.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/revocation"
)

func main() {
	var (
		tokens      = flag.Int("tokens", 100000, "number of token ids to seed")
		revokedPct  = flag.Int("revoked-pct", 50, "percentage of seeded ids that are revoked")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (check + revoke)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gosession:revoked", "revocation key prefix")
	)
	flag.Parse()

	if *tokens <= 0 || *concurrency <= 0 || *ops <= 0 || *revokedPct < 0 || *revokedPct > 100 {
		fmt.Fprintln(os.Stderr, "tokens, concurrency and ops must be > 0; revoked-pct must be 0..100")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := revocation.NewRedisStore(client, *prefix, 24*time.Hour)

	ids := make([]string, *tokens)
	revoked := *tokens * *revokedPct / 100
	fmt.Printf("seeding %d token ids (%d%% revoked)...\n", *tokens, *revokedPct)
	startSeed := time.Now()
	for i := range ids {
		ids[i] = newID()
		if i < revoked {
			if err := store.Revoke(ctx, record(ids[i])); err != nil {
				fmt.Fprintf(os.Stderr, "revoke failed: %v\n", err)
				os.Exit(1)
			}
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	checkStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand, _ int) error {
		_, err := store.IsRevoked(ctx, ids[r.Intn(len(ids))])
		return err
	})
	revokeStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand, _ int) error {
		// Mixes repeat revokes of seeded ids with fresh ones.
		if r.Intn(2) == 0 {
			return store.Revoke(ctx, record(ids[r.Intn(len(ids))]))
		}
		return store.Revoke(ctx, record(newID()))
	})

	fmt.Println("---- results ----")
	printStats("is_revoked", checkStats)
	printStats("revoke", revokeStats)
}

func newID() string {
	id, err := internal.NewTokenID()
	if err != nil {
		fmt.Fprintf(os.Stderr, "token id: %v\n", err)
		os.Exit(1)
	}
	return id
}

func record(jti string) revocation.Record {
	now := time.Now()
	return revocation.Record{
		JTI:       jti,
		AccountID: "loadtest",
		IssuedAt:  now,
		RevokedAt: now,
	}
}

func runPhase(ops, concurrency int, seed int64, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

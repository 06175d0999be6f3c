package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/hydration/config"
	"github.com/d60-Lab/hydration/internal/repository"
	"github.com/d60-Lab/hydration/internal/service"
	"github.com/d60-Lab/hydration/pkg/database"
)

var (
	requests    int
	concurrency int
	count       int
	limit       int
	intents     []string
)

// rootCmd 对已写入数据的 redis 压测读路径（feed / sorted / all）
var rootCmd = &cobra.Command{
	Use:   "readbench",
	Short: "Measure read-path latency of the post hydration service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().IntVarP(&requests, "requests", "n", 2000, "requests per intent")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 16, "concurrent callers")
	rootCmd.Flags().IntVar(&count, "count", 50, "list size per request")
	rootCmd.Flags().IntVar(&limit, "max-concurrency", 0, "per-batch fetch concurrency limit (0 = unbounded)")
	rootCmd.Flags().StringSliceVar(&intents, "intent", []string{"feed", "sorted"}, "intents to run: feed, sorted, all")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "readbench: %v\n", err)
		os.Exit(1)
	}
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func parseIntent(s string) (service.Intent, error) {
	switch s {
	case "feed":
		return service.IntentFeed, nil
	case "sorted":
		return service.IntentSorted, nil
	case "all":
		return service.IntentAll, nil
	}
	return 0, fmt.Errorf("unknown intent %q", s)
}

type result struct {
	latencies []time.Duration
	failed    int
	missing   int
	total     time.Duration
}

func bench(ctx context.Context, svc service.PostService, intent service.Intent) result {
	feed := make(chan struct{}, requests)
	for i := 0; i < requests; i++ {
		feed <- struct{}{}
	}
	close(feed)

	var mu sync.Mutex
	var res result
	var wg sync.WaitGroup
	workers := concurrency
	if workers > requests {
		workers = requests
	}
	t0 := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range feed {
				st := time.Now()
				items, err := svc.List(ctx, intent, count)
				d := time.Since(st)
				mu.Lock()
				res.latencies = append(res.latencies, d)
				if err != nil {
					res.failed++
				}
				for _, it := range items {
					if it.Missing {
						res.missing++
					}
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	res.total = time.Since(t0)
	return res
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	rdb, err := database.InitRedis(cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	svc := service.NewPostService(repository.NewPostRepository(rdb, cfg.Redis.KeyPrefix), service.Options{
		MaxCount:       cfg.API.MaxCount,
		MaxConcurrency: limit,
	})

	fmt.Printf("REDIS=%s REQUESTS=%d CONC=%d COUNT=%d MAX_CONCURRENCY=%d\n", cfg.Redis.Addr, requests, concurrency, count, limit)
	for _, name := range intents {
		intent, err := parseIntent(name)
		if err != nil {
			return err
		}
		res := bench(ctx, svc, intent)
		var sum time.Duration
		for _, d := range res.latencies {
			sum += d
		}
		avg := time.Duration(0)
		if len(res.latencies) > 0 {
			avg = sum / time.Duration(len(res.latencies))
		}
		qps := float64(len(res.latencies)) / res.total.Seconds()
		fmt.Printf("%-6s total=%v qps=%.0f avg=%v p50=%v p95=%v p99=%v failed=%d missing=%d\n",
			intent, res.total, qps, avg, pct(res.latencies, 0.50), pct(res.latencies, 0.95), pct(res.latencies, 0.99), res.failed, res.missing)
	}
	return nil
}

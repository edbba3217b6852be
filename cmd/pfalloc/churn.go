package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pavanmanishd/pfalloc"
	"github.com/pavanmanishd/pfalloc/pfmetrics"
)

type churnOptions struct {
	ops     int
	maxSize int
	seed    int64
	workers int
	debug   string
	mmap    bool
	verify  bool
	drain   bool
	metrics bool
}

var churnOpts churnOptions

func init() {
	cmd := newChurnCmd()
	f := cmd.Flags()
	f.IntVar(&churnOpts.ops, "ops", 100000, "Number of allocate/release operations per worker")
	f.IntVar(&churnOpts.maxSize, "max-size", 256, "Largest request size")
	f.Int64Var(&churnOpts.seed, "seed", 1, "Workload seed; worker i uses seed+i")
	f.IntVar(&churnOpts.workers, "workers", 1, "Concurrent workers sharing one locked allocator")
	f.StringVar(&churnOpts.debug, "debug", "off", "Debug level: off, checked or filled")
	f.BoolVar(&churnOpts.mmap, "mmap", false, "Take arenas from anonymous mappings instead of the Go heap")
	f.BoolVar(&churnOpts.verify, "verify", false, "Checksum every payload and verify it on release")
	f.BoolVar(&churnOpts.drain, "drain", false, "Release every live block before reporting")
	f.BoolVar(&churnOpts.metrics, "metrics", false, "Print the final state in Prometheus text format")
	rootCmd.AddCommand(cmd)
}

func newChurnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "churn",
		Short: "Run a random allocate/release workload",
		Long: `The churn command performs a seeded random mix of allocations and
releases, then prints the wasted-core report and allocator statistics.

Example:
  pfalloc churn --ops 1000000 --max-size 512
  pfalloc churn --debug filled --verify --seed 42
  pfalloc churn --workers 8 --max-size 4096 --mmap --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(trace)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			return runChurn(cmd.OutOrStdout(), log, churnOpts)
		},
	}
}

// ChurnResult is the JSON form of a churn run.
type ChurnResult struct {
	Ops      int           `json:"ops"`
	Seed     int64         `json:"seed"`
	Workers  int           `json:"workers"`
	Debug    string        `json:"debug"`
	Allocs   int           `json:"allocs"`
	Releases int           `json:"releases"`
	Live     int           `json:"live_blocks"`
	Verified int           `json:"verified,omitempty"`
	Wasted   int64         `json:"wasted_bytes"`
	Stats    pfalloc.Stats `json:"stats"`
}

// churnTarget is implemented by *pfalloc.Allocator and *pfalloc.SafeAllocator.
type churnTarget interface {
	Alloc(n int) []byte
	Unalloc(n int, b []byte)
	CheckFreeChains()
	Statistics() pfalloc.Stats
	ReportWasted(w io.Writer, verbose bool) int64
}

type liveBlock struct {
	b   []byte
	n   int
	sum uint64
}

type workerResult struct {
	allocs, releases, live, verified int
}

func runChurn(w io.Writer, log *zap.Logger, opts churnOptions) error {
	if opts.ops < 0 {
		return fmt.Errorf("ops must not be negative, got %d", opts.ops)
	}
	if opts.maxSize < 0 {
		return fmt.Errorf("max-size must not be negative, got %d", opts.maxSize)
	}
	if opts.workers < 1 {
		opts.workers = 1
	}
	level, err := pfalloc.ParseDebugLevel(opts.debug)
	if err != nil {
		return err
	}

	cfg := pfalloc.DefaultConfig()
	cfg.Debug = level
	cfg.Trace = trace
	cfg.Logger = log
	if opts.mmap {
		cfg.Source = pfalloc.MmapSource{}
	}

	var target churnTarget
	if opts.workers == 1 {
		target = pfalloc.New(cfg)
	} else {
		target = pfalloc.NewSafe(cfg)
	}

	results := make([]workerResult, opts.workers)
	g, ctx := errgroup.WithContext(context.Background())
	for i := range results {
		i := i
		g.Go(func() error {
			return churnWorker(ctx, target, opts, opts.seed+int64(i), &results[i])
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	target.CheckFreeChains()

	res := ChurnResult{Ops: opts.ops, Seed: opts.seed, Workers: opts.workers, Debug: level.String()}
	for _, r := range results {
		res.Allocs += r.allocs
		res.Releases += r.releases
		res.Live += r.live
		res.Verified += r.verified
	}
	res.Stats = target.Statistics()
	log.Info("churn finished",
		zap.Int("workers", opts.workers),
		zap.Int("allocs", res.Allocs),
		zap.Int("releases", res.Releases),
		zap.Int64("live_bytes", res.Stats.LiveBytes))

	if opts.metrics {
		return writeMetrics(w, target)
	}
	if jsonOut {
		res.Wasted = res.Stats.WastedBytes
		return printJSON(w, res)
	}

	res.Wasted = target.ReportWasted(w, verbose)
	s := res.Stats
	fmt.Fprintf(w, "Operations: %d (%d allocs, %d releases, %d live)\n",
		res.Ops*res.Workers, res.Allocs, res.Releases, res.Live)
	fmt.Fprintf(w, "Live bytes: %d\n", s.LiveBytes)
	fmt.Fprintf(w, "Arenas: %d (%d bytes, %d abandoned)\n", s.Arenas, s.ArenaBytes, s.AbandonedBytes)
	fmt.Fprintf(w, "Large blocks: %d\n", s.LargeBlocks)
	fmt.Fprintf(w, "Utilization: %.1f%%\n", s.Utilization*100)
	if opts.verify {
		fmt.Fprintf(w, "Verified: %d payloads\n", res.Verified)
	}
	return nil
}

// churnWorker runs one seeded workload. Checksum mismatches do not stop the
// run; all of them are returned together.
func churnWorker(ctx context.Context, a churnTarget, opts churnOptions, seed int64, res *workerResult) error {
	rng := rand.New(rand.NewSource(seed))
	var live []liveBlock
	var errs error

	release := func(i int) {
		lb := live[i]
		if opts.verify {
			if got := xxhash.Sum64(lb.b); got != lb.sum {
				errs = multierr.Append(errs, fmt.Errorf(
					"seed %d: payload of %d bytes changed: checksum %#x, want %#x",
					seed, lb.n, got, lb.sum))
			} else {
				res.verified++
			}
		}
		live[i] = live[len(live)-1]
		live = live[:len(live)-1]
		a.Unalloc(lb.n, lb.b)
		res.releases++
	}

	for op := 0; op < opts.ops; op++ {
		if op%1024 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		if len(live) > 0 && rng.Intn(2) == 0 {
			release(rng.Intn(len(live)))
			continue
		}
		n := rng.Intn(opts.maxSize + 1)
		b := a.Alloc(n)
		rng.Read(b)
		lb := liveBlock{b: b, n: n}
		if opts.verify {
			lb.sum = xxhash.Sum64(b)
		}
		live = append(live, lb)
		res.allocs++
	}
	if opts.drain {
		for len(live) > 0 {
			release(len(live) - 1)
		}
	}
	res.live = len(live)

	if errs != nil {
		return fmt.Errorf("%d corrupted payloads: %w", len(multierr.Errors(errs)), errs)
	}
	return nil
}

func writeMetrics(w io.Writer, src pfmetrics.StatsSource) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(pfmetrics.NewCollector(src, "pfalloc"))
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

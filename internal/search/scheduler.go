package search

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/qfactor/internal/compose"
	"github.com/roach88/qfactor/internal/emu"
)

// smallPrimes are tried before any dispatch. A hit short-circuits the run
// with a verified pair and no engine execution.
var smallPrimes = []int64{2, 3, 5, 7, 11, 13}

// Config holds the immutable parameters of one search run. Shared read-only
// across all workers.
type Config struct {
	EnginePath string
	Depth      int
	Workers    int
	Iterations int

	// MaxChunks is the engine's addressable chunk ceiling. Blocks wider
	// than this are processed in sequential batches.
	MaxChunks int

	// Timeout bounds each engine execution, independently of the caller's
	// overall context. Zero disables the per-execution deadline.
	Timeout time.Duration

	// Grace is the SIGTERM-to-SIGKILL window for forced termination.
	Grace time.Duration

	Layout compose.RegisterLayout
}

// Outcome is the user-visible result of a run: exactly one of a verified
// (Factor, Cofactor) pair or NotFound.
type Outcome struct {
	Factor   *big.Int
	Cofactor *big.Int
	NotFound bool

	// Workers holds the terminal report of every dispatched worker, in
	// block order. Empty when the trivial pre-check short-circuited.
	Workers []WorkerReport
}

// Scheduler partitions the search interval and fans it out to workers.
type Scheduler struct {
	cfg     Config
	builder compose.Builder
	runner  *emu.Runner
}

// New creates a Scheduler. Zero config fields fall back to production
// defaults (DefaultLayout, DefaultMaxChunks, one worker).
func New(cfg Config) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = compose.DefaultMaxChunks
	}
	if cfg.Layout == (compose.RegisterLayout{}) {
		cfg.Layout = compose.DefaultLayout()
	}
	return &Scheduler{
		cfg:     cfg,
		builder: compose.Builder{Layout: cfg.Layout, MaxChunks: cfg.MaxChunks},
		runner: &emu.Runner{
			EnginePath: cfg.EnginePath,
			Timeout:    cfg.Timeout,
			Grace:      cfg.Grace,
		},
	}
}

// resultSlot is the single-assignment pool result. The first verified pair
// is accepted; every later put is refused, so concurrent completions resolve
// to exactly one winner.
type resultSlot struct {
	mu       sync.Mutex
	set      bool
	factor   *big.Int
	cofactor *big.Int
}

func (s *resultSlot) tryPut(factor, cofactor *big.Int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		return false
	}
	s.set = true
	s.factor = factor
	s.cofactor = cofactor
	return true
}

func (s *resultSlot) get() (factor, cofactor *big.Int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.factor, s.cofactor, s.set
}

// Run searches for a non-trivial factor of n.
//
// Returns a verified pair, or an Outcome with NotFound set when the
// configured budget exhausts the partition without a verified success.
// NotFound is a normal result of the underlying best-effort heuristic, not
// an error. An error return means the run itself could not proceed (bad
// modulus, unrepresentable partition, cancelled context).
func (s *Scheduler) Run(ctx context.Context, n *big.Int) (*Outcome, error) {
	if n == nil || n.Cmp(two) < 0 {
		return nil, newSchedulerError(ErrCodeBadModulus, "modulus must be an integer >= 2")
	}

	if factor := trialDivide(n); factor != nil {
		cofactor := new(big.Int).Quo(n, factor)
		slog.Info("trivial factor found before dispatch", "factor", factor)
		return &Outcome{Factor: factor, Cofactor: cofactor}, nil
	}

	blocks, err := Partition(n, s.cfg.Depth, s.cfg.Workers)
	if err != nil {
		return nil, err
	}

	slog.Info("search dispatched",
		"modulus_bits", n.BitLen(),
		"depth", s.cfg.Depth,
		"blocks", len(blocks),
		"chunks", TotalChunks(n, s.cfg.Depth).String(),
		"iterations", s.cfg.Iterations)

	// Pool cancellation fires exactly once, on the first accepted result.
	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	slot := &resultSlot{}
	reports := make([]WorkerReport, len(blocks))

	g := &errgroup.Group{}
	g.SetLimit(s.cfg.Workers)
	for i, block := range blocks {
		i, block := i, block
		g.Go(func() error {
			reports[i] = s.runWorker(poolCtx, n, i, block, func(factor, cofactor *big.Int) bool {
				if !slot.tryPut(factor, cofactor) {
					return false // a sibling already won; discard silently
				}
				cancel()
				return true
			})
			return nil
		})
	}
	_ = g.Wait()

	if factor, cofactor, ok := slot.get(); ok {
		slog.Info("factor verified", "factor", factor.String())
		return &Outcome{Factor: factor, Cofactor: cofactor, Workers: reports}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Info("search exhausted without a verified factor")
	return &Outcome{NotFound: true, Workers: reports}, nil
}

// trialDivide checks the small-prime table. Returns nil when none applies.
func trialDivide(n *big.Int) *big.Int {
	rem := new(big.Int)
	for _, p := range smallPrimes {
		prime := big.NewInt(p)
		if n.Cmp(prime) <= 0 {
			return nil
		}
		if rem.Mod(n, prime).Sign() == 0 {
			return prime
		}
	}
	return nil
}

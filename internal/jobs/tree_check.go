package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/forgo/mediacms/api/internal/metrics"
	"github.com/forgo/mediacms/api/internal/service"
)

// TreeChecker verifies, and optionally repairs, the technique nested set
type TreeChecker interface {
	CheckTree(ctx context.Context, repair bool) (*service.TreeCheck, error)
}

// TreeCheckConfig configures a TreeCheckProcessor
type TreeCheckConfig struct {
	Checker  TreeChecker
	Interval time.Duration
	// Delay before the first check, so startup migrations settle
	InitialDelay time.Duration
	Repair       bool
	Logger       *slog.Logger
}

// TreeCheckProcessor periodically compares the stored lft/rght/tree_id/level
// of every technique against a renumbering of the parent links
type TreeCheckProcessor struct {
	checker      TreeChecker
	interval     time.Duration
	initialDelay time.Duration
	repair       bool
	logger       *slog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewTreeCheckProcessor creates a new tree check job
func NewTreeCheckProcessor(cfg TreeCheckConfig) *TreeCheckProcessor {
	interval := cfg.Interval
	if interval == 0 {
		interval = time.Hour
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TreeCheckProcessor{
		checker:      cfg.Checker,
		interval:     interval,
		initialDelay: cfg.InitialDelay,
		repair:       cfg.Repair,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the tree check job
func (p *TreeCheckProcessor) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run()
	p.logger.Info("tree check started",
		slog.Duration("interval", p.interval),
		slog.Bool("repair", p.repair),
	)
}

// Stop gracefully stops the tree check job
func (p *TreeCheckProcessor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)
	p.wg.Wait()
	p.logger.Info("tree check stopped")
}

func (p *TreeCheckProcessor) run() {
	defer p.wg.Done()

	select {
	case <-time.After(p.initialDelay):
	case <-p.stopCh:
		return
	}
	p.check()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.check()
		case <-p.stopCh:
			return
		}
	}
}

func (p *TreeCheckProcessor) check() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := p.RunOnce(ctx); err != nil {
		p.logger.Error("tree check failed", slog.String("error", err.Error()))
	}
}

// RunOnce runs one check (for testing or manual trigger)
func (p *TreeCheckProcessor) RunOnce(ctx context.Context) (*service.TreeCheck, error) {
	result, err := p.checker.CheckTree(ctx, p.repair)
	if err != nil {
		metrics.RecordTreeCheck(0, false, err)
		return nil, err
	}
	metrics.RecordTreeCheck(result.Drifted, result.Repaired, nil)
	return result, nil
}

// IsRunning returns whether the processor is running
func (p *TreeCheckProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

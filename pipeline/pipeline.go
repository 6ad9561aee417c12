// Package pipeline implements the three-stage sliding-window streaming
// orchestrator: one loader, a pool of merger workers, and one writer,
// coordinated through a fixed-size window of per-row status slots so
// peak memory stays proportional to the window rather than the full
// image height.
package pipeline

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrjoshuak/deepmerge/merge"
	"github.com/mrjoshuak/deepmerge/rowbuffer"
	"github.com/mrjoshuak/deepmerge/sample"
	"github.com/mrjoshuak/deepmerge/source"
)

// ErrMismatchedDimensions is returned when input sources disagree on
// width or height; detected before any stage starts.
var ErrMismatchedDimensions = errors.New("pipeline: sources have mismatched dimensions")

// DefaultWindowSlots is the default size of the sliding window.
const DefaultWindowSlots = 48

// Logger receives verbose and error strings. The pipeline never
// requires one; a nil Logger is silently a no-op.
type Logger interface {
	Verbosef(format string, args ...any)
	Errorf(format string, args ...any)
}

// ProgressReporter receives coarse integer percentage updates. The
// pipeline never requires one; a nil ProgressReporter is a no-op.
type ProgressReporter interface {
	Progress(percent int)
}

// Config configures a pipeline run. Zero-value fields take their
// documented defaults.
type Config struct {
	// WindowSlots is the sliding window size. 0 uses DefaultWindowSlots.
	// Must be at least Threads+1 once Threads is resolved; Run adjusts
	// it upward if it is not, rather than deadlocking. Run then caps it
	// at the image height.
	WindowSlots int

	// MergeEpsilon is the coincidence tolerance merge.Row uses,
	// resolved by the caller (0 disables merging, preserving
	// duplicates).
	MergeEpsilon float64

	// Threads is the number of merger goroutines. 0 selects
	// max(1, GOMAXPROCS-2).
	Threads int

	Logger   Logger
	Progress ProgressReporter
}

// Stats summarizes one pipeline run.
type Stats struct {
	InputImageCount   int
	TotalInputSamples int64
	TotalOutputSamples int64
	MinDepth          float64
	MaxDepth          float64
	// MergeTimeMs is the summed wall-clock time every merger goroutine
	// spent inside merge.Row, in milliseconds. With Threads > 1 this
	// exceeds the merge stage's actual wall-clock duration, since it
	// is a sum across concurrently running goroutines rather than a
	// single span.
	MergeTimeMs int64
	// FlattenTimeMs is the summed wall-clock time the writer goroutine
	// spent inside the consume callback (flattening or deep-copying
	// each row), in milliseconds. There is exactly one writer
	// goroutine, so unlike MergeTimeMs this is also the stage's actual
	// wall-clock duration.
	FlattenTimeMs  int64
	DroppedSamples int64
}

// Consume is called by the writer thread, exactly once per row in
// strictly ascending y order, with that row's merged (depth-ordered,
// non-overlapping) samples. The row buffer passed in is only valid for
// the duration of the call; the pipeline reclaims or clears it
// immediately afterward.
type Consume func(y int, merged *rowbuffer.RowBuffer) error

func resolveThreads(requested int) int {
	if requested > 0 {
		return requested
	}
	n := runtime.GOMAXPROCS(0) - 2
	if n < 1 {
		n = 1
	}
	return n
}

func logf(l Logger, format string, args ...any) {
	if l != nil {
		l.Verbosef(format, args...)
	}
}

func errf(l Logger, format string, args ...any) {
	if l != nil {
		l.Errorf(format, args...)
	}
}

func report(p ProgressReporter, percent int) {
	if p != nil {
		p.Progress(percent)
	}
}

// Run drives sources through the load/merge/consume pipeline. consume
// is invoked once per row in ascending y order by the single writer
// goroutine; it is the caller's hook for flattening, deep-copying, or
// both. Run blocks until every row has been consumed or a stage fails.
func Run(sources []source.Source, consume Consume, cfg Config) (Stats, error) {
	var stats Stats

	if len(sources) == 0 {
		return stats, errors.New("pipeline: no sources")
	}
	width, height := sources[0].Width(), sources[0].Height()
	for _, s := range sources[1:] {
		if s.Width() != width || s.Height() != height {
			return stats, ErrMismatchedDimensions
		}
	}
	stats.InputImageCount = len(sources)

	threads := resolveThreads(cfg.Threads)
	windowSlots := cfg.WindowSlots
	if windowSlots <= 0 {
		windowSlots = DefaultWindowSlots
	}
	if windowSlots < threads+1 {
		windowSlots = threads + 1
	}
	if height < windowSlots {
		windowSlots = height
	}
	if windowSlots < 1 {
		windowSlots = 1
	}

	p := newRun(sources, width, height, windowSlots, threads, cfg)
	defer p.pool.drain()

	var wg sync.WaitGroup
	wg.Add(2 + threads)

	go func() {
		defer wg.Done()
		p.loadLoop()
	}()
	for t := 0; t < threads; t++ {
		go func() {
			defer wg.Done()
			p.mergeLoop()
		}()
	}
	go func() {
		defer wg.Done()
		p.writeLoop(consume)
	}()

	wg.Wait()

	stats.DroppedSamples = atomic.LoadInt64(&p.droppedSamples)
	stats.TotalInputSamples = atomic.LoadInt64(&p.totalInputSamples)
	stats.TotalOutputSamples = atomic.LoadInt64(&p.totalOutputSamples)
	stats.MergeTimeMs = atomic.LoadInt64(&p.mergeTimeNs) / int64(time.Millisecond)
	stats.FlattenTimeMs = atomic.LoadInt64(&p.flattenTimeNs) / int64(time.Millisecond)
	if math.IsInf(p.minDepth, 1) {
		stats.MinDepth, stats.MaxDepth = 0, 0
	} else {
		stats.MinDepth = p.minDepth
		stats.MaxDepth = p.maxDepth
	}

	if p.err != nil {
		errf(cfg.Logger, "pipeline: failed: %v", p.err)
		return stats, p.err
	}
	return stats, nil
}

// rowState is the lifecycle a window slot's row passes through.
type rowState int32

const (
	stateEmpty rowState = iota
	stateLoaded
	stateMerged
	stateFlattened
)

// run holds the mutable state of one Run call; it is not reentrant and
// is discarded after Run returns.
type run struct {
	sources []source.Source
	width   int
	height  int
	windowSlots int
	eps     float64
	logger  Logger
	progress ProgressReporter

	inputSlots  [][]*rowbuffer.RowBuffer // [source][slot]
	mergedSlots []*rowbuffer.RowBuffer   // [slot]
	pool        *sampleSlicePool

	mu     sync.Mutex
	cond   *sync.Cond
	status []rowState
	aborted bool
	err     error

	nextMergeRow int64

	droppedSamples     int64
	totalInputSamples   int64
	totalOutputSamples  int64
	minDepth, maxDepth  float64
	depthMu             sync.Mutex
	reportedPercent     int32

	// mergeTimeNs and flattenTimeNs accumulate wall-clock nanoseconds
	// spent inside merge.Row and consume respectively, summed across
	// every merger/writer goroutine. With multiple merger threads this
	// is CPU-time-like rather than wall-clock for the merge stage as a
	// whole; it answers "how much work did merging cost", not "how
	// long did the merge stage take".
	mergeTimeNs   int64
	flattenTimeNs int64
}

func newRun(sources []source.Source, width, height, windowSlots, threads int, cfg Config) *run {
	p := &run{
		sources:     sources,
		width:       width,
		height:      height,
		windowSlots: windowSlots,
		eps:         cfg.MergeEpsilon,
		logger:      cfg.Logger,
		progress:    cfg.Progress,
		status:      make([]rowState, height),
		pool:        newSampleSlicePool(),
		minDepth:    math.Inf(1),
		maxDepth:    math.Inf(-1),
	}
	p.cond = sync.NewCond(&p.mu)

	p.inputSlots = make([][]*rowbuffer.RowBuffer, len(sources))
	for i := range sources {
		slots := make([]*rowbuffer.RowBuffer, windowSlots)
		for s := 0; s < windowSlots; s++ {
			slots[s] = rowbuffer.NewPooled(width, p.pool)
		}
		p.inputSlots[i] = slots
	}
	p.mergedSlots = make([]*rowbuffer.RowBuffer, windowSlots)
	for s := 0; s < windowSlots; s++ {
		p.mergedSlots[s] = rowbuffer.NewPooled(width, p.pool)
	}
	return p
}

// fail records err as the run's terminal error (first writer wins) and
// wakes every goroutine blocked on a row-status wait so the stages can
// drain and Run can return promptly.
func (p *run) fail(err error) {
	p.mu.Lock()
	if !p.aborted {
		p.aborted = true
		p.err = err
	}
	p.cond.Broadcast()
	p.mu.Unlock()
}

// waitUntil blocks until status[y] has reached at least target, or the
// run aborts. Reports false if the run aborted before the condition
// was met.
func (p *run) waitUntil(y int, target rowState) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.status[y] < target && !p.aborted {
		p.cond.Wait()
	}
	return !p.aborted
}

func (p *run) advance(y int, to rowState) {
	p.mu.Lock()
	p.status[y] = to
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *run) loadLoop() {
	for y := 0; y < p.height; y++ {
		if y >= p.windowSlots {
			if !p.waitUntil(y-p.windowSlots, stateFlattened) {
				return
			}
		}
		for i, src := range p.sources {
			if err := src.ReadRow(y, p.inputSlots[i][y%p.windowSlots]); err != nil {
				p.fail(fmt.Errorf("pipeline: loader: source %d row %d: %w", i, y, err))
				return
			}
		}
		p.accumulateInputStats(y)
		p.advance(y, stateLoaded)
		logf(p.logger, "loaded row %d/%d", y+1, p.height)
	}
}

func (p *run) accumulateInputStats(y int) {
	var n int64
	for i := range p.sources {
		n += int64(p.inputSlots[i][y%p.windowSlots].TotalSamples())
	}
	atomic.AddInt64(&p.totalInputSamples, n)
}

func (p *run) mergeLoop() {
	scratch := merge.NewRowScratch(p.width)
	var localStats merge.Stats

	for {
		y := int(atomic.AddInt64(&p.nextMergeRow, 1)) - 1
		if y >= p.height {
			return
		}
		if !p.waitUntil(y, stateLoaded) {
			return
		}

		slot := y % p.windowSlots
		numSources := len(p.sources)
		pixelAt := func(sourceIdx, x int) []sample.Sample {
			return p.inputSlots[sourceIdx][slot].PixelData(x)
		}

		out := p.mergedSlots[slot]
		localStats.DroppedSamples = 0
		start := time.Now()
		err := merge.Row(out, p.width, pixelAt, numSources, p.eps, scratch, &localStats)
		atomic.AddInt64(&p.mergeTimeNs, int64(time.Since(start)))
		if err != nil {
			p.fail(fmt.Errorf("pipeline: merger: row %d: %w", y, err))
			return
		}
		if localStats.DroppedSamples != 0 {
			atomic.AddInt64(&p.droppedSamples, localStats.DroppedSamples)
		}
		p.recordDepths(out)

		p.advance(y, stateMerged)
	}
}

func (p *run) recordDepths(row *rowbuffer.RowBuffer) {
	var lo, hi float64 = math.Inf(1), math.Inf(-1)
	found := false
	for x := 0; x < p.width; x++ {
		for _, s := range row.PixelData(x) {
			found = true
			if s.ZFront < lo {
				lo = s.ZFront
			}
			if s.ZBack > hi {
				hi = s.ZBack
			}
		}
	}
	if !found {
		return
	}
	p.depthMu.Lock()
	if lo < p.minDepth {
		p.minDepth = lo
	}
	if hi > p.maxDepth {
		p.maxDepth = hi
	}
	p.depthMu.Unlock()
}

func (p *run) writeLoop(consume Consume) {
	for y := 0; y < p.height; y++ {
		if !p.waitUntil(y, stateMerged) {
			return
		}
		slot := y % p.windowSlots
		merged := p.mergedSlots[slot]

		atomic.AddInt64(&p.totalOutputSamples, int64(merged.TotalSamples()))

		start := time.Now()
		err := consume(y, merged)
		atomic.AddInt64(&p.flattenTimeNs, int64(time.Since(start)))
		if err != nil {
			p.fail(fmt.Errorf("pipeline: writer: row %d: %w", y, err))
			return
		}
		merged.Clear()
		for i := range p.sources {
			p.inputSlots[i][slot].Clear()
		}

		p.advance(y, stateFlattened)

		percent := int((int64(y+1) * 100) / int64(p.height))
		if percent != int(atomic.LoadInt32(&p.reportedPercent)) {
			atomic.StoreInt32(&p.reportedPercent, int32(percent))
			report(p.progress, percent)
		}
	}
}

// drain is a no-op placeholder kept so Run's defer reads naturally;
// sampleSlicePool has nothing to release (sync.Pool buffers are
// reclaimed by the garbage collector, not explicitly freed).
func (p *sampleSlicePool) drain() {}

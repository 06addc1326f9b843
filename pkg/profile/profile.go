// Package profile measures per-frame inference latency and throughput
// for a model over a finite frame sequence.
//
// The harness times preprocess plus inference on the calling thread, in
// one sequential loop, because the wall-clock latency of the blocking
// call is exactly the quantity being compared between model variants.
// No separate timing goroutine is used.
package profile

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/edgekit/edge-profiler/pkg/model"
	"github.com/edgekit/edge-profiler/pkg/processing"
	"github.com/edgekit/edge-profiler/pkg/tensor"
	"github.com/edgekit/edge-profiler/pkg/types"
)

// PreprocessFunc converts a raw frame into a model input tensor
type PreprocessFunc func(types.Frame) (*tensor.Tensor, error)

// FrameSource produces a finite lazy sequence of raw frames. Next
// returns false when the sequence is exhausted.
type FrameSource interface {
	Next() (types.Frame, bool)
}

// Sample records one timed inference call. FPS is the instantaneous
// 1/latency, with +Inf as the sentinel when the latency rounds to zero.
type Sample struct {
	Index   int
	Latency time.Duration
	FPS     float64
}

// Report aggregates the timing samples of one run.
//
// MeanLatency, the arithmetic mean of per-frame latencies, is the
// primary metric. MeanFPS is secondary and derived: the arithmetic mean
// of the per-frame instantaneous FPS values over finite samples, which
// is not the same number as 1/MeanLatency.
type Report struct {
	Model       string
	Samples     []Sample
	SampleCount int
	MeanLatency time.Duration
	MeanFPS     float64
}

// Harness drives a model over a frame source and aggregates timing
type Harness struct {
	preprocess PreprocessFunc
	log        zerolog.Logger
	every      int // log every Nth sample, 0 disables
}

// New creates a Harness using the given preprocess function
func New(preprocess PreprocessFunc, log zerolog.Logger) *Harness {
	return &Harness{preprocess: preprocess, log: log}
}

// LogEvery makes the harness log every nth sample during a run
func (h *Harness) LogEvery(n int) *Harness {
	h.every = n
	return h
}

// Run times m over every frame produced by source. The model variant
// can be swapped without touching source or preprocess, so baseline and
// optimized runs over a seeded source see bit-identical frames.
func (h *Harness) Run(ctx context.Context, source FrameSource, m model.Model) (*Report, error) {
	report := &Report{Model: m.Name()}

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, ok := source.Next()
		if !ok {
			break
		}

		start := time.Now()
		in, err := h.preprocess(frame)
		if err != nil {
			return nil, err
		}
		if _, err := m.Infer(ctx, in); err != nil {
			return nil, err
		}
		latency := time.Since(start)

		s := Sample{Index: i, Latency: latency, FPS: math.Inf(1)}
		if latency > 0 {
			s.FPS = 1 / latency.Seconds()
		}
		report.Samples = append(report.Samples, s)

		if h.every > 0 && i%h.every == 0 {
			h.log.Info().
				Int("frame", i).
				Dur("latency", latency).
				Float64("fps", s.FPS).
				Str("model", m.Name()).
				Msg("profiled frame")
		}
	}

	report.SampleCount = len(report.Samples)
	if report.SampleCount > 0 {
		latencies := make([]float64, 0, report.SampleCount)
		fps := make([]float64, 0, report.SampleCount)
		for _, s := range report.Samples {
			latencies = append(latencies, s.Latency.Seconds())
			if !math.IsInf(s.FPS, 1) {
				fps = append(fps, s.FPS)
			}
		}
		report.MeanLatency = time.Duration(stat.Mean(latencies, nil) * float64(time.Second))
		if len(fps) > 0 {
			report.MeanFPS = stat.Mean(fps, nil)
		} else {
			report.MeanFPS = math.Inf(1)
		}
	}
	return report, nil
}

// SyntheticSource yields a fixed number of seeded random frames. The
// same seed always produces the same frame sequence, byte for byte.
type SyntheticSource struct {
	proc   *processing.Processor
	seed   int64
	count  int
	served int
}

// NewSyntheticSource creates a source of count seeded frames
func NewSyntheticSource(count int, seed int64) *SyntheticSource {
	return &SyntheticSource{proc: processing.NewProcessor(), seed: seed, count: count}
}

// Next returns the next synthetic frame
func (s *SyntheticSource) Next() (types.Frame, bool) {
	if s.served >= s.count {
		return types.Frame{}, false
	}
	frame := s.proc.SyntheticFrame(s.seed + int64(s.served))
	s.served++
	return frame, true
}

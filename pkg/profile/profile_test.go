package profile

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgekit/edge-profiler/pkg/tensor"
	"github.com/edgekit/edge-profiler/pkg/types"
)

// stubModel sleeps a fixed artificial latency per call
type stubModel struct {
	delay time.Duration
	calls int
}

func (m *stubModel) Name() string { return "stub" }

func (m *stubModel) Infer(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error) {
	m.calls++
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return tensor.New(1)
}

func stubPreprocess(f types.Frame) (*tensor.Tensor, error) {
	return tensor.FromData([]float32{float32(len(f.Pix))}, 1)
}

func TestRunStatistics(t *testing.T) {
	const (
		frames = 10
		delay  = 5 * time.Millisecond
	)
	m := &stubModel{delay: delay}
	h := New(stubPreprocess, zerolog.Nop())

	report, err := h.Run(context.Background(), NewSyntheticSource(frames, 1), m)
	require.NoError(t, err)

	assert.Equal(t, frames, report.SampleCount)
	assert.Len(t, report.Samples, frames)
	assert.Equal(t, frames, m.calls)

	// Mean latency within measurement tolerance of the stub delay
	assert.GreaterOrEqual(t, report.MeanLatency, delay)
	assert.Less(t, report.MeanLatency, 10*delay)

	// Mean FPS tracks 1/latency
	assert.Greater(t, report.MeanFPS, 1/(10*delay.Seconds()))
	assert.LessOrEqual(t, report.MeanFPS, 1/delay.Seconds())
}

func TestRunSampleIndices(t *testing.T) {
	h := New(stubPreprocess, zerolog.Nop())

	report, err := h.Run(context.Background(), NewSyntheticSource(5, 1), &stubModel{})
	require.NoError(t, err)
	for i, s := range report.Samples {
		assert.Equal(t, i, s.Index)
		assert.False(t, s.FPS == 0, "fps must be positive or the Inf sentinel")
	}
}

func TestRunEmptySource(t *testing.T) {
	h := New(stubPreprocess, zerolog.Nop())

	report, err := h.Run(context.Background(), NewSyntheticSource(0, 1), &stubModel{})
	require.NoError(t, err)
	assert.Zero(t, report.SampleCount)
	assert.Zero(t, report.MeanLatency)
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := New(stubPreprocess, zerolog.Nop())

	_, err := h.Run(ctx, NewSyntheticSource(5, 1), &stubModel{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSyntheticSourceDeterministic(t *testing.T) {
	a := NewSyntheticSource(3, 42)
	b := NewSyntheticSource(3, 42)

	for i := 0; i < 3; i++ {
		fa, ok := a.Next()
		require.True(t, ok)
		fb, ok := b.Next()
		require.True(t, ok)
		assert.Equal(t, fa.Pix, fb.Pix, "frame %d", i)
	}
	_, ok := a.Next()
	assert.False(t, ok)
}

func TestSyntheticSourceFramesDiffer(t *testing.T) {
	s := NewSyntheticSource(2, 7)
	f0, ok := s.Next()
	require.True(t, ok)
	f1, ok := s.Next()
	require.True(t, ok)
	assert.NotEqual(t, f0.Pix, f1.Pix)
}

func TestVariantSwapSeesIdenticalFrames(t *testing.T) {
	h := New(stubPreprocess, zerolog.Nop())

	baseline, err := h.Run(context.Background(), NewSyntheticSource(4, 9), &stubModel{})
	require.NoError(t, err)
	optimized, err := h.Run(context.Background(), NewSyntheticSource(4, 9), &stubModel{delay: time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, baseline.SampleCount, optimized.SampleCount)
}

// Package capture provides scoped frame-device handles and the live
// processing loop.
//
// A Device is acquired once per run and released unconditionally when
// the loop exits, including on stop signal or read failure. Real camera
// capture is an external collaborator; the devices here read a still
// image repeatedly or synthesize frames, which is what the profiling
// paths need on hardware without a camera.
package capture

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/edgekit/edge-profiler/pkg/model"
	"github.com/edgekit/edge-profiler/pkg/processing"
	"github.com/edgekit/edge-profiler/pkg/profile"
	"github.com/edgekit/edge-profiler/pkg/types"
)

// Device produces frames until closed
type Device interface {
	ReadFrame() (types.Frame, error)
	Close() error
}

// FrameSink receives annotated frames; the file sink stands in for an
// on-screen display
type FrameSink interface {
	Show(img image.Image, index int) error
}

// SyntheticDevice yields seeded random frames, one per read
type SyntheticDevice struct {
	proc   *processing.Processor
	seed   int64
	served int64
	closed bool
}

// NewSyntheticDevice creates a synthetic frame device
func NewSyntheticDevice(seed int64) *SyntheticDevice {
	return &SyntheticDevice{proc: processing.NewProcessor(), seed: seed}
}

func (d *SyntheticDevice) ReadFrame() (types.Frame, error) {
	if d.closed {
		return types.Frame{}, &types.DeviceError{Device: "synthetic", Err: fmt.Errorf("closed")}
	}
	frame := d.proc.SyntheticFrame(d.seed + d.served)
	d.served++
	return frame, nil
}

func (d *SyntheticDevice) Close() error {
	d.closed = true
	return nil
}

// FileDevice replays a single image file as a frame stream
type FileDevice struct {
	frame  types.Frame
	closed bool
}

// OpenFileDevice loads the image once and serves it on every read
func OpenFileDevice(path string) (*FileDevice, error) {
	proc := processing.NewProcessor()
	img, err := proc.LoadImage(path)
	if err != nil {
		return nil, &types.DeviceError{Device: path, Err: err}
	}
	return &FileDevice{frame: proc.ImageToFrame(img)}, nil
}

func (d *FileDevice) ReadFrame() (types.Frame, error) {
	if d.closed {
		return types.Frame{}, &types.DeviceError{Device: "file", Err: fmt.Errorf("closed")}
	}
	return d.frame, nil
}

func (d *FileDevice) Close() error {
	d.closed = true
	return nil
}

// Loop runs the live capture loop: read, preprocess, infer, annotate,
// show; one thread, one frame at a time. It returns when ctx is
// cancelled (the stop signal), on read failure, or after maxFrames
// when maxFrames > 0. The device is always closed on exit.
func Loop(ctx context.Context, dev Device, preprocess profile.PreprocessFunc, m model.Model, sink FrameSink, maxFrames int, log zerolog.Logger) error {
	defer dev.Close()

	proc := processing.NewProcessor()
	for i := 0; maxFrames <= 0 || i < maxFrames; i++ {
		if err := ctx.Err(); err != nil {
			log.Info().Int("frames", i).Msg("live loop stopped")
			return nil
		}

		frame, err := dev.ReadFrame()
		if err != nil {
			return err
		}

		start := time.Now()
		in, err := preprocess(frame)
		if err != nil {
			return err
		}
		if _, err := m.Infer(ctx, in); err != nil {
			return err
		}
		latency := time.Since(start)

		fps := 0.0
		if latency > 0 {
			fps = 1 / latency.Seconds()
		}

		img, err := proc.FrameToImage(frame)
		if err != nil {
			return err
		}
		annotated := proc.Annotate(img, fmt.Sprintf("FPS: %.2f (%s)", fps, m.Name()))
		if err := sink.Show(annotated, i); err != nil {
			return err
		}
	}
	return nil
}

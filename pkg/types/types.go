package types

import "fmt"

// AudioClip represents a decoded mono audio clip
type AudioClip struct {
	Samples    []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
}

// Duration returns the clip length in seconds
func (c AudioClip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Frame represents a raw interleaved image frame as produced by a capture
// device: Height x Width x Channels bytes in row-major order
type Frame struct {
	Height   int    `json:"height"`
	Width    int    `json:"width"`
	Channels int    `json:"channels"`
	Pix      []byte `json:"-"`
}

// Valid reports whether the frame dimensions match the pixel buffer
func (f Frame) Valid() bool {
	return f.Height > 0 && f.Width > 0 && f.Channels > 0 &&
		len(f.Pix) == f.Height*f.Width*f.Channels
}

// ColorMode selects the color space a frame is reduced to before
// feature extraction
type ColorMode int

const (
	Gray ColorMode = iota
	RGB
)

func (m ColorMode) String() string {
	switch m {
	case Gray:
		return "gray"
	case RGB:
		return "rgb"
	default:
		return fmt.Sprintf("colormode(%d)", int(m))
	}
}

// ValidationError reports an invalid configuration value or an
// unencodable feature vector. It is always fatal at the point of
// construction or encoding and is never coerced silently.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// InputMissingError reports an absent source file. Hint carries the
// remediation step shown to the user (e.g. how to capture a sample).
type InputMissingError struct {
	Path string
	Hint string
}

func (e *InputMissingError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("input missing: %s", e.Path)
	}
	return fmt.Sprintf("input missing: %s (%s)", e.Path, e.Hint)
}

// DecodeError reports that an underlying codec could not parse the
// given bytes. The codec error is surfaced verbatim.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DeviceError reports an unavailable or failed capture device.
type DeviceError struct {
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device %s: %v", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

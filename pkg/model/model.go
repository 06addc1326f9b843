// Package model defines the inference contract used by the profiling
// harness and provides its implementations: a builtin network in
// full-precision and reduced-precision variants, and a remote backend
// for models served over the Ollama API.
package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgekit/edge-profiler/pkg/tensor"
	"github.com/edgekit/edge-profiler/pkg/types"
)

// Model is an opaque inference function over tensors. Implementations
// must be deterministic for a fixed input unless they wrap an external
// service.
type Model interface {
	Name() string
	Infer(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error)
}

// Variant selects between the full-precision baseline and the
// reduced-precision optimized model. It carries no state of its own.
type Variant int

const (
	Baseline Variant = iota
	Optimized
)

func (v Variant) String() string {
	switch v {
	case Baseline:
		return "baseline"
	case Optimized:
		return "optimized"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// ParseVariant converts a CLI string into a Variant
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(s) {
	case "baseline", "fp32":
		return Baseline, nil
	case "optimized", "quantized", "int8":
		return Optimized, nil
	default:
		return 0, &types.ValidationError{
			Field:  "variant",
			Reason: fmt.Sprintf("unknown variant %q (use baseline or optimized)", s),
		}
	}
}

// Load returns the builtin network in the requested variant. Both
// variants are derived from identical seeded weights, so their outputs
// are comparable and a profiling run isolates the precision effect.
func Load(v Variant) (Model, error) {
	switch v {
	case Baseline:
		return newConvNet(false), nil
	case Optimized:
		return newConvNet(true), nil
	default:
		return nil, &types.ValidationError{
			Field:  "variant",
			Reason: fmt.Sprintf("unknown variant %d", int(v)),
		}
	}
}

// Package tensor provides a fixed-shape float32 tensor with validated
// reshape and flatten operations. Shapes are enforced at construction so
// downstream code never relies on implicit coercion.
package tensor

import (
	"fmt"

	"github.com/edgekit/edge-profiler/pkg/types"
)

// Tensor is a dense row-major float32 tensor
type Tensor struct {
	shape []int
	data  []float32
}

// New creates a zero-filled tensor with the given shape
func New(shape ...int) (*Tensor, error) {
	n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	return &Tensor{shape: append([]int(nil), shape...), data: make([]float32, n)}, nil
}

// FromData wraps an existing slice in a tensor. The slice length must
// match the product of the shape exactly.
func FromData(data []float32, shape ...int) (*Tensor, error) {
	n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, &types.ValidationError{
			Field:  "tensor.data",
			Reason: fmt.Sprintf("shape %v requires %d elements, got %d", shape, n, len(data)),
		}
	}
	return &Tensor{shape: append([]int(nil), shape...), data: data}, nil
}

// Shape returns a copy of the tensor shape
func (t *Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Len returns the total element count
func (t *Tensor) Len() int { return len(t.data) }

// Data returns the backing slice in row-major order
func (t *Tensor) Data() []float32 { return t.data }

// At returns the element at the given multi-index
func (t *Tensor) At(idx ...int) (float32, error) {
	off, err := t.offset(idx)
	if err != nil {
		return 0, err
	}
	return t.data[off], nil
}

// Set assigns the element at the given multi-index
func (t *Tensor) Set(v float32, idx ...int) error {
	off, err := t.offset(idx)
	if err != nil {
		return err
	}
	t.data[off] = v
	return nil
}

// Reshape returns a view of the same data with a new shape. The element
// count must be preserved; implicit padding or truncation is refused.
func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	n, err := checkShape(shape)
	if err != nil {
		return nil, err
	}
	if n != len(t.data) {
		return nil, &types.ValidationError{
			Field:  "tensor.reshape",
			Reason: fmt.Sprintf("cannot reshape %v (%d elements) to %v (%d elements)", t.shape, len(t.data), shape, n),
		}
	}
	return &Tensor{shape: append([]int(nil), shape...), data: t.data}, nil
}

// Flatten returns a rank-1 view of the tensor
func (t *Tensor) Flatten() *Tensor {
	return &Tensor{shape: []int{len(t.data)}, data: t.data}
}

func (t *Tensor) offset(idx []int) (int, error) {
	if len(idx) != len(t.shape) {
		return 0, &types.ValidationError{
			Field:  "tensor.index",
			Reason: fmt.Sprintf("got %d indices for rank-%d tensor", len(idx), len(t.shape)),
		}
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= t.shape[i] {
			return 0, &types.ValidationError{
				Field:  "tensor.index",
				Reason: fmt.Sprintf("index %d out of range for axis %d (size %d)", x, i, t.shape[i]),
			}
		}
		off = off*t.shape[i] + x
	}
	return off, nil
}

func checkShape(shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, &types.ValidationError{Field: "tensor.shape", Reason: "empty shape"}
	}
	n := 1
	for i, d := range shape {
		if d <= 0 {
			return 0, &types.ValidationError{
				Field:  "tensor.shape",
				Reason: fmt.Sprintf("axis %d has non-positive size %d", i, d),
			}
		}
		n *= d
	}
	return n, nil
}

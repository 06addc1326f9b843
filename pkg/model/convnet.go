package model

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/edgekit/edge-profiler/pkg/tensor"
	"github.com/edgekit/edge-profiler/pkg/types"
)

const (
	convFilters = 32
	convKernel  = 3
	convStride  = 4
	numClasses  = 10
	weightSeed  = 1
)

// convNet is a small fixed convolutional classifier over [3,H,W]
// inputs: seeded 3x3 conv filters with stride 4, ReLU, global average
// pooling, then a dense layer to class scores. It stands in for the
// opaque edge model; the quantized variant runs the same weights in
// int8 with int32 accumulation.
type convNet struct {
	quantized bool

	filters [][]float32 // [convFilters][3*convKernel*convKernel]
	dense   [][]float32 // [numClasses][convFilters]

	qfilters [][]int8 // per-filter int8 weights
	qscales  []float32
	qdense   [][]int8
	qdscales []float32
}

func newConvNet(quantized bool) *convNet {
	rng := rand.New(rand.NewSource(weightSeed))
	n := &convNet{quantized: quantized}

	n.filters = make([][]float32, convFilters)
	for f := range n.filters {
		w := make([]float32, 3*convKernel*convKernel)
		for i := range w {
			w[i] = float32(rng.NormFloat64() * 0.1)
		}
		n.filters[f] = w
	}

	n.dense = make([][]float32, numClasses)
	for c := range n.dense {
		w := make([]float32, convFilters)
		for i := range w {
			w[i] = float32(rng.NormFloat64() * 0.1)
		}
		n.dense[c] = w
	}

	if quantized {
		n.qfilters, n.qscales = quantizeRows(n.filters)
		n.qdense, n.qdscales = quantizeRows(n.dense)
	}
	return n
}

func (n *convNet) Name() string {
	if n.quantized {
		return "convnet-int8"
	}
	return "convnet-fp32"
}

// Infer runs the network over a [3,H,W] tensor and returns class scores
func (n *convNet) Infer(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	shape := in.Shape()
	if len(shape) != 3 || shape[0] != 3 {
		return nil, &types.ValidationError{
			Field:  "model.input",
			Reason: fmt.Sprintf("expected shape [3,H,W], got %v", shape),
		}
	}
	h, w := shape[1], shape[2]
	if h < convKernel || w < convKernel {
		return nil, &types.ValidationError{
			Field:  "model.input",
			Reason: fmt.Sprintf("input %dx%d smaller than %dpx kernel", h, w, convKernel),
		}
	}

	var pooled []float32
	if n.quantized {
		pooled = n.convPoolInt8(in.Data(), h, w)
	} else {
		pooled = n.convPoolFP32(in.Data(), h, w)
	}

	scores := make([]float32, numClasses)
	if n.quantized {
		qp, ps := quantizeVec(pooled)
		for c := 0; c < numClasses; c++ {
			var acc int32
			for i := 0; i < convFilters; i++ {
				acc += int32(n.qdense[c][i]) * int32(qp[i])
			}
			scores[c] = float32(acc) * n.qdscales[c] * ps
		}
	} else {
		for c := 0; c < numClasses; c++ {
			var acc float32
			for i := 0; i < convFilters; i++ {
				acc += n.dense[c][i] * pooled[i]
			}
			scores[c] = acc
		}
	}

	return tensor.FromData(scores, numClasses)
}

func (n *convNet) convPoolFP32(data []float32, h, w int) []float32 {
	outH := (h-convKernel)/convStride + 1
	outW := (w-convKernel)/convStride + 1
	plane := h * w
	pooled := make([]float32, convFilters)

	for f := 0; f < convFilters; f++ {
		weights := n.filters[f]
		var sum float32
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				var acc float32
				wi := 0
				for ch := 0; ch < 3; ch++ {
					base := ch * plane
					for ky := 0; ky < convKernel; ky++ {
						row := base + (oy*convStride+ky)*w + ox*convStride
						for kx := 0; kx < convKernel; kx++ {
							acc += weights[wi] * data[row+kx]
							wi++
						}
					}
				}
				if acc > 0 { // ReLU
					sum += acc
				}
			}
		}
		pooled[f] = sum / float32(outH*outW)
	}
	return pooled
}

func (n *convNet) convPoolInt8(data []float32, h, w int) []float32 {
	qdata, dscale := quantizeVec(data)
	outH := (h-convKernel)/convStride + 1
	outW := (w-convKernel)/convStride + 1
	plane := h * w
	pooled := make([]float32, convFilters)

	for f := 0; f < convFilters; f++ {
		weights := n.qfilters[f]
		scale := n.qscales[f] * dscale
		var sum float32
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				var acc int32
				wi := 0
				for ch := 0; ch < 3; ch++ {
					base := ch * plane
					for ky := 0; ky < convKernel; ky++ {
						row := base + (oy*convStride+ky)*w + ox*convStride
						for kx := 0; kx < convKernel; kx++ {
							acc += int32(weights[wi]) * int32(qdata[row+kx])
							wi++
						}
					}
				}
				v := float32(acc) * scale
				if v > 0 {
					sum += v
				}
			}
		}
		pooled[f] = sum / float32(outH*outW)
	}
	return pooled
}

// quantizeRows maps each row to int8 with a per-row symmetric scale
func quantizeRows(rows [][]float32) ([][]int8, []float32) {
	q := make([][]int8, len(rows))
	scales := make([]float32, len(rows))
	for i, row := range rows {
		qr, s := quantizeVec(row)
		q[i] = qr
		scales[i] = s
	}
	return q, scales
}

// quantizeVec maps values to int8 symmetrically and returns the
// dequantization scale
func quantizeVec(v []float32) ([]int8, float32) {
	var maxAbs float32
	for _, x := range v {
		a := float32(math.Abs(float64(x)))
		if a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return make([]int8, len(v)), 0
	}
	scale := maxAbs / 127
	q := make([]int8, len(v))
	for i, x := range v {
		q[i] = int8(math.Round(float64(x / scale)))
	}
	return q, scale
}

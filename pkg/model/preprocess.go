package model

import (
	"github.com/disintegration/imaging"

	"github.com/edgekit/edge-profiler/pkg/processing"
	"github.com/edgekit/edge-profiler/pkg/tensor"
	"github.com/edgekit/edge-profiler/pkg/types"
)

// InputSize is the square input resolution the builtin network and the
// remote backend expect
const InputSize = 224

// PreprocessFrame resizes a raw frame to the model input size,
// normalizes pixels to [0,1] and lays them out as a [3,H,W] tensor
func PreprocessFrame(f types.Frame) (*tensor.Tensor, error) {
	proc := processing.NewProcessor()
	img, err := proc.FrameToImage(f)
	if err != nil {
		return nil, err
	}

	resized := imaging.Resize(img, InputSize, InputSize, imaging.Linear)

	plane := InputSize * InputSize
	data := make([]float32, 3*plane)
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			src := y*resized.Stride + x*4
			data[0*plane+y*InputSize+x] = float32(resized.Pix[src+0]) / 255
			data[1*plane+y*InputSize+x] = float32(resized.Pix[src+1]) / 255
			data[2*plane+y*InputSize+x] = float32(resized.Pix[src+2]) / 255
		}
	}
	return tensor.FromData(data, 3, InputSize, InputSize)
}

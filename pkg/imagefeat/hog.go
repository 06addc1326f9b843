package imagefeat

import (
	"fmt"
	"image"
	"math"

	"github.com/edgekit/edge-profiler/pkg/types"
)

// HOGParams configures the gradient orientation histogram descriptor.
// All sizes are in pixels; BlockSize and BlockStride must be multiples
// of CellSize.
type HOGParams struct {
	Bins        int
	CellSize    int
	BlockSize   int
	BlockStride int
}

// DefaultHOGParams matches the common 9-bin, 8px cell, 16px block
// pedestrian-detection layout
func DefaultHOGParams() HOGParams {
	return HOGParams{Bins: 9, CellSize: 8, BlockSize: 16, BlockStride: 8}
}

// Validate checks descriptor parameters
func (p HOGParams) Validate() error {
	switch {
	case p.Bins <= 0:
		return &types.ValidationError{Field: "hog.bins", Reason: "must be positive"}
	case p.CellSize <= 0:
		return &types.ValidationError{Field: "hog.cell_size", Reason: "must be positive"}
	case p.BlockSize <= 0 || p.BlockSize%p.CellSize != 0:
		return &types.ValidationError{
			Field:  "hog.block_size",
			Reason: fmt.Sprintf("must be a positive multiple of cell_size (%d)", p.CellSize),
		}
	case p.BlockStride <= 0 || p.BlockStride%p.CellSize != 0:
		return &types.ValidationError{
			Field:  "hog.block_stride",
			Reason: fmt.Sprintf("must be a positive multiple of cell_size (%d)", p.CellSize),
		}
	}
	return nil
}

// DescriptorLength returns the feature count for a window of the given
// size. It depends only on the window dimensions and the parameters,
// never on pixel content.
func (p HOGParams) DescriptorLength(winW, winH int) int {
	cellsX := winW / p.CellSize
	cellsY := winH / p.CellSize
	blockCells := p.BlockSize / p.CellSize
	strideCells := p.BlockStride / p.CellSize
	if cellsX < blockCells || cellsY < blockCells {
		return 0
	}
	blocksX := (cellsX-blockCells)/strideCells + 1
	blocksY := (cellsY-blockCells)/strideCells + 1
	return blocksX * blocksY * blockCells * blockCells * p.Bins
}

// computeHOG calculates the descriptor over a grayscale window whose
// dimensions are exact multiples of the cell size.
func computeHOG(gray *image.NRGBA, p HOGParams) []float32 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	cellsX := w / p.CellSize
	cellsY := h / p.CellSize
	blockCells := p.BlockSize / p.CellSize
	strideCells := p.BlockStride / p.CellSize

	lum := func(x, y int) float64 {
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		return float64(gray.Pix[y*gray.Stride+x*4])
	}

	// Per-cell orientation histograms with linear interpolation between
	// the two nearest unsigned-orientation bins
	hist := make([][]float64, cellsX*cellsY)
	for i := range hist {
		hist[i] = make([]float64, p.Bins)
	}
	binWidth := 180.0 / float64(p.Bins)

	for y := 0; y < cellsY*p.CellSize; y++ {
		for x := 0; x < cellsX*p.CellSize; x++ {
			gx := lum(x+1, y) - lum(x-1, y)
			gy := lum(x, y+1) - lum(x, y-1)
			mag := math.Hypot(gx, gy)
			if mag == 0 {
				continue
			}
			ang := math.Atan2(gy, gx) * 180 / math.Pi
			if ang < 0 {
				ang += 180
			}
			if ang >= 180 {
				ang -= 180
			}

			pos := ang/binWidth - 0.5
			lo := int(math.Floor(pos))
			frac := pos - float64(lo)
			hi := (lo + 1) % p.Bins
			if lo < 0 {
				lo = p.Bins - 1
			}

			cell := (y/p.CellSize)*cellsX + x/p.CellSize
			hist[cell][lo] += mag * (1 - frac)
			hist[cell][hi] += mag * frac
		}
	}

	// Block normalization (L2-Hys)
	blocksX := (cellsX-blockCells)/strideCells + 1
	blocksY := (cellsY-blockCells)/strideCells + 1
	out := make([]float32, 0, blocksX*blocksY*blockCells*blockCells*p.Bins)
	block := make([]float64, blockCells*blockCells*p.Bins)

	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			i := 0
			for cy := 0; cy < blockCells; cy++ {
				for cx := 0; cx < blockCells; cx++ {
					cell := (by*strideCells+cy)*cellsX + bx*strideCells + cx
					copy(block[i:], hist[cell])
					i += p.Bins
				}
			}

			norm := 0.0
			for _, v := range block {
				norm += v * v
			}
			norm = math.Sqrt(norm) + 1e-6
			clippedNorm := 0.0
			for j, v := range block {
				v /= norm
				if v > 0.2 {
					v = 0.2
				}
				block[j] = v
				clippedNorm += v * v
			}
			clippedNorm = math.Sqrt(clippedNorm) + 1e-6

			for _, v := range block {
				out = append(out, float32(v/clippedNorm))
			}
		}
	}
	return out
}

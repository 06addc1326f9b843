package capture

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/edgekit/edge-profiler/internal/utils"
	"github.com/edgekit/edge-profiler/pkg/processing"
)

// FileSink writes annotated frames to numbered JPEGs in a directory
type FileSink struct {
	dir  string
	proc *processing.Processor
}

// NewFileSink creates a sink writing into dir
func NewFileSink(dir string) (*FileSink, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &FileSink{dir: dir, proc: processing.NewProcessor()}, nil
}

func (s *FileSink) Show(img image.Image, index int) error {
	path := filepath.Join(s.dir, fmt.Sprintf("frame_%05d.jpg", index))
	return s.proc.SaveImage(img, path, 85)
}

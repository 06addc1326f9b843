package model

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/edgekit/edge-profiler/pkg/processing"
	"github.com/edgekit/edge-profiler/pkg/tensor"
	"github.com/edgekit/edge-profiler/pkg/types"
)

// Remote profiles a vision model served over the Ollama API. Each
// Infer call renders the input tensor to JPEG and performs one chat
// round trip, so the measured latency covers the full served-model
// path. The returned score (response length) is a proxy; the backend
// exists for latency comparison of served model variants, e.g. an fp16
// tag against a q4 tag of the same model.
type Remote struct {
	client *api.Client
	model  string
	prompt string
	proc   *processing.Processor
}

// NewRemote creates a Remote backend for the given server URL and
// model tag
func NewRemote(serverURL, modelTag string) (*Remote, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}

	return &Remote{
		client: api.NewClient(base, http.DefaultClient),
		model:  modelTag,
		prompt: "Describe this frame in one short sentence.",
		proc:   processing.NewProcessor(),
	}, nil
}

func (r *Remote) Name() string {
	return "ollama:" + r.model
}

// Infer sends the frame tensor to the served model and returns a
// single-element tensor with the response length
func (r *Remote) Infer(ctx context.Context, in *tensor.Tensor) (*tensor.Tensor, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	img, err := r.tensorToImage(in)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model: r.model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: r.prompt,
				Images:  []api.ImageData{api.ImageData(buf.Bytes())},
			},
		},
		Stream: &streamFalse,
	}

	var responseContent string
	err = r.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat error: %v", err)
	}

	return tensor.FromData([]float32{float32(len(responseContent))}, 1)
}

// tensorToImage converts a [3,H,W] tensor of [0,1] values back into an
// image for transmission
func (r *Remote) tensorToImage(t *tensor.Tensor) (image.Image, error) {
	shape := t.Shape()
	if len(shape) != 3 || shape[0] != 3 {
		return nil, &types.ValidationError{
			Field:  "model.input",
			Reason: fmt.Sprintf("expected shape [3,H,W], got %v", shape),
		}
	}
	h, w := shape[1], shape[2]
	plane := h * w
	data := t.Data()

	pix := make([]byte, h*w*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for ch := 0; ch < 3; ch++ {
				v := data[ch*plane+y*w+x]
				if v < 0 {
					v = 0
				} else if v > 1 {
					v = 1
				}
				pix[(y*w+x)*3+ch] = byte(v*255 + 0.5)
			}
		}
	}
	return r.proc.FrameToImage(types.Frame{Height: h, Width: w, Channels: 3, Pix: pix})
}

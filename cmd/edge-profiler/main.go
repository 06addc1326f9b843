// Command edge-profiler extracts feature vectors from audio clips and
// images, exports them as C header artifacts for firmware builds, and
// profiles baseline versus reduced-precision model variants.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/edgekit/edge-profiler/internal/config"
	"github.com/edgekit/edge-profiler/internal/utils"
	"github.com/edgekit/edge-profiler/pkg/capture"
	"github.com/edgekit/edge-profiler/pkg/model"
	"github.com/edgekit/edge-profiler/pkg/profile"

	edgeprofiler "github.com/edgekit/edge-profiler"
)

var (
	cfgPath  string
	verbose  bool
	fallback bool
)

var rootCmd = &cobra.Command{
	Use:   "edge-profiler",
	Short: "Feature extraction and model profiling for edge hardware",
	Long: `edge-profiler converts sensor input into fixed-size feature vectors,
exports them as C header artifacts, and measures per-frame inference
latency for baseline vs optimized (int8) model variants.

Examples:
  # Export the MFCC fingerprint of a clip
  edge-profiler audio -i test.wav -o audio_features.h

  # Export image features and the processed image
  edge-profiler image -i test_image.jpg -o image_input.h --processed processed_edge.jpg

  # Compare model variants over 100 identical synthetic frames
  edge-profiler profile --frames 100 --compare

  # Run the live loop until interrupted
  edge-profiler live --out live_out`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&fallback, "synthetic-fallback", false, "substitute synthetic input when the source file is missing")

	rootCmd.AddCommand(audioCmd(), imageCmd(), profileCmd(), liveCmd())
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func newProfiler(log zerolog.Logger) (*edgeprofiler.EdgeProfiler, *config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	if fallback {
		cfg.Audio.AllowSynthetic = true
		cfg.Image.AllowSynthetic = true
	}
	ep, err := edgeprofiler.NewWithConfig(cfg, log)
	return ep, cfg, err
}

func audioCmd() *cobra.Command {
	var in, out, varName string

	cmd := &cobra.Command{
		Use:   "audio",
		Short: "Export the MFCC fingerprint of an audio clip as a C header",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			ep, _, err := newProfiler(log)
			if err != nil {
				return err
			}
			written, err := ep.ExportAudioFeatures(in, varName, out)
			if err != nil {
				return err
			}
			fmt.Printf("exported %s to %s\n", varName, written)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "test.wav", "input WAV file")
	cmd.Flags().StringVarP(&out, "out", "o", "audio_features.h", "output header file")
	cmd.Flags().StringVar(&varName, "var", "audio_fingerprint", "C array variable name")
	return cmd
}

func imageCmd() *cobra.Command {
	var in, out, varName, processed string

	cmd := &cobra.Command{
		Use:   "image",
		Short: "Export image features as a C header",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			ep, _, err := newProfiler(log)
			if err != nil {
				return err
			}
			written, err := ep.ExportImageFeatures(in, varName, out, processed)
			if err != nil {
				return err
			}
			if info, statErr := os.Stat(written); statErr == nil {
				log.Info().Str("size", utils.FormatFileSize(info.Size())).Msg("artifact written")
			}
			fmt.Printf("exported %s to %s\n", varName, written)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "test_image.jpg", "input image file (jpg/png/webp)")
	cmd.Flags().StringVarP(&out, "out", "o", "image_input.h", "output header file")
	cmd.Flags().StringVar(&varName, "var", "image_input", "C array variable name")
	cmd.Flags().StringVar(&processed, "processed", "", "also save the processed image here")
	return cmd
}

func profileCmd() *cobra.Command {
	var frames int
	var seed int64
	var variant string
	var compare bool

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Measure per-frame latency over synthetic frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			ep, cfg, err := newProfiler(log)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("frames") {
				cfg.Profile.Frames = frames
			}
			if cmd.Flags().Changed("seed") {
				cfg.Profile.Seed = seed
			}

			if compare {
				base, opt, err := ep.Compare(cmd.Context())
				if err != nil {
					return err
				}
				printReport(base)
				printReport(opt)
				if opt.MeanLatency > 0 {
					fmt.Printf("speedup: %.2fx\n", base.MeanLatency.Seconds()/opt.MeanLatency.Seconds())
				}
				return nil
			}

			v, err := model.ParseVariant(variant)
			if err != nil {
				return err
			}
			report, err := ep.ProfileVariant(cmd.Context(), v)
			if err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}
	cmd.Flags().IntVar(&frames, "frames", 100, "number of synthetic frames")
	cmd.Flags().Int64Var(&seed, "seed", 42, "frame sequence seed")
	cmd.Flags().StringVar(&variant, "variant", "baseline", "model variant: baseline or optimized")
	cmd.Flags().BoolVar(&compare, "compare", false, "profile both variants over identical frames")
	return cmd
}

func liveCmd() *cobra.Command {
	var outDir, variant, in string
	var maxFrames int
	var backendURL, backendModel string

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Run the live frame loop with an FPS overlay until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

			var m model.Model
			var err error
			if backendURL != "" {
				m, err = model.NewRemote(backendURL, backendModel)
			} else {
				var v model.Variant
				if v, err = model.ParseVariant(variant); err == nil {
					m, err = model.Load(v)
				}
			}
			if err != nil {
				return err
			}

			var dev capture.Device
			if in != "" {
				dev, err = capture.OpenFileDevice(in)
				if err != nil {
					return err
				}
			} else {
				dev = capture.NewSyntheticDevice(time.Now().UnixNano())
			}

			sink, err := capture.NewFileSink(outDir)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info().Str("model", m.Name()).Str("out", outDir).Msg("starting live loop, ctrl-c to quit")
			return capture.Loop(ctx, dev, model.PreprocessFrame, m, sink, maxFrames, log)
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "live_out", "directory for annotated frames")
	cmd.Flags().StringVarP(&in, "in", "i", "", "replay an image file instead of synthetic frames")
	cmd.Flags().StringVar(&variant, "variant", "baseline", "model variant: baseline or optimized")
	cmd.Flags().IntVar(&maxFrames, "max-frames", 0, "stop after N frames (0 = until interrupted)")
	cmd.Flags().StringVar(&backendURL, "backend-url", "", "profile a served model via this Ollama URL")
	cmd.Flags().StringVar(&backendModel, "backend-model", "llava", "model tag for the served backend")
	return cmd
}

func printReport(r *profile.Report) {
	fmt.Printf("%s: %d frames, mean latency %v, mean fps %.2f\n",
		r.Model, r.SampleCount, r.MeanLatency.Round(time.Microsecond), r.MeanFPS)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(os.Args[0]), err)
		os.Exit(1)
	}
}

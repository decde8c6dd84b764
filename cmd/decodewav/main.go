package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/stream-decoder/internal/decoder"
	"github.com/airenas/stream-decoder/internal/engine"
	"github.com/airenas/stream-decoder/internal/handlers"
	"github.com/airenas/stream-decoder/internal/model"
	"github.com/go-audio/wav"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type options struct {
	modelDir  string
	backend   string
	chunkSize int
	feed      time.Duration
	poll      time.Duration
	realTime  bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := newCommand(&options{}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "decodewav <file.wav>",
		Short:        "Decodes a mono 16 bit wav file as a live stream",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.modelDir, "model-dir", "", "model resources dir")
	cmd.Flags().StringVar(&opts.backend, "backend", model.BackendStub, "model backend: stub, onnx, nnapi or torch")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk", model.DefaultChunkSize, "decoder chunk size, -1 for full context")
	cmd.Flags().DurationVar(&opts.feed, "feed", 100*time.Millisecond, "audio duration passed in one call")
	cmd.Flags().DurationVar(&opts.poll, "poll", 200*time.Millisecond, "result poll interval")
	cmd.Flags().BoolVar(&opts.realTime, "real-time", true,
		"feed audio at real time speed, with false all audio is queued at once and segment tags end at the file length")
	return cmd
}

func run(ctx context.Context, opts *options, file string, out io.Writer) error {
	samples, rate, err := readWav(file)
	if err != nil {
		return err
	}
	goapp.Log.Info().Str("file", file).Int("samples", len(samples)).Int("rate", rate).Send()

	c, err := decoder.NewController(&engine.Factory{}, handlers.NewCleaner())
	if err != nil {
		return err
	}
	if err := c.Init(model.Config{Dir: opts.modelDir, Backend: opts.backend, ChunkSize: opts.chunkSize,
		SampleRate: rate}); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := c.StartDecode(); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Stop(stopCtx)
	}()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return feed(egCtx, c, samples, rate, opts)
	})
	eg.Go(func() error {
		return poll(egCtx, c, opts.poll)
	})
	if err := eg.Wait(); err != nil {
		return err
	}
	if err := c.Wait(ctx); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	fmt.Fprintln(out, c.GetResult())
	fmt.Fprintln(out, c.GetTimedResult())
	fmt.Fprintln(out, c.TimestampedText())
	return nil
}

func feed(ctx context.Context, c *decoder.Controller, samples []int16, rate int, opts *options) error {
	step := max(1, int(opts.feed.Seconds()*float64(rate)))
	for i := 0; i < len(samples); i += step {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.AcceptWaveform(samples[i:min(i+step, len(samples))]); err != nil {
			return err
		}
		if opts.realTime {
			select {
			case <-time.After(opts.feed):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return c.SetInputFinished()
}

func poll(ctx context.Context, c *decoder.Controller, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	last := ""
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := c.Err(); err != nil {
			return err
		}
		if res := c.GetResult(); res != last {
			last = res
			goapp.Log.Info().Str("result", res).Msg("partial")
		}
		if c.GetFinished() {
			return nil
		}
	}
}

func readWav(file string) ([]int16, int, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("'%s' is not a valid wav file", file)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("read pcm: %w", err)
	}
	if dec.NumChans != 1 || dec.BitDepth != 16 {
		return nil, 0, fmt.Errorf("want mono 16 bit audio, got %d channels, %d bits", dec.NumChans, dec.BitDepth)
	}
	res := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		res[i] = int16(v)
	}
	return res, int(dec.SampleRate), nil
}

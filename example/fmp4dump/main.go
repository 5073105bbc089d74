package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"m7s.live/player/pkg"
	"m7s.live/player/pkg/config"
	"m7s.live/player/pkg/fmp4"
)

func main() {
	conf := flag.String("c", "config.yaml", "config file")
	flag.Parse()
	cfg, err := config.Load(*conf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := pkg.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := fmp4.NewBusDiagnostics(cfg.Diagnostics.BufferSize)
	counts := make(map[fmp4.EventKind]int)
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for e := range bus.Bus {
			counts[e.Kind]++
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	for _, stream := range cfg.Streams {
		stream := stream
		streamLogger := logger.With("stream", stream.Name)
		g.Go(func() error {
			return dump(ctx, streamLogger, bus, stream, cfg.HDROverride || stream.HDROverride)
		})
	}
	err = g.Wait()
	close(bus.Bus)
	<-consumed
	for kind, n := range counts {
		logger.Info("events", "kind", kind.String(), "count", n)
	}
	if dropped := bus.Dropped(); dropped > 0 {
		logger.Warn("events dropped", "count", dropped)
	}
	if err != nil {
		logger.Error("dump failed", "err", err)
		os.Exit(1)
	}
}

func dump(ctx context.Context, logger *slog.Logger, diag fmp4.Diagnostics, stream config.Stream, hdrOverride bool) error {
	demuxer := fmp4.NewDemuxer(
		fmp4.WithLogger(logger),
		fmp4.WithDiagnostics(fmp4.MultiDiagnostics{fmp4.LogDiagnostics{Logger: logger}, diag}),
	)
	init, err := os.ReadFile(stream.Init)
	if err != nil {
		return err
	}
	if err = demuxer.ParseInitSegment(init, hdrOverride); err != nil {
		return fmt.Errorf("%s: %w", stream.Init, err)
	}
	for _, track := range demuxer.Tracks() {
		desc, err := demuxer.BuildFormatDescription(track.TrackID)
		if err != nil {
			logger.Error("format description", "trackId", track.TrackID, "err", err)
			continue
		}
		logger.Info("format description", "trackId", track.TrackID, "kind", track.Kind.String(), "fourcc", desc.FourCC().String(), "original", track.Config.OriginalTag.String())
	}
	files, err := expand(stream.Segments)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err = ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		samples, err := demuxer.ParseMediaSegment(data)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		for _, s := range samples {
			logger.Log(ctx, pkg.TraceLevel, "sample", "trackId", s.TrackID, "dts", s.DecodeTime(), "pts", s.PresentationTime(), "size", len(s.Data), "key", s.Keyframe)
		}
		logger.Debug("segment", "file", file, "samples", len(samples))
	}
	stats := demuxer.Stats()
	logger.Info("done",
		"segments", stats.MediaSegments,
		"samples", stats.Samples,
		"droppedFragments", stats.DroppedFragments,
		"truncatedRuns", stats.TruncatedRuns,
		"channelMismatches", stats.ChannelMismatches)
	return nil
}

// expand resolves glob patterns in order; a pattern without matches is kept
// as a literal path so the read reports it.
func expand(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}
		files = append(files, matches...)
	}
	return files, nil
}

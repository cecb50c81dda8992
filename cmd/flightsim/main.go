// Package main is the entry point for the headless flight simulator.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/skyrunner/internal/config"
	"github.com/Faultbox/skyrunner/internal/logger"
	"github.com/Faultbox/skyrunner/internal/replay"
	"github.com/Faultbox/skyrunner/internal/sim"
	"github.com/Faultbox/skyrunner/internal/terrain"
	"github.com/Faultbox/skyrunner/pkg/math"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if path := config.WriteConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", path)
		return
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
		fileCfg.JSON = cfg.Logging.JSON
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Skyrunner ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("simulation error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("simulation finished normally")
}

// hud logs warnings in place of an on-screen display.
type hud struct {
	log *zap.Logger
}

func (h hud) ShowWarning(msg string, frames int) {
	h.log.Warn(msg, zap.Int("frames", frames))
}

func run(ctx context.Context, cfg *config.Config) error {
	var src source = autopilot{}
	envName := ""

	if path := cfg.Replay.Play; path != "" {
		r, err := replay.Open(path)
		if err != nil {
			return fmt.Errorf("opening replay: %w", err)
		}
		defer r.Close()
		h := r.Header()
		envName = h.Environment
		if h.TickRate != cfg.Simulation.TickRate {
			logger.Info("replay recorded at a different tick rate",
				zap.Int("recorded", h.TickRate), zap.Int("configured", cfg.Simulation.TickRate))
		}
		src = playback{r: r}
		logger.Info("replaying", zap.String("path", path), zap.Time("recorded", h.Created))
	}

	env, err := cfg.Env(envName)
	if err != nil {
		return err
	}

	cache, err := terrain.NewTileCache(cfg.Streaming.CacheTiles)
	if err != nil {
		return err
	}
	streamer, err := terrain.NewStreamer(cache, env.Terrain, cfg.Streaming)
	if err != nil {
		return err
	}

	var ground terrain.Source
	if streamer != nil {
		if err := streamer.Load(ctx, math.FromArray(env.LaunchPosition)); err != nil {
			return fmt.Errorf("loading launch tiles: %w", err)
		}
		ground = cache
	}

	s, err := sim.New(env, ground, sim.WithNotifier(hud{log: logger.Named("hud")}))
	if err != nil {
		return err
	}

	var rec *replay.Writer
	if path := cfg.Replay.Record; path != "" {
		rec, err = replay.Create(path, replay.Header{Environment: env.Name, TickRate: cfg.Simulation.TickRate})
		if err != nil {
			return fmt.Errorf("creating recording: %w", err)
		}
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Error("failed to close recording", zap.Error(err))
			}
			logger.Info("recording saved", zap.String("path", path), zap.Int("ticks", rec.Ticks()))
		}()
	}

	eg, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	if streamer != nil {
		eg.Go(func() error { return streamer.Run(ctx) })
	}
	eg.Go(func() error {
		defer cancel()
		return loop(ctx, cfg, s, src, rec, streamer)
	})
	return eg.Wait()
}

// loop drives the simulation at the configured tick rate until exit is
// requested, the tick limit is hit or ctx is cancelled.
func loop(ctx context.Context, cfg *config.Config, s *sim.Simulation, src source, rec *replay.Writer, streamer *terrain.Streamer) error {
	log := logger.Named("loop")

	var tick <-chan time.Time
	if rate := cfg.Simulation.TickRate; rate > 0 {
		t := time.NewTicker(time.Second / time.Duration(rate))
		defer t.Stop()
		tick = t.C
	}
	every := uint64(max(cfg.Streaming.EveryNTicks, 1))
	report := uint64(max(cfg.Simulation.TickRate, 60))

	s.Launch()
	defer s.Teardown()

	start := time.Now()
	var n uint64
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		raw, err := src.Next(n)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if rec != nil {
			if err := rec.Write(raw); err != nil {
				return err
			}
		}

		frame, err := s.Tick(raw)
		switch {
		case errors.Is(err, sim.ErrTickFailed):
			log.Warn("tick dropped", zap.Uint64("tick", n))
		case err != nil:
			return err
		}
		n++

		if streamer != nil && n%every == 0 {
			streamer.Follow(frame.CraftPosition)
		}
		if n%report == 0 {
			log.Info("status",
				zap.Uint64("tick", frame.Tick),
				zap.Stringer("mode", frame.Mode),
				zap.Float64("speed", frame.Speed),
				zap.Float64("altitude", frame.CraftPosition.Y),
				zap.Stringer("wings", frame.WingPhase),
				zap.Bool("first_person", frame.FirstPerson),
			)
		}

		if frame.Exit {
			log.Info("exit requested", zap.Uint64("tick", n))
			break
		}
		if limit := cfg.Simulation.MaxTicks; limit > 0 && n >= uint64(limit) {
			break
		}
	}

	log.Info("loop finished", zap.Uint64("ticks", n), zap.Duration("elapsed", time.Since(start)))
	return nil
}

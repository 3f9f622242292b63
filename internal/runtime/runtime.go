// Package runtime hosts a configured engine core behind a process lifecycle:
// pipeline execution on start, a fixed-rate frame loop, an optional websocket
// input endpoint, and orderly teardown.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sceneforge/sceneforge/internal/core/engine"
	"github.com/sceneforge/sceneforge/internal/core/input"
	"github.com/sceneforge/sceneforge/internal/core/observability/log"
)

// Config holds runtime configuration, populated from the environment.
type Config struct {
	// ConfigRoot is the directory configuration documents resolve against.
	ConfigRoot string `env:"SCENEFORGE_ROOT" envDefault:"."`
	// Manifest is the pipeline manifest, relative to ConfigRoot.
	Manifest string `env:"SCENEFORGE_MANIFEST" envDefault:"game.yaml"`
	// InputAddr enables the websocket input endpoint when non-empty.
	InputAddr string `env:"SCENEFORGE_INPUT_ADDR"`
	LogLevel  string `env:"SCENEFORGE_LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Runtime drives one engine core for the life of the process.
type Runtime struct {
	core   *engine.Core
	config Config
	logger log.Log

	httpServer *http.Server

	running  int32
	stopChan chan struct{}
	workers  sync.WaitGroup
}

func New(cfg Config) (*Runtime, error) {
	logger := log.New(log.ParseLevel(cfg.LogLevel))

	core, err := engine.New(logger)
	if err != nil {
		return nil, err
	}
	return &Runtime{
		core:     core,
		config:   cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
	}, nil
}

func (r *Runtime) Core() *engine.Core { return r.core }

// Start runs the configuration pipeline and launches the frame loop plus the
// input endpoint when one is configured.
func (r *Runtime) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&r.running, 0, 1) {
		return errors.New("runtime already started")
	}

	if err := r.core.RunPipeline(r.config.ConfigRoot, r.config.Manifest); err != nil {
		atomic.StoreInt32(&r.running, 0)
		return fmt.Errorf("pipeline %s: %w", r.config.Manifest, err)
	}
	r.logger.Info("configuration applied",
		log.String("manifest", r.config.Manifest),
		log.Int("fps", r.core.FrameRate()),
		log.String("scene", r.core.ActiveScene()),
	)

	if r.config.InputAddr != "" {
		r.startInput()
	}

	r.workers.Add(1)
	go r.frameLoop(ctx)
	return nil
}

// Stop halts the frame loop, shuts the input endpoint down and tears the
// engine core down. Safe to call once.
func (r *Runtime) Stop() error {
	if !atomic.CompareAndSwapInt32(&r.running, 1, 0) {
		return nil
	}
	close(r.stopChan)

	var err error
	if r.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = r.httpServer.Shutdown(ctx)
	}
	r.workers.Wait()
	r.core.Close()
	return err
}

func (r *Runtime) startInput() {
	mux := http.NewServeMux()
	mux.Handle("/events", input.NewPump(r.core.Dispatcher(), r.logger))
	r.httpServer = &http.Server{
		Addr:              r.config.InputAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	r.workers.Add(1)
	go func() {
		defer r.workers.Done()
		r.logger.Info("input endpoint listening", log.String("addr", r.config.InputAddr))
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("input endpoint failed", log.Err(err))
		}
	}()
}

// frameLoop steps the core at the configured frame rate. dt is measured, not
// assumed, so a slow frame does not distort simulated time.
func (r *Runtime) frameLoop(ctx context.Context) {
	defer r.workers.Done()

	fps := r.core.FrameRate()
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if err := r.core.Step(dt); err != nil {
				r.logger.Warn("frame listeners failed", log.Err(err))
			}
		}
	}
}

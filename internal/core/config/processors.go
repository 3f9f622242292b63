package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/sceneforge/sceneforge/internal/core/singleton"
)

// Built-in processor names as registered by the engine core.
const (
	GameConfigProcessorName = "game_config"
	DisplayProcessorName    = "display"
)

// Default singleton keys processors target when processor_args name none.
const (
	GameKey     = "Game"
	RendererKey = "Renderer"
)

// GameConfigurable is what the game-config processor drives. The engine core
// implements it; tests substitute their own.
type GameConfigurable interface {
	EnsureScene(name string)
	SetFrameRate(fps int)
	SetDebug(enabled bool)
}

// DisplayMode is the resolved display configuration handed to a renderer.
type DisplayMode struct {
	Width      int    `mapstructure:"width"`
	Height     int    `mapstructure:"height"`
	Title      string `mapstructure:"title"`
	Fullscreen bool   `mapstructure:"fullscreen"`
}

// DisplayConfigurable is what the display processor drives.
type DisplayConfigurable interface {
	ConfigureDisplay(mode DisplayMode) error
}

type gameConfig struct {
	Scenes    []string `mapstructure:"scenes"`
	FrameRate int      `mapstructure:"fps"`
	Debug     bool     `mapstructure:"debug"`
}

// GameConfigProcessor applies a loaded game-settings document to the running
// game singleton: declares scenes, sets the frame rate and the debug flag.
type GameConfigProcessor struct{}

func (GameConfigProcessor) Process(data, args map[string]any, scope *singleton.Scope) error {
	var cfg gameConfig
	if err := mapstructure.WeakDecode(data, &cfg); err != nil {
		return fmt.Errorf("game config: %w", err)
	}

	target, err := scope.Get(targetKey(args, GameKey))
	if err != nil {
		return err
	}
	game, ok := target.(GameConfigurable)
	if !ok {
		return fmt.Errorf("game config: %T is not configurable", target)
	}

	for _, scene := range cfg.Scenes {
		game.EnsureScene(scene)
	}
	if cfg.FrameRate > 0 {
		game.SetFrameRate(cfg.FrameRate)
	}
	game.SetDebug(cfg.Debug)
	return nil
}

// DisplayProcessor resolves (creating on demand) the renderer singleton and
// hands it the loaded display mode.
type DisplayProcessor struct{}

func (DisplayProcessor) Process(data, args map[string]any, scope *singleton.Scope) error {
	var mode DisplayMode
	if err := mapstructure.WeakDecode(data, &mode); err != nil {
		return fmt.Errorf("display config: %w", err)
	}

	target, err := scope.GetOrCreate(targetKey(args, RendererKey), nil)
	if err != nil {
		return err
	}
	renderer, ok := target.(DisplayConfigurable)
	if !ok {
		return fmt.Errorf("display config: %T is not display-configurable", target)
	}
	return renderer.ConfigureDisplay(mode)
}

func targetKey(args map[string]any, fallback string) string {
	if key, ok := args["target"].(string); ok && key != "" {
		return key
	}
	return fallback
}

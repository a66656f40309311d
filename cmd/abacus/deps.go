package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/abacus/internal/advice"
	"github.com/verte-zerg/abacus/internal/ai"
	"github.com/verte-zerg/abacus/internal/config"
	"github.com/verte-zerg/abacus/internal/logging"
	"github.com/verte-zerg/abacus/internal/narration"
	"github.com/verte-zerg/abacus/internal/preset"
	"github.com/verte-zerg/abacus/internal/store"
	"github.com/verte-zerg/abacus/internal/tui"
)

// env holds the process-wide collaborators shared by the commands.
type env struct {
	logger  *zap.Logger
	store   *store.Store
	presets *preset.Manager
}

// openEnv sets up logging and storage. A database that cannot be opened is not fatal:
// sessions are not recorded and presets fall back to a JSON file.
func openEnv(fileCfg config.FileConfig) (*env, error) {
	logger, err := logging.New(config.String(fileCfg.Log.File, config.DefaultLogPath()), config.String(fileCfg.Log.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	e := &env{logger: logger}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logWarn(logger, "failed to open db, sessions will not be saved", err)
		e.presets = preset.NewManager(preset.FileStorage{Path: config.DefaultPresetsPath()}, logger)
		return e, nil
	}
	e.store = st
	e.presets = preset.NewManager(st, logger)
	return e, nil
}

func (e *env) Close() {
	if e.store != nil {
		if cerr := e.store.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	_ = e.logger.Sync()
}

func buildCoach(ctx context.Context, cfg config.CoachConfig, logger *zap.Logger) *advice.Coach {
	timeout := time.Duration(config.Int(cfg.Timeout, 0)) * time.Second
	provider, err := coachProvider(ctx, cfg, timeout)
	if err != nil {
		logWarn(logger, "coach disabled", err)
		provider = nil
	}
	return advice.NewCoach(provider, timeout, logger)
}

func coachProvider(ctx context.Context, cfg config.CoachConfig, timeout time.Duration) (advice.Provider, error) {
	modelName := config.String(cfg.Model, "")
	switch name := config.String(cfg.Provider, config.ProviderAuto); name {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderAuto:
		key := ai.APIKeyFromEnv()
		if key == "" {
			return nil, nil
		}
		return ai.NewGemini(ctx, key, ai.GeminiOptions{TextModel: modelName})
	case config.ProviderGemini:
		return ai.NewGemini(ctx, ai.APIKeyFromEnv(), ai.GeminiOptions{TextModel: modelName})
	case config.ProviderOllama:
		return ai.NewOllama(config.String(cfg.OllamaURL, ai.DefaultOllamaURL), modelName, timeout)
	default:
		return nil, fmt.Errorf("unknown coach provider %q", name)
	}
}

// buildNarration picks generated speech when a Gemini key and an audio player are
// available, and a local speech command as the fallback chain. With neither, numbers
// flash on screen.
func buildNarration(ctx context.Context, fileCfg config.FileConfig, logger *zap.Logger) tui.Narration {
	cfg := fileCfg.Narration
	var n tui.Narration

	provider := config.String(cfg.Provider, config.ProviderAuto)
	switch provider {
	case config.ProviderNone:
		return n
	case config.ProviderAuto, config.ProviderGemini, config.ProviderCommand:
	default:
		logWarn(logger, "narration disabled", fmt.Errorf("unknown narration provider %q", provider))
		return n
	}

	if command, ok := speakerCommand(cfg); ok {
		n.Speaker = narration.CommandSpeaker{Command: command}
	}
	if provider == config.ProviderCommand {
		return n
	}

	key := ai.APIKeyFromEnv()
	if key == "" {
		if provider == config.ProviderGemini {
			logWarn(logger, "generated narration disabled", ai.ErrNoAPIKey)
		}
		return n
	}
	player, ok := playerCommand(cfg)
	if !ok {
		if provider == config.ProviderGemini {
			logWarn(logger, "generated narration disabled", fmt.Errorf("no audio player found"))
		}
		return n
	}
	gemini, err := ai.NewGemini(ctx, key, ai.GeminiOptions{Voice: config.String(cfg.Voice, "")})
	if err != nil {
		logWarn(logger, "generated narration disabled", err)
		return n
	}
	n.Audio = gemini
	n.Player = narration.CommandPlayer{Command: player}
	return n
}

func speakerCommand(cfg config.NarrationConfig) (string, bool) {
	if cfg.Command != nil && *cfg.Command != "" {
		return *cfg.Command, true
	}
	return narration.DetectSpeaker()
}

func playerCommand(cfg config.NarrationConfig) (string, bool) {
	if cfg.Player != nil && *cfg.Player != "" {
		return *cfg.Player, true
	}
	return narration.DetectPlayer()
}

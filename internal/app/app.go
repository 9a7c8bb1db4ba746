package app

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/chan4lk/spacemap/internal/config"
	"github.com/chan4lk/spacemap/internal/filter"
	"github.com/chan4lk/spacemap/internal/logging"
	"github.com/chan4lk/spacemap/internal/services"
	"github.com/chan4lk/spacemap/internal/state"
	"github.com/chan4lk/spacemap/internal/ui"
)

// Run wires the whole interactive session: logger, services, state, TUI.
// Preference toggles made during the session are written back to the config
// file on a clean exit.
func Run(cfg *config.Config, configFile string) error {
	if abs, err := filepath.Abs(cfg.Root); err == nil {
		cfg.Root = abs
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer logger.Sync()

	var presets []filter.Preset
	if cfg.PresetsFile != "" {
		presets, err = filter.LoadPresets(cfg.PresetsFile)
		if err != nil {
			return err
		}
		logger.Info("presets loaded", zap.String("file", cfg.PresetsFile), zap.Int("count", len(presets)))
	}

	scanner := services.NewFSScanner(logger)
	actions := services.NewFSActions(logger)
	appState := state.NewState(cfg)

	if cfg.Preset != "" {
		preset, err := filter.ByName(presets, cfg.Preset)
		if err != nil {
			return err
		}
		rules, err := preset.Rules(time.Now())
		if err != nil {
			return err
		}
		appState.SetRules(rules, preset.Name)
	}

	model := ui.NewModel(appState, scanner, actions, cfg, presets)
	program := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		logger.Error("tui failed", zap.Error(err))
		return fmt.Errorf("run ui: %w", err)
	}

	if final, ok := finalModel.(ui.Model); ok {
		prefs := final.Preferences()
		cfg.IncludeHidden = prefs.IncludeHidden
		cfg.SafeMode = prefs.SafeMode
		cfg.Sort = string(prefs.SortMode)
		cfg.Theme = prefs.Theme
		if err := config.Save(cfg, configFile); err != nil {
			logger.Warn("config save failed", zap.Error(err))
			return fmt.Errorf("save config: %w", err)
		}
	}
	return nil
}

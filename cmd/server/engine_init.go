// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

package main

import (
	"fmt"

	"github.com/tomtom215/tripwire/internal/config"
	"github.com/tomtom215/tripwire/internal/detection"
	"github.com/tomtom215/tripwire/internal/logging"
)

// initEngine builds the detection engine from cfg, applies the startup
// detector toggles and wires the webhook notifier and the threat stream.
// broadcaster may be nil.
func initEngine(cfg *config.Config, broadcaster detection.Broadcaster) (*detection.Engine, error) {
	engine, err := detection.NewEngine(cfg.EngineConfig())
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	if err := disableDetectors(engine, cfg.Detection.DisabledDetectors); err != nil {
		return nil, err
	}

	if cfg.Notify.Webhook.Enabled {
		engine.RegisterNotifier(detection.NewWebhookNotifier(cfg.WebhookNotifierConfig()))
		logging.Info().
			Str("min_severity", cfg.Notify.Webhook.MinSeverity).
			Msg("Webhook notifier registered")
	}

	if broadcaster != nil {
		engine.SetBroadcaster(broadcaster)
	}
	engine.SetEnabled(cfg.Detection.Enabled)

	return engine, nil
}

// disableDetectors turns off every detector named in names.
func disableDetectors(engine *detection.Engine, names []string) error {
	for _, name := range names {
		if err := engine.Registry().SetEnabled(detection.DetectorName(name), false); err != nil {
			return fmt.Errorf("disable detector: %w", err)
		}
	}
	return nil
}

// reloadConfig applies the settings that can change without a restart: the
// log level, the engine switch and the startup detector toggles. Detectors
// enabled through the admin API stay enabled unless the file now disables
// them. Listener, CORS and rate limit changes need a restart.
func reloadConfig(engine *detection.Engine) {
	cfg, _, err := config.LoadWithPath()
	if err != nil {
		logging.Error().Err(err).Msg("Config reload failed, keeping current settings")
		return
	}

	logging.SetLevelString(cfg.Logging.Level)
	engine.SetEnabled(cfg.Detection.Enabled)
	if err := disableDetectors(engine, cfg.Detection.DisabledDetectors); err != nil {
		logging.Error().Err(err).Msg("Config reload could not apply detector toggles")
	}

	logging.Info().
		Str("log_level", cfg.Logging.Level).
		Bool("detection_enabled", cfg.Detection.Enabled).
		Strs("disabled_detectors", cfg.Detection.DisabledDetectors).
		Msg("Configuration reloaded")
}

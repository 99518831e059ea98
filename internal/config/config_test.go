package config

import (
	"os"
	"testing"
	"time"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
	"github.com/GriffinCanCode/deathwatch/internal/imageproc"
)

var envVars = []string{
	"HTTP_ADDR", "LOG_LEVEL", "MONITOR_INDEX", "GAME", "DEATH_TEXT", "DEATH_ZONE",
	"BOSS_ZONES", "SCAN_INTERVAL_MS", "DEATH_COOLDOWN_SEC", "POST_DETECTION_PAUSE_SEC",
	"ENGINE_ERROR_BACKOFF_SEC", "BOSS_MIN_SCORE", "DEATH_SIMILARITY", "BOSS_MATCH_THRESHOLD",
	"OCR_ENGINE", "OCR_LANGUAGES", "OCR_REMOTE_ADDR", "OCR_ENABLED", "STORAGE_PATH",
	"AUTOSAVE_INTERVAL_SEC", "HOTKEY_ENABLED", "HOTKEY", "FRAME_SKIP_ENABLED",
	"CHIME_ENABLED", "DEBUG_DUMP_DIR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.HTTPAddr != ":8300" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8300")
	}
	if cfg.ScanInterval != 500*time.Millisecond {
		t.Errorf("ScanInterval = %v, want 500ms", cfg.ScanInterval)
	}
	if cfg.DeathCooldown != 5*time.Second {
		t.Errorf("DeathCooldown = %v, want 5s", cfg.DeathCooldown)
	}
	if cfg.PostDetectionPause != 8*time.Second {
		t.Errorf("PostDetectionPause = %v, want 8s", cfg.PostDetectionPause)
	}
	if cfg.BossMinScore != 5.0 {
		t.Errorf("BossMinScore = %f, want 5.0", cfg.BossMinScore)
	}
	if cfg.BossMatchThreshold != 0.80 {
		t.Errorf("BossMatchThreshold = %f, want 0.80", cfg.BossMatchThreshold)
	}
	if cfg.OCREnabled {
		t.Error("OCREnabled should default to false")
	}
	if cfg.FrameSkipEnabled {
		t.Error("FrameSkipEnabled should default to false")
	}
	if cfg.Detection.DeathText != "VOUS AVEZ PERI" {
		t.Errorf("DeathText = %q", cfg.Detection.DeathText)
	}
	if cfg.Detection.DeathZone != (imageproc.CropZone{X: 31, Y: 46, Width: 39, Height: 10}) {
		t.Errorf("DeathZone = %v", cfg.Detection.DeathZone)
	}
	if len(cfg.OCRLanguages) != 2 || cfg.OCRLanguages[0] != "fra" {
		t.Errorf("OCRLanguages = %v", cfg.OCRLanguages)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAME", "dark_souls_3")
	t.Setenv("DEATH_TEXT", "YOU DIED")
	t.Setenv("BOSS_ZONES", "10,10,20,20;50,50,10,10")
	t.Setenv("SCAN_INTERVAL_MS", "250")
	t.Setenv("OCR_ENABLED", "true")
	t.Setenv("HOTKEY", "ctrl, d")

	cfg := Load()

	if cfg.Detection.Game != GameDarkSouls3 {
		t.Errorf("Game = %q", cfg.Detection.Game)
	}
	if cfg.Detection.DeathZone != (imageproc.CropZone{X: 30, Y: 45, Width: 40, Height: 12}) {
		t.Errorf("DeathZone = %v, want dark souls preset", cfg.Detection.DeathZone)
	}
	if cfg.Detection.DeathText != "YOU DIED" {
		t.Errorf("DeathText = %q", cfg.Detection.DeathText)
	}
	if len(cfg.Detection.BossZones) != 2 {
		t.Errorf("BossZones = %v", cfg.Detection.BossZones)
	}
	if cfg.ScanInterval != 250*time.Millisecond {
		t.Errorf("ScanInterval = %v", cfg.ScanInterval)
	}
	if !cfg.OCREnabled {
		t.Error("OCREnabled should be true")
	}
	if len(cfg.Hotkey) != 2 || cfg.Hotkey[1] != "d" {
		t.Errorf("Hotkey = %v", cfg.Hotkey)
	}
}

func TestPresetIsolation(t *testing.T) {
	p := PresetFor(GameEldenRing)
	p.BossZones[0].X = 99

	if PresetFor(GameEldenRing).BossZones[0].X == 99 {
		t.Error("PresetFor must return a copy of the boss zones")
	}
	if PresetFor("unknown").Game != GameEldenRing {
		t.Error("unknown games fall back to Elden Ring")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		mutate func(*Config)
		code   apperrors.Code
	}{
		{"death zone overflow", func(c *Config) { c.Detection.DeathZone = imageproc.CropZone{X: 80, Width: 30} }, apperrors.ConfigInvalid},
		{"no boss zones", func(c *Config) { c.Detection.BossZones = nil }, apperrors.ConfigInvalid},
		{"boss zone overflow", func(c *Config) { c.Detection.BossZones[0].Height = 90 }, apperrors.ConfigInvalid},
		{"blank death text", func(c *Config) { c.Detection.DeathText = "  " }, apperrors.ConfigInvalid},
		{"negative monitor", func(c *Config) { c.MonitorIndex = -1 }, apperrors.ConfigInvalid},
		{"remote without addr", func(c *Config) { c.OCREngine = "remote" }, apperrors.ConfigMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !apperrors.IsCode(err, tt.code) {
				t.Errorf("Validate() = %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestMalformedZoneOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEATH_ZONE", "not,a,zone")

	if err := Load().Validate(); !apperrors.IsCode(err, apperrors.ConfigInvalid) {
		t.Errorf("malformed DEATH_ZONE should fail validation, got %v", err)
	}
}

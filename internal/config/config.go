// Package config handles deathwatch configuration
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
	"github.com/GriffinCanCode/deathwatch/internal/imageproc"
)

// Detection describes where to look on screen and what to look for.
type Detection struct {
	Game      string
	DeathZone imageproc.CropZone
	BossZones []imageproc.CropZone
	DeathText string
}

type Config struct {
	HTTPAddr     string
	LogLevel     string
	MonitorIndex int
	Detection    Detection

	ScanInterval       time.Duration
	DeathCooldown      time.Duration
	PostDetectionPause time.Duration
	EngineErrorBackoff time.Duration
	BossMinScore       float64
	DeathSimilarity    float64 // 0-100
	BossMatchThreshold float64 // 0-1
	FrameSkipEnabled   bool

	OCREngine     string
	OCRLanguages  []string
	OCRRemoteAddr string
	OCREnabled    bool

	StoragePath      string
	AutosaveInterval time.Duration

	HotkeyEnabled bool
	Hotkey        []string

	ChimeEnabled bool
	ChimeDevice  string
	DebugDumpDir string
}

// Load reads the configuration from the environment. Zone overrides that fail
// to parse are kept empty so Validate reports them.
func Load() *Config {
	game := strings.ToLower(getEnv("GAME", GameEldenRing))
	det := PresetFor(game)
	det.DeathText = getEnv("DEATH_TEXT", det.DeathText)
	if v := os.Getenv("DEATH_ZONE"); v != "" {
		z, err := imageproc.ParseZone(v)
		if err != nil {
			z = imageproc.CropZone{X: 101}
		}
		det.DeathZone = z
	}
	if v := os.Getenv("BOSS_ZONES"); v != "" {
		zones, _ := imageproc.ParseZones(v)
		det.BossZones = zones
	}

	return &Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8300"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MonitorIndex:       getEnvInt("MONITOR_INDEX", 0),
		Detection:          det,
		ScanInterval:       time.Duration(getEnvInt("SCAN_INTERVAL_MS", 500)) * time.Millisecond,
		DeathCooldown:      getEnvSeconds("DEATH_COOLDOWN_SEC", 5),
		PostDetectionPause: getEnvSeconds("POST_DETECTION_PAUSE_SEC", 8),
		EngineErrorBackoff: getEnvSeconds("ENGINE_ERROR_BACKOFF_SEC", 5),
		BossMinScore:       getEnvFloat("BOSS_MIN_SCORE", 5.0),
		DeathSimilarity:    getEnvFloat("DEATH_SIMILARITY", 80),
		BossMatchThreshold: getEnvFloat("BOSS_MATCH_THRESHOLD", 0.80),
		FrameSkipEnabled:   getEnvBool("FRAME_SKIP_ENABLED", false),
		OCREngine:          getEnv("OCR_ENGINE", "tesseract"),
		OCRLanguages:       getEnvList("OCR_LANGUAGES", []string{"fra", "eng"}),
		OCRRemoteAddr:      getEnv("OCR_REMOTE_ADDR", ""),
		OCREnabled:         getEnvBool("OCR_ENABLED", false),
		StoragePath:        getEnv("STORAGE_PATH", "storage.json"),
		AutosaveInterval:   getEnvSeconds("AUTOSAVE_INTERVAL_SEC", 10),
		HotkeyEnabled:      getEnvBool("HOTKEY_ENABLED", true),
		Hotkey:             getEnvList("HOTKEY", []string{"shift", "+"}),
		ChimeEnabled:       getEnvBool("CHIME_ENABLED", false),
		ChimeDevice:        getEnv("CHIME_DEVICE", ""),
		DebugDumpDir:       getEnv("DEBUG_DUMP_DIR", ""),
	}
}

// Validate checks the detection settings the worker depends on.
func (d Detection) Validate() error {
	if !d.DeathZone.Valid() {
		return apperrors.Newf(apperrors.ConfigInvalid, "death zone %s exceeds the frame", d.DeathZone)
	}
	if len(d.BossZones) == 0 {
		return apperrors.New(apperrors.ConfigInvalid, "at least one boss zone is required")
	}
	for i, z := range d.BossZones {
		if !z.Valid() {
			return apperrors.Newf(apperrors.ConfigInvalid, "boss zone %s exceeds the frame", z).
				WithMetadata("index", strconv.Itoa(i))
		}
	}
	if strings.TrimSpace(d.DeathText) == "" {
		return apperrors.New(apperrors.ConfigInvalid, "death text must not be empty")
	}
	return nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if c.MonitorIndex < 0 {
		return apperrors.Newf(apperrors.ConfigInvalid, "monitor index %d is negative", c.MonitorIndex)
	}
	if c.ScanInterval <= 0 {
		return apperrors.New(apperrors.ConfigInvalid, "scan interval must be positive")
	}
	if c.OCREngine == "remote" && c.OCRRemoteAddr == "" {
		return apperrors.New(apperrors.ConfigMissing, "OCR_REMOTE_ADDR is required for the remote engine")
	}
	return c.Detection.Validate()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvSeconds(key string, def float64) time.Duration {
	return time.Duration(getEnvFloat(key, def) * float64(time.Second))
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}

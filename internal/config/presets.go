package config

import "github.com/GriffinCanCode/deathwatch/internal/imageproc"

const (
	GameEldenRing  = "elden_ring"
	GameDarkSouls3 = "dark_souls_3"

	defaultDeathText = "VOUS AVEZ PERI"
)

var presets = map[string]Detection{
	GameEldenRing: {
		Game:      GameEldenRing,
		DeathZone: imageproc.CropZone{X: 31, Y: 46, Width: 39, Height: 10},
		BossZones: []imageproc.CropZone{{X: 25, Y: 30, Width: 50, Height: 15}},
		DeathText: defaultDeathText,
	},
	GameDarkSouls3: {
		Game:      GameDarkSouls3,
		DeathZone: imageproc.CropZone{X: 30, Y: 45, Width: 40, Height: 12},
		BossZones: []imageproc.CropZone{{X: 20, Y: 25, Width: 60, Height: 20}},
		DeathText: defaultDeathText,
	},
}

// PresetFor returns the detection preset for game, falling back to Elden Ring.
func PresetFor(game string) Detection {
	p, ok := presets[game]
	if !ok {
		p = presets[GameEldenRing]
	}
	p.BossZones = append([]imageproc.CropZone(nil), p.BossZones...)
	return p
}

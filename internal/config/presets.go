package config

import "github.com/emtz/motorlab/internal/hinf"

// Presets are starting points for the weight tuning loop, named for the
// closed-loop temperament they produce on a typical rig.
var Presets = map[string]hinf.WeightParams{
	"gentle": {
		Ms: 1.5, Wb: 2.0, Eps: 0.01,
		Umax: 255, Wbu: 0.2, EpsU: 0.01,
		Wt: 20, EpsT: 0.01,
	},
	"balanced": {
		Ms: 2.0, Wb: 5.0, Eps: 0.01,
		Umax: 255, Wbu: 0.5, EpsU: 0.01,
		Wt: 50, EpsT: 0.01,
	},
	"aggressive": {
		Ms: 2.0, Wb: 12.0, Eps: 0.005,
		Umax: 255, Wbu: 1.2, EpsU: 0.01,
		Wt: 120, EpsT: 0.01,
	},
	"low-noise": {
		Ms: 1.8, Wb: 3.0, Eps: 0.02,
		Umax: 128, Wbu: 0.3, EpsU: 0.05,
		Wt: 30, EpsT: 0.05,
	},
}

func GetPreset(name string) (hinf.WeightParams, bool) {
	w, ok := Presets[name]
	return w, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

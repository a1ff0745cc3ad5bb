package config

// Presets are named end-to-end experiment configurations, keyed by
// system then preset name.
var Presets = map[string]map[string]*Config{
	"lorenz": {
		"quick": presetFrom(func(c *Config) {
			c.System.Name = "lorenz"
			c.Simulation.Duration = 20.0
			c.Training.Epochs = 20
		}),
		"paper": presetFrom(func(c *Config) {
			c.System.Name = "lorenz"
			c.Simulation.Duration = 80.0
			c.Dataset.Window = 32
			c.Dataset.Horizon = 8
			c.Model.HiddenDim = 64
			c.Model.LatentDim = 16
			c.Model.DynHidden = 64
			c.Training.Epochs = 200
		}),
		"noisy": presetFrom(func(c *Config) {
			c.System.Name = "lorenz"
			c.Simulation.NoiseStd = 0.05
			c.Dataset.Scaler = "standard"
		}),
	},
	"rossler": {
		"quick": presetFrom(func(c *Config) {
			c.System.Name = "rossler"
			c.Simulation.Duration = 60.0
			c.Training.Epochs = 30
		}),
	},
	"vanderpol": {
		"quick": presetFrom(func(c *Config) {
			c.System.Name = "vanderpol"
			c.Simulation.Duration = 30.0
			c.Dataset.Window = 8
			c.Training.Epochs = 20
		}),
	},
}

func presetFrom(mutate func(*Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

func GetPreset(system, name string) *Config {
	group, ok := Presets[system]
	if !ok {
		return nil
	}
	return group[name]
}

func ListPresets(system string) []string {
	group, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(group))
	for name := range group {
		names = append(names, name)
	}
	return names
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt        = 0.01
	DefaultDuration  = 40.0
	DefaultTransient = 2.0
	DefaultWindow    = 16
	DefaultHorizon   = 4
	DefaultStride    = 1
	DefaultTrainFrac = 0.8
	DefaultEpochs    = 60
	DefaultBatch     = 32
	DefaultLR        = 1e-3
	DefaultClipNorm  = 5.0
)

type Config struct {
	System     SystemConfig   `yaml:"system"`
	Simulation SimConfig      `yaml:"simulation"`
	Dataset    DatasetConfig  `yaml:"dataset"`
	Model      ModelConfig    `yaml:"model"`
	Training   TrainingConfig `yaml:"training"`
}

type SystemConfig struct {
	Name      string             `yaml:"name"`
	Params    map[string]float64 `yaml:"params"`
	InitState []float64          `yaml:"init_state"`
}

type SimConfig struct {
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	Transient  float64 `yaml:"transient"`
	Integrator string  `yaml:"integrator"`
	NoiseStd   float64 `yaml:"noise_std"`
	Seed       int64   `yaml:"seed"`
}

type DatasetConfig struct {
	Scaler    string  `yaml:"scaler"`
	Window    int     `yaml:"window"`
	Horizon   int     `yaml:"horizon"`
	Stride    int     `yaml:"stride"`
	TrainFrac float64 `yaml:"train_frac"`
}

type ModelConfig struct {
	HiddenDim int   `yaml:"hidden_dim"`
	LatentDim int   `yaml:"latent_dim"`
	DynHidden int   `yaml:"dyn_hidden"`
	Seed      int64 `yaml:"seed"`
}

type TrainingConfig struct {
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"learning_rate"`
	Optimizer    string  `yaml:"optimizer"`
	ClipNorm     float64 `yaml:"clip_norm"`
	Seed         int64   `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		System: SystemConfig{
			Name: "lorenz",
		},
		Simulation: SimConfig{
			Dt:         DefaultDt,
			Duration:   DefaultDuration,
			Transient:  DefaultTransient,
			Integrator: "rk4",
			Seed:       42,
		},
		Dataset: DatasetConfig{
			Scaler:    "minmax",
			Window:    DefaultWindow,
			Horizon:   DefaultHorizon,
			Stride:    DefaultStride,
			TrainFrac: DefaultTrainFrac,
		},
		Model: ModelConfig{
			HiddenDim: 32,
			LatentDim: 8,
			DynHidden: 32,
			Seed:      42,
		},
		Training: TrainingConfig{
			Epochs:       DefaultEpochs,
			BatchSize:    DefaultBatch,
			LearningRate: DefaultLR,
			Optimizer:    "adam",
			ClipNorm:     DefaultClipNorm,
			Seed:         42,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Simulation.Dt <= 0 {
		return fmt.Errorf("config: simulation.dt must be positive, got %f", c.Simulation.Dt)
	}
	if c.Simulation.Duration <= 0 {
		return fmt.Errorf("config: simulation.duration must be positive, got %f", c.Simulation.Duration)
	}
	if c.Dataset.Window <= 0 || c.Dataset.Horizon <= 0 || c.Dataset.Stride <= 0 {
		return fmt.Errorf("config: dataset window/horizon/stride must be positive")
	}
	if c.Dataset.TrainFrac <= 0 || c.Dataset.TrainFrac >= 1 {
		return fmt.Errorf("config: dataset.train_frac must be in (0,1), got %f", c.Dataset.TrainFrac)
	}
	if c.Training.LearningRate <= 0 {
		return fmt.Errorf("config: training.learning_rate must be positive, got %f", c.Training.LearningRate)
	}
	return nil
}

package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/emtz/motorlab/internal/hinf"
)

const (
	DefaultPort     = "/dev/ttyUSB0"
	DefaultBaud     = 115200
	DefaultCapacity = 500
	DefaultADCMax   = 1023
	DefaultTravelUm = 5000.0
	DefaultOrder    = 1
	DefaultDt       = 0.001
	DefaultDuration = 10.0
	DefaultTs       = 0.01
	DefaultDataDir  = "motorlab-data"
)

type Config struct {
	Serial         SerialConfig      `yaml:"serial"`
	Buffer         BufferConfig      `yaml:"buffer"`
	Calibration    CalibrationConfig `yaml:"calibration"`
	Identification IdentConfig       `yaml:"identification"`
	Weights        hinf.WeightParams `yaml:"weights"`
	Sim            SimConfig         `yaml:"sim"`
	Export         ExportConfig      `yaml:"export"`
	DataDir        string            `yaml:"data_dir"`
}

type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type BufferConfig struct {
	Capacity int `yaml:"capacity"`
}

type CalibrationConfig struct {
	ADCMax   int     `yaml:"adc_max"`
	TravelUm float64 `yaml:"travel_um"`
}

type IdentConfig struct {
	Order       int     `yaml:"order"`
	ResidualTol float64 `yaml:"residual_tol"`
}

type SimConfig struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
}

type ExportConfig struct {
	Ts float64 `yaml:"ts"`
}

func DefaultConfig() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: DefaultPort,
			Baud: DefaultBaud,
		},
		Buffer: BufferConfig{
			Capacity: DefaultCapacity,
		},
		Calibration: CalibrationConfig{
			ADCMax:   DefaultADCMax,
			TravelUm: DefaultTravelUm,
		},
		Identification: IdentConfig{
			Order:       DefaultOrder,
			ResidualTol: 0.05,
		},
		Weights: hinf.DefaultWeightParams(),
		Sim: SimConfig{
			Dt:       DefaultDt,
			Duration: DefaultDuration,
		},
		Export: ExportConfig{
			Ts: DefaultTs,
		},
		DataDir: DefaultDataDir,
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
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

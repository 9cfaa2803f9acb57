package config

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/nvml-tune/pkg/errors"
)

// Profile holds the optional YAML configuration file. Every field
// mirrors a CLI flag; explicit flags override profile values. One-shot
// settings are pointers so that absence means "leave the GPU alone".
type Profile struct {
	Index             *uint  `yaml:"index"`
	TDP               *uint  `yaml:"tdp"`
	MclkOffset        *int   `yaml:"mclk_offset"`
	GclkOffset        *int   `yaml:"gclk_offset"`
	FanSpeed          *uint  `yaml:"fan_speed"`
	FanCurve          string `yaml:"fan_curve"`
	FanUpdateDuration *uint  `yaml:"fan_update_duration"`
	Logfile           string `yaml:"logfile"`
	LogLevel          string `yaml:"log_level"`
}

// Load reads and validates a profile. Unknown keys are rejected to
// catch typos in hand-written files.
func Load(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.KindConfig, "reading config profile", err)
	}

	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, errors.Wrap(errors.KindConfig, "parsing config profile", err)
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) validate() error {
	if p.FanSpeed != nil && *p.FanSpeed > 100 {
		return errors.Newf(errors.KindConfig, "fan_speed %d exceeds 100%%", *p.FanSpeed)
	}
	if p.FanUpdateDuration != nil && *p.FanUpdateDuration == 0 {
		return errors.New(errors.KindConfig, "fan_update_duration must be at least 1 second")
	}
	if p.FanSpeed != nil && p.FanCurve != "" {
		return errors.New(errors.KindConfig, "fan_speed and fan_curve are mutually exclusive")
	}
	return nil
}

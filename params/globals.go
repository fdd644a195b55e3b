package params

import (
	"bytes"
	"math"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/manningwu07/pcadata/generator"
)

type GeneratorConfig struct {
	// Basis is a matrix file (.csv/.bin, optionally .zst). Empty means draw
	// a random orthonormal basis of size Dims x Rank.
	Basis string `yaml:"basis"`
	Dims  int    `yaml:"dims"` // N, ambient dimension
	Rank  int    `yaml:"rank"` // K, subspace dimension

	NumPoints int     `yaml:"numpts"`
	Sigma     float64 `yaml:"sigma"` // noise standard deviation
	Seed      uint64  `yaml:"seed"`  // 0 = seed from the clock

	Output   string `yaml:"output"`
	Report   bool   `yaml:"report"` // run PCA on the result and log it
	LogLevel string `yaml:"log_level"`
}

// Reasonable defaults for a classroom run: a plane in R^3.
var DefaultConfig = GeneratorConfig{
	Dims:      3,
	Rank:      2,
	NumPoints: 100,
	Sigma:     0.1,
	Output:    "points.csv",
	LogLevel:  "info",
}

// LoadConfig overlays the YAML file at path on DefaultConfig.
func LoadConfig(path string) (GeneratorConfig, error) {
	cfg := DefaultConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Validate applies the generator's argument rules ahead of any work.
func (c GeneratorConfig) Validate() error {
	if c.NumPoints <= 0 {
		return errors.Wrapf(generator.ErrInvalidArgument, "numpts must be positive, got %d", c.NumPoints)
	}
	if c.Sigma < 0 || math.IsNaN(c.Sigma) || math.IsInf(c.Sigma, 0) {
		return errors.Wrapf(generator.ErrInvalidArgument, "sigma must be finite and non-negative, got %v", c.Sigma)
	}
	if c.Basis == "" && (c.Dims <= 0 || c.Rank <= 0 || c.Rank > c.Dims) {
		return errors.Wrapf(generator.ErrInvalidArgument, "need 0 < rank <= dims, got dims=%d rank=%d", c.Dims, c.Rank)
	}
	if c.Output == "" {
		return errors.Wrap(generator.ErrInvalidArgument, "output path is empty")
	}
	return nil
}

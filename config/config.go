// Package config holds the machine parameters shared by the word codec,
// memory, decoder and CPU, and loads them from TOML or YAML files.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ezrec/basicml/translate"
)

var f = translate.From

const (
	CLASSIC_WORD_WIDTH  = 4    // Digits per word, classic format.
	EXTENDED_WORD_WIDTH = 6    // Digits per word, extended format.
	CLASSIC_MEMORY_SIZE = 100  // Words of memory, classic format.
	EXTENDED_MEMORY     = 250  // Words of memory, extended format.
	MAX_STEPS           = 1000 // Default instruction budget per run.
	MAX_WORD_WIDTH      = 18   // Widest word that still fits an int64 product check.

	LOAD_POLICY_ZERO   = "zero"   // Degrade malformed words to zero.
	LOAD_POLICY_STRICT = "strict" // Reject the whole program.
)

var (
	ErrWordWidth    = errors.New(f("word width invalid"))
	ErrOperandWidth = errors.New(f("operand width invalid"))
	ErrMemorySize   = errors.New(f("memory size invalid"))
	ErrMaxSteps     = errors.New(f("step budget invalid"))
	ErrLoadPolicy   = errors.New(f("load policy invalid"))
	ErrFileFormat   = errors.New(f("config file format unknown"))
)

// Config describes one BasicML machine.
type Config struct {
	WordWidth    int    `toml:"word_width" yaml:"word_width"`       // Digits per word (W).
	OperandWidth int    `toml:"operand_width" yaml:"operand_width"` // Digits per operand (A); 0 selects W/2.
	MemorySize   int    `toml:"memory_size" yaml:"memory_size"`     // Words of memory (N).
	MaxSteps     int    `toml:"max_steps" yaml:"max_steps"`         // Instruction budget per run.
	LoadPolicy   string `toml:"load_policy" yaml:"load_policy"`     // "zero" or "strict".
	TestNoop     bool   `toml:"test_noop" yaml:"test_noop"`         // Accept the reserved no-op opcode.
}

// Classic is the 4-digit, 100-word machine.
func Classic() Config {
	return Config{
		WordWidth:  CLASSIC_WORD_WIDTH,
		MemorySize: CLASSIC_MEMORY_SIZE,
		MaxSteps:   MAX_STEPS,
		LoadPolicy: LOAD_POLICY_ZERO,
	}
}

// Extended is the 6-digit, 250-word machine.
func Extended() Config {
	return Config{
		WordWidth:  EXTENDED_WORD_WIDTH,
		MemorySize: EXTENDED_MEMORY,
		MaxSteps:   MAX_STEPS,
		LoadPolicy: LOAD_POLICY_ZERO,
	}
}

// Operand returns the effective operand width.
func (cfg Config) Operand() int {
	if cfg.OperandWidth == 0 {
		return cfg.WordWidth / 2
	}
	return cfg.OperandWidth
}

// Validate checks the parameters are mutually consistent.
func (cfg Config) Validate() (err error) {
	switch {
	case cfg.WordWidth < 3 || cfg.WordWidth > MAX_WORD_WIDTH:
		err = ErrWordWidth
	case cfg.Operand() < 1 || cfg.Operand() > cfg.WordWidth-2:
		// Operators need at least two digits.
		err = ErrOperandWidth
	case cfg.MemorySize < 1:
		err = ErrMemorySize
	case cfg.MaxSteps < 1:
		err = ErrMaxSteps
	case cfg.LoadPolicy != LOAD_POLICY_ZERO && cfg.LoadPolicy != LOAD_POLICY_STRICT:
		err = ErrLoadPolicy
	}

	return
}

// Decode reads a config from text. Fields missing from the text keep the
// values already in cfg.
func (cfg *Config) Decode(text string, format string) (err error) {
	switch strings.ToLower(format) {
	case ".toml", "toml":
		_, err = toml.Decode(text, cfg)
	case ".yaml", ".yml", "yaml":
		err = yaml.Unmarshal([]byte(text), cfg)
	default:
		err = errors.Join(ErrFileFormat, errors.New(format))
	}

	return
}

// Load reads a config file on top of the classic defaults, choosing the
// format by extension, and validates the result.
func Load(path string) (cfg Config, err error) {
	cfg = Classic()

	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	err = cfg.Decode(string(data), filepath.Ext(path))
	if err != nil {
		return
	}

	err = cfg.Validate()

	return
}

// Package config loads the YAML settings that bind a declaration build
// to the type graph: which declared types act as the top type and the
// callable root, how strictly labels are compared, and which implicit
// conversions exist.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/samber/lo"
	"github.com/smasher164/tq/types"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the source root when no config is given.
const DefaultFile = "tq.yaml"

// Conversion names an implicit conversion by type expression source.
type Conversion struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type Config struct {
	Top          string       `yaml:"top"`
	CallableRoot string       `yaml:"callable_root,omitempty"`
	LabelCheck   string       `yaml:"label_check"`
	Implicit     []Conversion `yaml:"implicit,omitempty"`
	LogLevel     string       `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Top:        "Object",
		LabelCheck: types.LabelCount.String(),
		LogLevel:   "info",
	}
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Parse decodes a config from r on top of the defaults. Unknown keys are
// rejected.
func Parse(r io.Reader) (Config, error) {
	c := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func Load(fsys fs.FS, name string) (Config, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	c, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

// LoadOrDefault loads name from fsys, falling back to the defaults when
// the file does not exist.
func LoadOrDefault(fsys fs.FS, name string) (Config, error) {
	c, err := Load(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}

func (c Config) Validate() error {
	var errs []error
	if c.Top == "" {
		errs = append(errs, errors.New("config: top must name a type"))
	}
	if _, err := types.ParseLabelCheck(c.LabelCheck); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	for i, conv := range c.Implicit {
		if conv.From == "" || conv.To == "" {
			errs = append(errs, fmt.Errorf("config: implicit[%d] needs both from and to", i))
		}
	}
	return errors.Join(errs...)
}

// Labels returns the configured label check. It assumes c is valid.
func (c Config) Labels() types.LabelCheck {
	lc, _ := types.ParseLabelCheck(c.LabelCheck)
	return lc
}

func (c Config) Level() (slog.Level, error) {
	if level, ok := logLevels[c.LogLevel]; ok {
		return level, nil
	}
	allowed := lo.Keys(logLevels)
	slices.SortFunc(allowed, func(a, b string) int {
		return int(logLevels[a] - logLevels[b])
	})
	return 0, types.NotInSet("log level", c.LogLevel, allowed)
}

// Encode writes c as YAML.
func (c Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return enc.Close()
}

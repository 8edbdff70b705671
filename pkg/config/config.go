// Package config holds the run configuration shared by the train and check
// commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/japaniel/spellbook/pkg/dictionary"
	"github.com/japaniel/spellbook/pkg/textsource"
)

// DefaultFile is read when no config path is given. It is optional.
const DefaultFile = "spellbook.toml"

// Config selects the dictionary store and the input to scan.
type Config struct {
	// StorePath is the persisted dictionary.
	StorePath string `toml:"store_path"`
	// StoreFormat is auto, csv or sqlite.
	StoreFormat string `toml:"store_format"`
	// InputPath is a file or http(s) URL.
	InputPath string `toml:"input_path"`
	// Column is the 0-based field of CSV/TSV records to read, -1 for all.
	Column int `toml:"column"`
	// Mode is auto, csv, tsv, text, html or url.
	Mode string `toml:"mode"`
	// Header skips the first CSV/TSV record.
	Header bool `toml:"header"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		StorePath:   "wordlist.csv",
		StoreFormat: dictionary.FormatAuto,
		Column:      textsource.AllColumns,
		Mode:        string(textsource.ModeAuto),
	}
}

// Load reads a TOML config file on top of Default. An empty path reads
// DefaultFile if it exists; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting. InputPath is only required
// by commands that read input, so it is not checked here.
func (c Config) Validate() error {
	if strings.TrimSpace(c.StorePath) == "" {
		return errors.New("store path must be non-empty")
	}
	switch strings.ToLower(c.StoreFormat) {
	case "", dictionary.FormatAuto, dictionary.FormatCSV, dictionary.FormatSQLite:
	default:
		return fmt.Errorf("unknown store format %q", c.StoreFormat)
	}
	switch textsource.Mode(c.Mode) {
	case "", textsource.ModeAuto, textsource.ModeCSV, textsource.ModeTSV,
		textsource.ModeText, textsource.ModeHTML, textsource.ModeURL:
	default:
		return fmt.Errorf("unknown input mode %q", c.Mode)
	}
	if c.Column < textsource.AllColumns {
		return fmt.Errorf("column must be %d (all) or a 0-based index, got %d", textsource.AllColumns, c.Column)
	}
	return nil
}

// SourceOptions converts the input settings for textsource.Open.
func (c Config) SourceOptions() textsource.Options {
	return textsource.Options{
		Mode:   textsource.Mode(c.Mode),
		Column: c.Column,
		Header: c.Header,
	}
}

// Marshal encodes the configuration as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

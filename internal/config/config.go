// Package config loads spine's settings: built-in defaults, then an
// optional TOML file, then SPINE_* environment variables. The result is
// checked against an embedded CUE schema before use.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"

	"github.com/roach88/spine/internal/writer"
)

//go:embed schema.cue
var schemaCUE string

// ErrInvalid marks configuration the loader refused.
var ErrInvalid = errors.New("invalid configuration")

const (
	// EnvConfig names the config file to read instead of the default one.
	EnvConfig = "SPINE_CONFIG"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultAddr      = "127.0.0.1:8765"
	JournalFilename  = "journal.db"
)

// Size is a byte count. In TOML it is an integer or a string such as
// "50 MiB" or "10MB".
type Size int64

// UnmarshalText reads a human-readable size.
func (s *Size) UnmarshalText(text []byte) error {
	n, err := humanize.ParseBytes(string(text))
	if err != nil {
		return fmt.Errorf("size %q: %w", text, err)
	}
	*s = Size(n)
	return nil
}

func (s Size) String() string { return humanize.IBytes(uint64(s)) }

// Limits are the input size ceilings.
type Limits struct {
	MaxDocumentBytes Size `toml:"max_document_bytes" json:"max_document_bytes"`
	MaxCueBytes      Size `toml:"max_cue_bytes" json:"max_cue_bytes"`
	// MaxPathBytes caps any file a tool call names, checked by the path gate.
	MaxPathBytes Size `toml:"max_path_bytes" json:"max_path_bytes"`
}

// Text caps free text written into documents, in characters.
type Text struct {
	Name int `toml:"name" json:"name"`
	Note int `toml:"note" json:"note"`
	Role int `toml:"role" json:"role"`
}

type Output struct {
	Suffix string `toml:"suffix" json:"suffix"`
}

// Journal controls the edit history database.
type Journal struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Path    string `toml:"path" json:"path"`
}

type Log struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
}

// Server configures the MCP server.
type Server struct {
	// Addr is the listen address of the streamable HTTP transport.
	Addr string `toml:"addr" json:"addr"`
	// Roots restricts the files tools may touch. Empty allows any path the
	// path gate accepts.
	Roots []string `toml:"roots" json:"roots"`
}

// Config is the resolved configuration.
type Config struct {
	Limits  Limits  `toml:"limits" json:"limits"`
	Text    Text    `toml:"text" json:"text"`
	Output  Output  `toml:"output" json:"output"`
	Journal Journal `toml:"journal" json:"journal"`
	Log     Log     `toml:"log" json:"log"`
	Server  Server  `toml:"server" json:"server"`

	// Source is the file the configuration was read from, if any.
	Source string `toml:"-" json:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Limits: Limits{
			MaxDocumentBytes: 50 << 20,
			MaxCueBytes:      10 << 20,
			MaxPathBytes:     100 << 20,
		},
		Text: Text{
			Name: writer.DefaultTextLimits.Name,
			Note: writer.DefaultTextLimits.Note,
			Role: writer.DefaultTextLimits.Role,
		},
		Output:  Output{Suffix: writer.DefaultSuffix},
		Journal: Journal{Enabled: true, Path: filepath.Join(DefaultDir(), JournalFilename)},
		Log:     Log{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Server:  Server{Addr: DefaultAddr, Roots: []string{}},
	}
}

// DefaultDir is ~/.config/spine, or .spine when there is no user config
// directory.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".spine"
	}
	return filepath.Join(dir, "spine")
}

// TextLimits converts Text for the writer.
func (c Config) TextLimits() writer.TextLimits {
	return writer.TextLimits{Name: c.Text.Name, Note: c.Text.Note, Role: c.Text.Role}
}

// LoadOptions tune Load. Zero values read the process environment and the
// default config path.
type LoadOptions struct {
	// Path is the config file. Empty means $SPINE_CONFIG, then
	// DefaultDir()/config.toml; only an explicit path must exist.
	Path string
	// EnvFile is a dotenv file consulted for SPINE_* variables the
	// environment does not set.
	EnvFile string
	// Lookup replaces os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Load resolves the configuration.
func Load(opts LoadOptions) (*Config, error) {
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if opts.EnvFile != "" {
		env, err := ReadEnvFile(opts.EnvFile)
		if err != nil {
			return nil, err
		}
		lookup = withFallback(lookup, env)
	}

	cfg := Default()
	path, explicit := opts.Path, opts.Path != ""
	if !explicit {
		if p, ok := lookup(EnvConfig); ok && p != "" {
			path, explicit = p, true
		} else {
			path = filepath.Join(DefaultDir(), "config.toml")
		}
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, filepath.Base(path), err)
		}
		cfg.Source = path
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("%w: cannot read %s: %v", ErrInvalid, filepath.Base(path), err)
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// decode reads TOML over the defaults already in cfg. Unknown keys are
// refused so typos surface.
func decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return errors.New(strings.TrimSpace(strict.String()))
		}
		return err
	}
	return nil
}

// Validate checks c against the embedded schema.
func (c Config) Validate() error {
	if c.Server.Roots == nil {
		c.Server.Roots = []string{}
	}
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	v := schema.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

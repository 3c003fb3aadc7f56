package config

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment overrides, applied after the config file.
const (
	EnvLogLevel         = "SPINE_LOG_LEVEL"
	EnvLogFormat        = "SPINE_LOG_FORMAT"
	EnvMaxDocumentBytes = "SPINE_MAX_DOCUMENT_BYTES"
	EnvMaxCueBytes      = "SPINE_MAX_CUE_BYTES"
	EnvJournal          = "SPINE_JOURNAL"
	EnvJournalPath      = "SPINE_JOURNAL_PATH"
	EnvOutputSuffix     = "SPINE_OUTPUT_SUFFIX"
	EnvServerAddr       = "SPINE_SERVER_ADDR"
)

// ReadEnvFile reads KEY=value pairs from a dotenv file without touching the
// process environment.
func ReadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("%w: env file %s: %v", ErrInvalid, filepath.Base(path), err)
	}
	return env, nil
}

// withFallback consults env for names lookup does not know.
func withFallback(lookup func(string) (string, bool), env map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		if v, ok := lookup(name); ok {
			return v, true
		}
		v, ok := env[name]
		return v, ok
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	size := func(name string, dst *Size) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}
		if err := dst.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
		}
		return nil
	}

	str(EnvLogLevel, &cfg.Log.Level)
	str(EnvLogFormat, &cfg.Log.Format)
	str(EnvJournalPath, &cfg.Journal.Path)
	str(EnvOutputSuffix, &cfg.Output.Suffix)
	str(EnvServerAddr, &cfg.Server.Addr)
	if err := size(EnvMaxDocumentBytes, &cfg.Limits.MaxDocumentBytes); err != nil {
		return err
	}
	if err := size(EnvMaxCueBytes, &cfg.Limits.MaxCueBytes); err != nil {
		return err
	}
	if v, ok := lookup(EnvJournal); ok && v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, EnvJournal, err)
		}
		cfg.Journal.Enabled = on
	}
	return nil
}

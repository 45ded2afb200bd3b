package domain

import (
	"fmt"
	"math"

	yerrors "github.com/bioforensics/yeat/pkg/errors"
)

// Setting keys shared by global_settings and per-sample overrides
const (
	KeyCoverageDepth = "coverage_depth"
	KeyDownsample    = "downsample"
	KeyGenomeSize    = "genome_size"
	KeyMinLength     = "min_length"
	KeyQuality       = "quality"
	KeySkipFilter    = "skip_filter"
)

// GlobalSettings holds QC and downsampling parameters.
// Values are copied, never shared: a sample override produces a new value.
type GlobalSettings struct {
	CoverageDepth int  `yaml:"coverage_depth" json:"coverage_depth" toml:"coverage_depth"`
	Downsample    int  `yaml:"downsample" json:"downsample" toml:"downsample"`
	GenomeSize    int  `yaml:"genome_size" json:"genome_size" toml:"genome_size"`
	MinLength     int  `yaml:"min_length" json:"min_length" toml:"min_length"`
	Quality       int  `yaml:"quality" json:"quality" toml:"quality"`
	SkipFilter    bool `yaml:"skip_filter" json:"skip_filter" toml:"skip_filter"`
}

// DefaultGlobalSettings returns the settings used when a document omits them.
// Downsample -1 disables downsampling; genome size 0 means estimate it.
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		CoverageDepth: 150,
		Downsample:    -1,
		GenomeSize:    0,
		MinLength:     100,
		Quality:       10,
		SkipFilter:    false,
	}
}

// SettingKeys returns the recognized setting keys in document order
func SettingKeys() []string {
	return []string{KeyCoverageDepth, KeyDownsample, KeyGenomeSize, KeyMinLength, KeyQuality, KeySkipFilter}
}

func IsSettingKey(key string) bool {
	for _, k := range SettingKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// Override returns a copy of s with every setting key present in raw applied.
// Unknown keys and values of the wrong type are rejected.
func (s GlobalSettings) Override(raw map[string]any) (GlobalSettings, error) {
	out := s
	for key, value := range raw {
		if !IsSettingKey(key) {
			return s, yerrors.NewUnexpectedKeyError("global_settings", key)
		}
		if key == KeySkipFilter {
			b, ok := value.(bool)
			if !ok {
				return s, invalidSetting(key, value, "a boolean")
			}
			out.SkipFilter = b
			continue
		}

		n, ok := ToInt(value)
		if !ok {
			return s, invalidSetting(key, value, "an integer")
		}
		switch key {
		case KeyCoverageDepth:
			out.CoverageDepth = n
		case KeyDownsample:
			out.Downsample = n
		case KeyGenomeSize:
			out.GenomeSize = n
		case KeyMinLength:
			out.MinLength = n
		case KeyQuality:
			out.Quality = n
		}
	}
	return out, nil
}

// Validate checks the numeric ranges of every setting
func (s GlobalSettings) Validate() error {
	switch {
	case s.Downsample < -1:
		return rangeError(KeyDownsample, s.Downsample, "must be -1 (disabled), 0 (auto) or positive")
	case s.GenomeSize < 0:
		return rangeError(KeyGenomeSize, s.GenomeSize, "must be 0 (estimate) or positive")
	case s.CoverageDepth < 1:
		return rangeError(KeyCoverageDepth, s.CoverageDepth, "must be positive")
	case s.MinLength < 0:
		return rangeError(KeyMinLength, s.MinLength, "must not be negative")
	case s.Quality < 0:
		return rangeError(KeyQuality, s.Quality, "must not be negative")
	}
	return nil
}

// DownsampleEnabled reports whether reads are subsampled before assembly
func (s GlobalSettings) DownsampleEnabled() bool {
	return s.Downsample != -1
}

func invalidSetting(key string, value any, want string) error {
	return yerrors.WrapConfigurationError("global_settings", key,
		fmt.Errorf("%w: %v (%T) is not %s", yerrors.ErrInvalidValue, value, value, want))
}

func rangeError(key string, value int, why string) error {
	return yerrors.WrapConfigurationError("global_settings", key,
		fmt.Errorf("%w: %d %s", yerrors.ErrInvalidValue, value, why))
}

// ToInt accepts the integer shapes produced by the YAML, JSON and TOML decoders.
// Floats are accepted only when they hold a whole number. Values that do not
// fit in an int are rejected.
func ToInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		if v >= math.MinInt && v <= math.MaxInt {
			return int(v), true
		}
	case int32:
		return int(v), true
	case uint64:
		if v <= math.MaxInt {
			return int(v), true
		}
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt && v < math.MaxInt {
			return int(v), true
		}
	}
	return 0, false
}

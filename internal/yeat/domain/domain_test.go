package domain

import (
	"math"
	"testing"

	yerrors "github.com/bioforensics/yeat/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReadType(t *testing.T) {
	for _, rt := range AllReadTypes() {
		parsed, ok := ParseReadType(string(rt))
		assert.True(t, ok, rt)
		assert.Equal(t, rt, parsed)
	}

	_, ok := ParseReadType("nanopore")
	assert.False(t, ok)
	_, ok = ParseReadType("")
	assert.False(t, ok)
}

func TestReadTypeClassification(t *testing.T) {
	tests := []struct {
		rt       ReadType
		category Category
		ont      bool
		pacbio   bool
	}{
		{ReadTypeIllumina, Short, false, false},
		{ReadTypePacbioHifi, Long, false, true},
		{ReadTypeOntSimplex, Long, true, false},
		{ReadTypeOntDuplex, Long, true, false},
		{ReadTypeOntUltralong, Long, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.rt), func(t *testing.T) {
			assert.Equal(t, tt.category, tt.rt.Category())
			assert.Equal(t, tt.category == Long, tt.rt.IsLong())
			assert.Equal(t, tt.ont, tt.rt.IsOxfordNanopore())
			assert.Equal(t, tt.pacbio, tt.rt.IsPacbio())
		})
	}
}

func TestBestLongType(t *testing.T) {
	tests := []struct {
		name    string
		present []ReadType
		want    ReadType
		ok      bool
	}{
		{"none", nil, "", false},
		{"short only", []ReadType{ReadTypeIllumina}, "", false},
		{"hifi wins", []ReadType{ReadTypeOntUltralong, ReadTypePacbioHifi, ReadTypeOntDuplex}, ReadTypePacbioHifi, true},
		{"duplex over simplex", []ReadType{ReadTypeOntSimplex, ReadTypeOntDuplex}, ReadTypeOntDuplex, true},
		{"simplex over ultralong", []ReadType{ReadTypeOntUltralong, ReadTypeOntSimplex}, ReadTypeOntSimplex, true},
		{"ultralong alone", []ReadType{ReadTypeIllumina, ReadTypeOntUltralong}, ReadTypeOntUltralong, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BestLongType(tt.present)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultGlobalSettings(t *testing.T) {
	s := DefaultGlobalSettings()
	assert.Equal(t, GlobalSettings{
		CoverageDepth: 150,
		Downsample:    -1,
		GenomeSize:    0,
		MinLength:     100,
		Quality:       10,
		SkipFilter:    false,
	}, s)
	assert.NoError(t, s.Validate())
	assert.False(t, s.DownsampleEnabled())
}

func TestOverride(t *testing.T) {
	base := DefaultGlobalSettings()

	got, err := base.Override(map[string]any{
		"coverage_depth": 75,
		"downsample":     float64(0),
		"skip_filter":    true,
		"genome_size":    int64(5000000),
	})
	require.NoError(t, err)

	assert.Equal(t, 75, got.CoverageDepth)
	assert.Equal(t, 0, got.Downsample)
	assert.Equal(t, 5000000, got.GenomeSize)
	assert.True(t, got.SkipFilter)
	assert.Equal(t, 100, got.MinLength)

	// the receiver is never modified
	assert.Equal(t, DefaultGlobalSettings(), base)
}

func TestOverrideErrors(t *testing.T) {
	base := DefaultGlobalSettings()

	tests := []struct {
		name string
		raw  map[string]any
		want error
	}{
		{"unknown key", map[string]any{"depth": 10}, yerrors.ErrUnexpectedKey},
		{"string for int", map[string]any{"quality": "high"}, yerrors.ErrInvalidValue},
		{"fractional", map[string]any{"min_length": 1.5}, yerrors.ErrInvalidValue},
		{"int for bool", map[string]any{"skip_filter": 1}, yerrors.ErrInvalidValue},
		{"uint64 overflow", map[string]any{"genome_size": uint64(math.MaxUint64)}, yerrors.ErrInvalidValue},
		{"float overflow", map[string]any{"genome_size": 1e30}, yerrors.ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := base.Override(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, yerrors.IsConfigurationError(err))
		})
	}
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GlobalSettings)
		ok     bool
	}{
		{"auto downsample", func(s *GlobalSettings) { s.Downsample = 0 }, true},
		{"downsample below -1", func(s *GlobalSettings) { s.Downsample = -2 }, false},
		{"negative genome size", func(s *GlobalSettings) { s.GenomeSize = -1 }, false},
		{"zero coverage", func(s *GlobalSettings) { s.CoverageDepth = 0 }, false},
		{"negative min length", func(s *GlobalSettings) { s.MinLength = -5 }, false},
		{"negative quality", func(s *GlobalSettings) { s.Quality = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultGlobalSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, yerrors.ErrInvalidValue)
			}
		})
	}
}

func TestIsSettingKey(t *testing.T) {
	for _, key := range SettingKeys() {
		assert.True(t, IsSettingKey(key))
	}
	assert.False(t, IsSettingKey("illumina"))
}

func TestToInt(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
		ok    bool
	}{
		{"int", 7, 7, true},
		{"int64", int64(-3), -3, true},
		{"int32", int32(12), 12, true},
		{"uint64", uint64(5000000), 5000000, true},
		{"whole float", 150.0, 150, true},
		{"fractional float", 1.5, 0, false},
		{"uint64 above max int", uint64(math.MaxInt) + 1, 0, false},
		{"float above max int", 1e19, 0, false},
		{"float below min int", -1e19, 0, false},
		{"infinity", math.Inf(1), 0, false},
		{"nan", math.NaN(), 0, false},
		{"string", "7", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

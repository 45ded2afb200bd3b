// Package sample parses and validates the read sources of one biological sample.
package sample

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"unicode"

	"github.com/bioforensics/yeat/internal/yeat/domain"
	"github.com/bioforensics/yeat/internal/yeat/readpath"
	yerrors "github.com/bioforensics/yeat/pkg/errors"
	"github.com/bioforensics/yeat/pkg/logger"
)

// AnalysisDir is the root of every per-sample workflow output
const AnalysisDir = "analysis"

// MaxReadTypes is the most read type entries one sample may carry
const MaxReadTypes = 2

// Sample is one named collection of read files plus its merged settings.
// A Sample is immutable once Parse returns it.
type Sample struct {
	label    string
	reads    map[domain.ReadType][]string
	settings domain.GlobalSettings
}

// Parse validates raw sample data and resolves its read paths.
// Keys are partitioned into read types and setting overrides; anything else fails.
// Settings missing from raw are inherited from global.
func Parse(label string, raw map[string]any, global domain.GlobalSettings, resolver *readpath.Resolver) (*Sample, error) {
	log := logger.WithField("component", "sample").WithField("sample", label)

	if err := ValidateLabel(label); err != nil {
		return nil, &yerrors.SampleConfigError{Label: label, Err: err}
	}

	readValues := make(map[domain.ReadType]any)
	overrides := make(map[string]any)
	for _, key := range sortedKeys(raw) {
		if rt, ok := domain.ParseReadType(key); ok {
			readValues[rt] = raw[key]
			continue
		}
		if domain.IsSettingKey(key) {
			overrides[key] = raw[key]
			continue
		}
		return nil, &yerrors.SampleConfigError{Label: label, Key: key, Err: yerrors.ErrUnexpectedKey}
	}
	if len(readValues) > MaxReadTypes {
		return nil, yerrors.WrapSampleError(label, "",
			fmt.Errorf("%w: %d read type entries, at most %d allowed", yerrors.ErrReadTypeCount, len(readValues), MaxReadTypes))
	}

	reads := make(map[domain.ReadType][]string, len(readValues))
	owner := make(map[string]domain.ReadType)
	for _, rt := range domain.AllReadTypes() {
		value, ok := readValues[rt]
		if !ok {
			continue
		}
		paths, err := resolver.Resolve(label, string(rt), value)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			if prev, dup := owner[p]; dup {
				log.Debug("read file listed under two read types", "path", p, "first", prev, "second", rt)
				return nil, yerrors.NewDuplicateReadError(label, string(rt), p)
			}
			owner[p] = rt
		}
		reads[rt] = paths
	}

	if len(reads) == 0 {
		return nil, yerrors.WrapSampleError(label, "", yerrors.ErrNoReadTypes)
	}

	settings, err := global.Override(overrides)
	if err != nil {
		return nil, asSampleError(label, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, asSampleError(label, err)
	}

	s := &Sample{label: label, reads: reads, settings: settings}
	log.Debug("parsed sample", "read_types", s.readTypeNames(), "coverage_depth", settings.CoverageDepth, "downsample", settings.Downsample)
	return s, nil
}

// ValidateLabel rejects labels that cannot be used as a single path component
func ValidateLabel(label string) error {
	if label == "" || label == "." || label == ".." {
		return fmt.Errorf("%w: %q", yerrors.ErrInvalidLabel, label)
	}
	for _, r := range label {
		if r == '/' || r == '\\' || unicode.IsSpace(r) {
			return fmt.Errorf("%w: %q must not contain path separators or whitespace", yerrors.ErrInvalidLabel, label)
		}
	}
	return nil
}

// asSampleError re-labels a settings error with the sample it came from
func asSampleError(label string, err error) error {
	var ce *yerrors.ConfigurationError
	if errors.As(err, &ce) {
		return &yerrors.SampleConfigError{Label: label, Key: ce.Key, Err: ce.Err}
	}
	return yerrors.WrapSampleError(label, "", err)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Sample) Label() string {
	return s.label
}

// ReadTypes returns the read types present, short first then by long-read priority
func (s *Sample) ReadTypes() []domain.ReadType {
	var present []domain.ReadType
	for _, rt := range domain.AllReadTypes() {
		if _, ok := s.reads[rt]; ok {
			present = append(present, rt)
		}
	}
	return present
}

func (s *Sample) readTypeNames() []string {
	var names []string
	for _, rt := range s.ReadTypes() {
		names = append(names, string(rt))
	}
	return names
}

// Reads returns a copy of the resolved paths for rt, or nil
func (s *Sample) Reads(rt domain.ReadType) []string {
	paths, ok := s.reads[rt]
	if !ok {
		return nil
	}
	return append([]string(nil), paths...)
}

// AllReads returns a copy of every resolved read list keyed by read type
func (s *Sample) AllReads() map[domain.ReadType][]string {
	out := make(map[domain.ReadType][]string, len(s.reads))
	for rt, paths := range s.reads {
		out[rt] = append([]string(nil), paths...)
	}
	return out
}

func (s *Sample) HasReadType(rt domain.ReadType) bool {
	_, ok := s.reads[rt]
	return ok
}

func (s *Sample) HasIllumina() bool {
	return s.HasReadType(domain.ReadTypeIllumina)
}

// IsPaired reports whether the illumina entry holds a read pair
func (s *Sample) IsPaired() bool {
	return len(s.reads[domain.ReadTypeIllumina]) == 2
}

func (s *Sample) HasOxfordNanopore() bool {
	for rt := range s.reads {
		if rt.IsOxfordNanopore() {
			return true
		}
	}
	return false
}

func (s *Sample) HasPacbio() bool {
	for rt := range s.reads {
		if rt.IsPacbio() {
			return true
		}
	}
	return false
}

func (s *Sample) HasLongReads() bool {
	return s.HasOxfordNanopore() || s.HasPacbio()
}

// BestLongReadType returns the highest priority long read type of the sample
func (s *Sample) BestLongReadType() (domain.ReadType, bool) {
	return domain.BestLongType(s.ReadTypes())
}

// Settings returns the merged settings by value
func (s *Sample) Settings() domain.GlobalSettings {
	return s.settings
}

func (s *Sample) CoverageDepth() int { return s.settings.CoverageDepth }
func (s *Sample) Downsample() int    { return s.settings.Downsample }
func (s *Sample) GenomeSize() int    { return s.settings.GenomeSize }
func (s *Sample) MinLength() int     { return s.settings.MinLength }
func (s *Sample) Quality() int       { return s.settings.Quality }
func (s *Sample) SkipFilter() bool   { return s.settings.SkipFilter }

// QCDir is the directory holding QC and downsampling outputs for rt
func (s *Sample) QCDir(rt domain.ReadType) string {
	return path.Join(AnalysisDir, s.label, "qc", string(rt))
}

// DownsampledReads returns the workflow paths of the reads handed to assemblers.
// Paired illumina reads become R1/R2; everything else is a single read file.
func (s *Sample) DownsampledReads(rt domain.ReadType) []string {
	dir := path.Join(s.QCDir(rt), "downsample")
	if rt == domain.ReadTypeIllumina && s.IsPaired() {
		return []string{path.Join(dir, "R1.fastq.gz"), path.Join(dir, "R2.fastq.gz")}
	}
	return []string{path.Join(dir, "read.fastq.gz")}
}

// QCReport is the fastp JSON report read by the downsampling step
func (s *Sample) QCReport(rt domain.ReadType) string {
	return path.Join(s.QCDir(rt), "fastp.json")
}

// MashReport is the genome size estimate consulted when genome_size is 0
func (s *Sample) MashReport(rt domain.ReadType) string {
	return path.Join(s.QCDir(rt), "mash", "report.tsv")
}

// QCTargets lists the per-read-type quality reports the workflow must build.
// Nanopore reads get NanoPlot plots before and after filtering; others get FastQC.
func (s *Sample) QCTargets() []string {
	var targets []string
	for _, rt := range s.ReadTypes() {
		dir := s.QCDir(rt)
		switch {
		case rt.IsOxfordNanopore():
			for _, stage := range []string{"raw", "filtered"} {
				targets = append(targets, path.Join(dir, "nanoplot", stage+"_LengthvsQualityScatterPlot_dot.pdf"))
			}
		case rt == domain.ReadTypeIllumina && s.IsPaired():
			targets = append(targets,
				path.Join(dir, "fastqc", "R1_fastqc.html"),
				path.Join(dir, "fastqc", "R2_fastqc.html"))
		default:
			targets = append(targets, path.Join(dir, "fastqc", "read_fastqc.html"))
		}
	}
	return targets
}

func (s *Sample) String() string {
	return fmt.Sprintf("%s[%s]", s.label, strings.Join(s.readTypeNames(), ","))
}

// Package assembly parses a complete configuration document into its
// samples and assemblers and exposes the resolved view the workflow consumes.
package assembly

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/bioforensics/yeat/internal/yeat/assembler"
	"github.com/bioforensics/yeat/internal/yeat/domain"
	"github.com/bioforensics/yeat/internal/yeat/readpath"
	"github.com/bioforensics/yeat/internal/yeat/sample"
	yerrors "github.com/bioforensics/yeat/pkg/errors"
	"github.com/bioforensics/yeat/pkg/logger"

	"github.com/spf13/afero"
)

// Top-level document sections
const (
	SectionSamples        = "samples"
	SectionAssemblers     = "assemblers"
	SectionAssemblies     = "assemblies" // legacy name of assemblers
	SectionGlobalSettings = "global_settings"
)

// Options carries the context needed to resolve a document
type Options struct {
	Resolver *readpath.Resolver
	Threads  int
	Platform string // defaults to runtime.GOOS
	Logger   *logger.Logger
}

// Configuration is a fully parsed, read-only assembly configuration
type Configuration struct {
	global     domain.GlobalSettings
	samples    map[string]*sample.Sample
	assemblers map[string]*assembler.Assembler
}

// Load reads, decodes and parses the document at path.
// Without a resolver in opts, relative read paths resolve against the document's directory.
func Load(fs afero.Fs, path string, opts Options) (*Configuration, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration %s: %w", path, err)
	}

	doc, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, yerrors.WrapConfigurationError("", "", fmt.Errorf("%w: %s: %v", yerrors.ErrInvalidValue, path, err))
	}

	if opts.Resolver == nil {
		opts.Resolver = readpath.NewResolver(fs, filepath.Dir(path))
	}
	return Parse(doc, opts)
}

// Parse builds a Configuration from a decoded document.
// The first invalid section, sample or assembler aborts the whole parse.
func Parse(doc map[string]any, opts Options) (*Configuration, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("assembly: Options.Resolver is required")
	}
	if opts.Platform == "" {
		opts.Platform = runtime.GOOS
	}
	log := opts.Logger
	if log == nil {
		log = logger.Global()
	}
	log = log.WithField("component", "assembly")

	assemblerKey, err := checkSections(doc)
	if err != nil {
		return nil, err
	}

	global := domain.DefaultGlobalSettings()
	if raw, ok := doc[SectionGlobalSettings]; ok && raw != nil {
		settings, err := asMap(SectionGlobalSettings, "", raw)
		if err != nil {
			return nil, err
		}
		if global, err = global.Override(settings); err != nil {
			return nil, err
		}
		if err := global.Validate(); err != nil {
			return nil, err
		}
	}
	log.Debug("global settings resolved", "coverage_depth", global.CoverageDepth, "downsample", global.Downsample,
		"genome_size", global.GenomeSize, "min_length", global.MinLength, "quality", global.Quality, "skip_filter", global.SkipFilter)

	rawSamples, err := asMap(SectionSamples, "", doc[SectionSamples])
	if err != nil {
		return nil, err
	}
	samples := make(map[string]*sample.Sample, len(rawSamples))
	for _, label := range sortedKeys(rawSamples) {
		data, err := asMap(SectionSamples, label, rawSamples[label])
		if err != nil {
			return nil, err
		}
		s, err := sample.Parse(label, data, global, opts.Resolver)
		if err != nil {
			return nil, err
		}
		samples[label] = s
	}
	if len(samples) == 0 {
		return nil, yerrors.WrapConfigurationError(SectionSamples, "", yerrors.ErrNoSamples)
	}

	req := assembler.Requirements{Threads: opts.Threads, Platform: opts.Platform}
	rawAssemblers, err := asMap(assemblerKey, "", doc[assemblerKey])
	if err != nil {
		return nil, err
	}
	assemblers := make(map[string]*assembler.Assembler, len(rawAssemblers))
	for _, label := range sortedKeys(rawAssemblers) {
		data, err := asMap(assemblerKey, label, rawAssemblers[label])
		if err != nil {
			return nil, err
		}
		a, err := assembler.Parse(label, data, samples, req)
		if err != nil {
			return nil, err
		}
		assemblers[label] = a
	}

	if len(assemblers) == 0 {
		return nil, yerrors.WrapConfigurationError(assemblerKey, "", yerrors.ErrNoAssemblers)
	}

	log.Info("configuration parsed", "samples", len(samples), "assemblers", len(assemblers))
	return &Configuration{global: global, samples: samples, assemblers: assemblers}, nil
}

// checkSections validates the top-level keys and returns the assembler section name in use
func checkSections(doc map[string]any) (string, error) {
	for _, key := range sortedKeys(doc) {
		switch key {
		case SectionSamples, SectionAssemblers, SectionAssemblies, SectionGlobalSettings:
		default:
			return "", yerrors.NewUnexpectedKeyError("", key)
		}
	}

	if _, ok := doc[SectionSamples]; !ok {
		return "", yerrors.WrapConfigurationError(SectionSamples, "", yerrors.ErrMissingSection)
	}

	_, hasAssemblers := doc[SectionAssemblers]
	_, hasAssemblies := doc[SectionAssemblies]
	switch {
	case hasAssemblers && hasAssemblies:
		return "", yerrors.WrapConfigurationError(SectionAssemblies, "",
			fmt.Errorf("%w: use %s or %s, not both", yerrors.ErrInvalidValue, SectionAssemblers, SectionAssemblies))
	case hasAssemblies:
		return SectionAssemblies, nil
	case hasAssemblers:
		return SectionAssemblers, nil
	}
	return "", yerrors.WrapConfigurationError(SectionAssemblers, "", yerrors.ErrMissingSection)
}

func asMap(section, key string, value any) (map[string]any, error) {
	if value == nil {
		return map[string]any{}, nil
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil, yerrors.WrapConfigurationError(section, key,
			fmt.Errorf("%w: expected a mapping, got %T", yerrors.ErrInvalidValue, value))
	}
	return m, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GlobalSettings returns the document-level settings every sample inherited from
func (c *Configuration) GlobalSettings() domain.GlobalSettings {
	return c.global
}

// Samples returns every sample ordered by label
func (c *Configuration) Samples() []*sample.Sample {
	out := make([]*sample.Sample, 0, len(c.samples))
	for _, label := range sortedKeys(c.samples) {
		out = append(out, c.samples[label])
	}
	return out
}

func (c *Configuration) Sample(label string) (*sample.Sample, bool) {
	s, ok := c.samples[label]
	return s, ok
}

func (c *Configuration) SampleLabels() []string {
	return sortedKeys(c.samples)
}

// Assemblers returns every assembler ordered by label
func (c *Configuration) Assemblers() []*assembler.Assembler {
	out := make([]*assembler.Assembler, 0, len(c.assemblers))
	for _, label := range sortedKeys(c.assemblers) {
		out = append(out, c.assemblers[label])
	}
	return out
}

func (c *Configuration) Assembler(label string) (*assembler.Assembler, bool) {
	a, ok := c.assemblers[label]
	return a, ok
}

func (c *Configuration) AssemblerLabels() []string {
	return sortedKeys(c.assemblers)
}

// Targets is the workflow's goal set: sample QC reports then assembler outputs,
// each group in label order, without duplicates.
func (c *Configuration) Targets() []string {
	seen := make(map[string]bool)
	var targets []string
	add := func(paths []string) {
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				targets = append(targets, p)
			}
		}
	}

	for _, s := range c.Samples() {
		add(s.QCTargets())
	}
	for _, a := range c.Assemblers() {
		add(a.TargetOutputPaths())
	}
	return targets
}

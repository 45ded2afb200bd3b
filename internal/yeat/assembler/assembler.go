// Package assembler binds one configured assembly algorithm to the samples it runs on.
package assembler

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bioforensics/yeat/internal/yeat/sample"
	yerrors "github.com/bioforensics/yeat/pkg/errors"
	"github.com/bioforensics/yeat/pkg/logger"
)

// Recognized assembler keys
const (
	KeyAlgorithm = "algorithm"
	KeyArguments = "arguments"
	KeyExtraArgs = "extra_args" // legacy spelling of arguments
	KeySamples   = "samples"
	KeyMode      = "mode"
)

// Assembler is one named run of an algorithm against a set of compatible samples
type Assembler struct {
	label     string
	algorithm Algorithm
	arguments string
	mode      Mode
	samples   map[string]*sample.Sample
	sources   map[string]ReadSource
}

// Parse validates raw assembler data against the samples already parsed.
// Samples that fail the algorithm's compatibility check are dropped quietly;
// only an empty result is an error.
func Parse(label string, raw map[string]any, available map[string]*sample.Sample, req Requirements) (*Assembler, error) {
	log := logger.WithField("component", "assembler").WithField("assembler", label)

	if err := sample.ValidateLabel(label); err != nil {
		return nil, yerrors.WrapAssemblerError(label, "", err)
	}

	for key := range raw {
		switch key {
		case KeyAlgorithm, KeyArguments, KeyExtraArgs, KeySamples, KeyMode:
		default:
			return nil, yerrors.WrapAssemblerError(label, "", fmt.Errorf("%w: %s", yerrors.ErrUnexpectedKey, key))
		}
	}

	algo, err := parseAlgorithm(raw[KeyAlgorithm])
	if err != nil {
		return nil, yerrors.WrapAssemblerError(label, "", err)
	}
	name := algo.Name()

	arguments, err := parseArguments(raw)
	if err != nil {
		return nil, yerrors.WrapAssemblerError(label, name, err)
	}

	mode, err := ParseMode(raw[KeyMode])
	if err != nil {
		return nil, yerrors.WrapAssemblerError(label, name, err)
	}

	if err := algo.Check(arguments, req); err != nil {
		return nil, yerrors.WrapAssemblerError(label, name, err)
	}

	candidates, err := selectCandidates(label, name, raw[KeySamples], available)
	if err != nil {
		return nil, err
	}

	a := &Assembler{
		label:     label,
		algorithm: algo,
		arguments: arguments,
		mode:      mode,
		samples:   make(map[string]*sample.Sample),
		sources:   make(map[string]ReadSource),
	}
	for _, s := range candidates {
		src := newSource(s, mode)
		if !algo.Compatible(src) || !mode.admits(src) {
			log.Debug("sample not compatible with algorithm", "sample", s.Label(), "algorithm", name, "mode", string(mode))
			continue
		}
		a.samples[s.Label()] = s
		a.sources[s.Label()] = src
	}

	if len(a.samples) == 0 {
		return nil, yerrors.WrapAssemblerError(label, name, yerrors.ErrNoCompatibleSamples)
	}

	log.Debug("parsed assembler", "algorithm", name, "samples", a.Samples())
	return a, nil
}

func parseAlgorithm(value any) (Algorithm, error) {
	if value == nil {
		return nil, yerrors.ErrMissingAlgorithm
	}
	name, ok := value.(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: algorithm must be a non-empty string", yerrors.ErrMissingAlgorithm)
	}
	algo, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", yerrors.ErrUnknownAlgorithm, name, strings.Join(Algorithms(), ", "))
	}
	return algo, nil
}

func parseArguments(raw map[string]any) (string, error) {
	value, hasArgs := raw[KeyArguments]
	legacy, hasLegacy := raw[KeyExtraArgs]
	if hasArgs && hasLegacy {
		return "", fmt.Errorf("%w: set %s or %s, not both", yerrors.ErrInvalidValue, KeyArguments, KeyExtraArgs)
	}
	if hasLegacy {
		value = legacy
	}
	if value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: arguments must be a string, got %T", yerrors.ErrInvalidValue, value)
	}
	return strings.TrimSpace(s), nil
}

// selectCandidates returns the explicitly listed samples, or all of them
func selectCandidates(label, algorithm string, value any, available map[string]*sample.Sample) ([]*sample.Sample, error) {
	if value == nil {
		labels := make([]string, 0, len(available))
		for l := range available {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		out := make([]*sample.Sample, 0, len(labels))
		for _, l := range labels {
			out = append(out, available[l])
		}
		return out, nil
	}

	var names []string
	switch v := value.(type) {
	case []string:
		names = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, yerrors.WrapAssemblerError(label, algorithm,
					fmt.Errorf("%w: sample names must be strings, got %T", yerrors.ErrInvalidValue, item))
			}
			names = append(names, s)
		}
	default:
		return nil, yerrors.WrapAssemblerError(label, algorithm,
			fmt.Errorf("%w: samples must be a list of sample labels, got %T", yerrors.ErrInvalidValue, value))
	}

	out := make([]*sample.Sample, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		s, ok := available[name]
		if !ok {
			return nil, yerrors.NewSampleNotFoundError(label, algorithm, name)
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, s)
		}
	}
	return out, nil
}

func (a *Assembler) Label() string {
	return a.label
}

// Algorithm returns the algorithm name
func (a *Assembler) Algorithm() string {
	return a.algorithm.Name()
}

// Arguments returns the free-text arguments passed through to the tool
func (a *Assembler) Arguments() string {
	return a.arguments
}

func (a *Assembler) Mode() Mode {
	return a.mode
}

// ProducesGraph reports whether the algorithm emits an assembly graph for rendering
func (a *Assembler) ProducesGraph() bool {
	return a.algorithm.ProducesGraph()
}

// Samples returns the sorted labels of the bound samples
func (a *Assembler) Samples() []string {
	labels := make([]string, 0, len(a.samples))
	for l := range a.samples {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

func (a *Assembler) Sample(label string) (*sample.Sample, bool) {
	s, ok := a.samples[label]
	return s, ok
}

func (a *Assembler) source(label string) (ReadSource, error) {
	src, ok := a.sources[label]
	if !ok {
		return nil, yerrors.NewSampleNotFoundError(a.label, a.Algorithm(), label)
	}
	return src, nil
}

// InputFiles returns the workflow paths of the reads the algorithm consumes for a sample
func (a *Assembler) InputFiles(sampleLabel string) ([]string, error) {
	src, err := a.source(sampleLabel)
	if err != nil {
		return nil, err
	}
	return a.algorithm.InputFiles(src), nil
}

// InputArgumentList returns the read arguments as separate words
func (a *Assembler) InputArgumentList(sampleLabel string) ([]string, error) {
	src, err := a.source(sampleLabel)
	if err != nil {
		return nil, err
	}
	return a.algorithm.InputArgs(src), nil
}

// InputArguments returns the read arguments joined for a shell command line
func (a *Assembler) InputArguments(sampleLabel string) (string, error) {
	args, err := a.InputArgumentList(sampleLabel)
	if err != nil {
		return "", err
	}
	return strings.Join(args, " "), nil
}

// OutputDir is where the algorithm writes its results for a sample
func (a *Assembler) OutputDir(sampleLabel string) string {
	return path.Join(sample.AnalysisDir, sampleLabel, "yeat", a.Algorithm(), a.label)
}

// TargetOutputPaths lists the files the workflow must produce for this assembler,
// sample by sample in label order.
func (a *Assembler) TargetOutputPaths() []string {
	var targets []string
	for _, l := range a.Samples() {
		dir := a.OutputDir(l)
		targets = append(targets, path.Join(dir, "quast", "report.html"))
		if a.ProducesGraph() {
			targets = append(targets, path.Join(dir, "bandage", ".done"))
		}
	}
	return targets
}

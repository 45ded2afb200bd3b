package assembler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bioforensics/yeat/internal/yeat/domain"
	yerrors "github.com/bioforensics/yeat/pkg/errors"
)

// ReadSource is the view of a sample an algorithm builds its command line from.
// *sample.Sample satisfies it; a mode-restricted view hides some read types.
type ReadSource interface {
	HasIllumina() bool
	IsPaired() bool
	HasPacbio() bool
	HasOxfordNanopore() bool
	HasLongReads() bool
	HasReadType(rt domain.ReadType) bool
	BestLongReadType() (domain.ReadType, bool)
	DownsampledReads(rt domain.ReadType) []string
}

// Requirements describes the execution context some algorithms insist on
type Requirements struct {
	Threads  int
	Platform string
}

// Algorithm is the per-tool strategy: which samples it accepts and how
// it is told where the reads are. Input construction never touches the filesystem.
type Algorithm interface {
	Name() string
	Compatible(src ReadSource) bool
	InputFiles(src ReadSource) []string
	InputArgs(src ReadSource) []string
	Check(arguments string, req Requirements) error
	ProducesGraph() bool
}

type algorithm struct {
	name       string
	compatible func(ReadSource) bool
	inputs     func(ReadSource) []string
	args       func(ReadSource, []string) []string
	check      func(string, Requirements) error
	graph      bool
}

func (a *algorithm) Name() string                       { return a.name }
func (a *algorithm) Compatible(src ReadSource) bool     { return a.compatible(src) }
func (a *algorithm) InputFiles(src ReadSource) []string { return a.inputs(src) }
func (a *algorithm) ProducesGraph() bool                { return a.graph }

func (a *algorithm) InputArgs(src ReadSource) []string {
	return a.args(src, a.inputs(src))
}

func (a *algorithm) Check(arguments string, req Requirements) error {
	if a.check == nil {
		return nil
	}
	return a.check(arguments, req)
}

// compatibility predicates
func illuminaOnly(src ReadSource) bool { return src.HasIllumina() }
func longReads(src ReadSource) bool    { return src.HasLongReads() }
func hybrid(src ReadSource) bool       { return src.HasIllumina() || src.HasLongReads() }
func hifiOnly(src ReadSource) bool     { return src.HasPacbio() }

// verkkoCompatible accepts samples whose best long read type is accurate enough for --hifi
func verkkoCompatible(src ReadSource) bool {
	rt, ok := src.BestLongReadType()
	return ok && (rt == domain.ReadTypePacbioHifi || rt == domain.ReadTypeOntDuplex)
}

// input file selectors
func illuminaInputs(src ReadSource) []string {
	return src.DownsampledReads(domain.ReadTypeIllumina)
}

func bestLongInputs(src ReadSource) []string {
	rt, ok := src.BestLongReadType()
	if !ok {
		return nil
	}
	return src.DownsampledReads(rt)
}

func hybridInputs(src ReadSource) []string {
	var files []string
	if src.HasIllumina() {
		files = append(files, illuminaInputs(src)...)
	}
	return append(files, bestLongInputs(src)...)
}

// shortArgs builds single-end or paired-end flags for illumina reads
func shortArgs(single, first, second string) func(ReadSource, []string) []string {
	return func(_ ReadSource, files []string) []string {
		if len(files) == 1 {
			if single == "" {
				return []string{files[0]}
			}
			return []string{single, files[0]}
		}
		if first == "" {
			return []string{files[0], files[1]}
		}
		return []string{first, files[0], second, files[1]}
	}
}

func velvetArgs(_ ReadSource, files []string) []string {
	if len(files) == 1 {
		return []string{"-fastq.gz", files[0]}
	}
	return []string{"-fastq.gz", "-shortPaired", files[0], "-shortPaired2", files[1]}
}

func unicyclerArgs(src ReadSource, files []string) []string {
	var args []string
	rest := files
	if src.HasIllumina() {
		if src.IsPaired() {
			args = append(args, "-1", files[0], "-2", files[1])
			rest = files[2:]
		} else {
			args = append(args, "-s", files[0])
			rest = files[1:]
		}
	}
	if len(rest) > 0 {
		args = append(args, "-l", rest[0])
	}
	return args
}

// longArgs prefixes the best long read file with the flag chosen for its read type.
// An empty flag means the file is passed positionally.
func longArgs(flags map[domain.ReadType]string) func(ReadSource, []string) []string {
	return func(src ReadSource, files []string) []string {
		rt, ok := src.BestLongReadType()
		if !ok || len(files) == 0 {
			return nil
		}
		if flag := flags[rt]; flag != "" {
			return []string{flag, files[0]}
		}
		return []string{files[0]}
	}
}

func canuArgs(src ReadSource, files []string) []string {
	rt, ok := src.BestLongReadType()
	if !ok || len(files) == 0 {
		return nil
	}
	if rt.IsOxfordNanopore() {
		return []string{"-nanopore", files[0]}
	}
	return []string{"-pacbio-hifi", files[0]}
}

// MinCanuThreads is the fewest threads canu is allowed to run with
const MinCanuThreads = 4

func canuCheck(arguments string, req Requirements) error {
	if !strings.Contains(arguments, "genomeSize=") {
		return fmt.Errorf("%w: canu requires genomeSize=<size> in arguments", yerrors.ErrMissingArgument)
	}
	if req.Threads < MinCanuThreads {
		return fmt.Errorf("%w: canu requires at least %d threads, have %d", yerrors.ErrInsufficientThreads, MinCanuThreads, req.Threads)
	}
	return nil
}

func linuxOnly(name string) func(string, Requirements) error {
	return func(_ string, req Requirements) error {
		if req.Platform != "linux" {
			return fmt.Errorf("%w: %s runs on linux only, not %q", yerrors.ErrUnsupportedPlatform, name, req.Platform)
		}
		return nil
	}
}

var registry = map[string]Algorithm{
	"spades": &algorithm{
		name: "spades", compatible: illuminaOnly, inputs: illuminaInputs,
		args: shortArgs("-s", "-1", "-2"), graph: true,
	},
	"megahit": &algorithm{
		name: "megahit", compatible: illuminaOnly, inputs: illuminaInputs,
		args: shortArgs("-r", "-1", "-2"), graph: true,
	},
	"velvet": &algorithm{
		name: "velvet", compatible: illuminaOnly, inputs: illuminaInputs,
		args: velvetArgs, graph: true,
	},
	"penguin": &algorithm{
		name: "penguin", compatible: illuminaOnly, inputs: illuminaInputs,
		args: shortArgs("", "", ""), graph: false,
	},
	"unicycler": &algorithm{
		name: "unicycler", compatible: hybrid, inputs: hybridInputs,
		args: unicyclerArgs, graph: true,
	},
	"canu": &algorithm{
		name: "canu", compatible: longReads, inputs: bestLongInputs,
		args: canuArgs, check: canuCheck, graph: true,
	},
	"flye": &algorithm{
		name: "flye", compatible: longReads, inputs: bestLongInputs,
		args: longArgs(map[domain.ReadType]string{
			domain.ReadTypePacbioHifi:   "--pacbio-hifi",
			domain.ReadTypeOntDuplex:    "--nano-hq",
			domain.ReadTypeOntSimplex:   "--nano-raw",
			domain.ReadTypeOntUltralong: "--nano-raw",
		}),
		graph: true,
	},
	"hifiasm": &algorithm{
		name: "hifiasm", compatible: longReads, inputs: bestLongInputs,
		args: longArgs(map[domain.ReadType]string{
			domain.ReadTypeOntSimplex:   "--ont",
			domain.ReadTypeOntDuplex:    "--ont",
			domain.ReadTypeOntUltralong: "--ul",
		}),
		graph: true,
	},
	"hifiasm_meta": &algorithm{
		name: "hifiasm_meta", compatible: hifiOnly, inputs: bestLongInputs,
		args: longArgs(nil), graph: true,
	},
	"metamdbg": &algorithm{
		name: "metamdbg", compatible: longReads, inputs: bestLongInputs,
		args: longArgs(map[domain.ReadType]string{
			domain.ReadTypePacbioHifi:   "--in-hifi",
			domain.ReadTypeOntSimplex:   "--in-ont",
			domain.ReadTypeOntDuplex:    "--in-ont",
			domain.ReadTypeOntUltralong: "--in-ont",
		}),
		check: linuxOnly("metamdbg"), graph: true,
	},
	"verkko": &algorithm{
		name: "verkko", compatible: verkkoCompatible, inputs: bestLongInputs,
		args: longArgs(map[domain.ReadType]string{
			domain.ReadTypePacbioHifi: "--hifi",
			domain.ReadTypeOntDuplex:  "--hifi",
		}),
		graph: true,
	},
}

// Lookup returns the registered algorithm called name
func Lookup(name string) (Algorithm, bool) {
	a, ok := registry[name]
	return a, ok
}

// Algorithms returns the sorted names of every registered algorithm
func Algorithms() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

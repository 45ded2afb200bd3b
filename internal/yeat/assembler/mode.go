package assembler

import (
	"fmt"

	"github.com/bioforensics/yeat/internal/yeat/domain"
	"github.com/bioforensics/yeat/internal/yeat/sample"
	yerrors "github.com/bioforensics/yeat/pkg/errors"
)

// Mode optionally narrows the read types an assembler may use
type Mode string

const (
	ModeAll      Mode = ""
	ModeIllumina Mode = "illumina"
	ModeLong     Mode = "long"
	ModePacbio   Mode = "pacbio"
	ModeOxford   Mode = "oxford"
	ModeHybrid   Mode = "hybrid"
)

// ParseMode validates a mode value from an assembler definition
func ParseMode(value any) (Mode, error) {
	if value == nil {
		return ModeAll, nil
	}
	s, ok := value.(string)
	if !ok {
		return ModeAll, fmt.Errorf("%w: mode must be a string, got %T", yerrors.ErrInvalidValue, value)
	}
	switch m := Mode(s); m {
	case ModeAll, ModeIllumina, ModeLong, ModePacbio, ModeOxford, ModeHybrid:
		return m, nil
	}
	return ModeAll, fmt.Errorf("%w: unknown mode %q", yerrors.ErrInvalidValue, s)
}

// allows reports whether reads of type rt are visible under m.
// Hybrid keeps every type; the illumina+long requirement is applied separately.
func (m Mode) allows(rt domain.ReadType) bool {
	switch m {
	case ModeIllumina:
		return rt == domain.ReadTypeIllumina
	case ModeLong:
		return rt.IsLong()
	case ModePacbio:
		return rt == domain.ReadTypeIllumina || rt.IsPacbio()
	case ModeOxford:
		return rt == domain.ReadTypeIllumina || rt.IsOxfordNanopore()
	}
	return true
}

// modeView is a sample with the read types its mode excludes hidden
type modeView struct {
	*sample.Sample
	mode Mode
}

func newSource(s *sample.Sample, m Mode) ReadSource {
	if m == ModeAll || m == ModeHybrid {
		return s
	}
	return &modeView{Sample: s, mode: m}
}

func (v *modeView) HasReadType(rt domain.ReadType) bool {
	return v.mode.allows(rt) && v.Sample.HasReadType(rt)
}

func (v *modeView) visible() []domain.ReadType {
	var present []domain.ReadType
	for _, rt := range v.Sample.ReadTypes() {
		if v.mode.allows(rt) {
			present = append(present, rt)
		}
	}
	return present
}

func (v *modeView) HasIllumina() bool {
	return v.HasReadType(domain.ReadTypeIllumina)
}

func (v *modeView) HasPacbio() bool {
	for _, rt := range v.visible() {
		if rt.IsPacbio() {
			return true
		}
	}
	return false
}

func (v *modeView) HasOxfordNanopore() bool {
	for _, rt := range v.visible() {
		if rt.IsOxfordNanopore() {
			return true
		}
	}
	return false
}

func (v *modeView) HasLongReads() bool {
	return v.HasPacbio() || v.HasOxfordNanopore()
}

func (v *modeView) IsPaired() bool {
	return v.HasIllumina() && v.Sample.IsPaired()
}

func (v *modeView) BestLongReadType() (domain.ReadType, bool) {
	return domain.BestLongType(v.visible())
}

// admits applies the mode-level constraint on top of the algorithm's predicate
func (m Mode) admits(src ReadSource) bool {
	if m == ModeHybrid {
		return src.HasIllumina() && src.HasLongReads()
	}
	return true
}

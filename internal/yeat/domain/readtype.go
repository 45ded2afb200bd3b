package domain

// ReadType identifies a sequencing technology and its read characteristics
type ReadType string

const (
	ReadTypeIllumina     ReadType = "illumina"
	ReadTypePacbioHifi   ReadType = "pacbio_hifi"
	ReadTypeOntSimplex   ReadType = "ont_simplex"
	ReadTypeOntDuplex    ReadType = "ont_duplex"
	ReadTypeOntUltralong ReadType = "ont_ultralong"
)

// Category separates short-read from long-read technologies
type Category int

const (
	Short Category = iota
	Long
)

func (c Category) String() string {
	if c == Long {
		return "long"
	}
	return "short"
}

// ShortReadTypes lists the short-read technologies
var ShortReadTypes = []ReadType{ReadTypeIllumina}

// LongReadTypes lists the long-read technologies, highest priority first.
// The order decides which long-read type an assembler receives.
var LongReadTypes = []ReadType{
	ReadTypePacbioHifi,
	ReadTypeOntDuplex,
	ReadTypeOntSimplex,
	ReadTypeOntUltralong,
}

// AllReadTypes returns every known read type, short first
func AllReadTypes() []ReadType {
	all := make([]ReadType, 0, len(ShortReadTypes)+len(LongReadTypes))
	all = append(all, ShortReadTypes...)
	return append(all, LongReadTypes...)
}

// ParseReadType maps a configuration key onto a read type
func ParseReadType(key string) (ReadType, bool) {
	for _, rt := range AllReadTypes() {
		if string(rt) == key {
			return rt, true
		}
	}
	return "", false
}

func (rt ReadType) String() string {
	return string(rt)
}

func (rt ReadType) Category() Category {
	if rt == ReadTypeIllumina {
		return Short
	}
	return Long
}

func (rt ReadType) IsLong() bool {
	return rt.Category() == Long
}

// IsOxfordNanopore returns true for the three ONT read types
func (rt ReadType) IsOxfordNanopore() bool {
	switch rt {
	case ReadTypeOntSimplex, ReadTypeOntDuplex, ReadTypeOntUltralong:
		return true
	}
	return false
}

func (rt ReadType) IsPacbio() bool {
	return rt == ReadTypePacbioHifi
}

// priority returns the position of rt in LongReadTypes, or -1
func (rt ReadType) priority() int {
	for i, long := range LongReadTypes {
		if long == rt {
			return i
		}
	}
	return -1
}

// BestLongType picks the highest priority long-read type among present.
// Short read types are ignored.
func BestLongType(present []ReadType) (ReadType, bool) {
	best := ReadType("")
	bestRank := len(LongReadTypes)
	for _, rt := range present {
		rank := rt.priority()
		if rank >= 0 && rank < bestRank {
			best, bestRank = rt, rank
		}
	}
	return best, best != ""
}

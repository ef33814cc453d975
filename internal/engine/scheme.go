package engine

import (
	"fmt"

	"github.com/abrezinsky/picklecup/internal/models"
)

// SourceKind tags where a bracket slot takes its team from.
type SourceKind int

const (
	SourceEmpty SourceKind = iota
	SourceGroupRank
	SourceWildcard
	SourceWinnerOf
)

// SlotSource is one side of a bracket slot. Only the fields of its Kind are used.
type SlotSource struct {
	Kind  SourceKind
	Group string // SourceGroupRank
	Rank  int    // SourceGroupRank, 1-based
	Index int    // SourceWildcard, 1-based
	Note  string // SourceWinnerOf
}

func Empty() SlotSource { return SlotSource{Kind: SourceEmpty} }

func GroupRank(group string, rank int) SlotSource {
	return SlotSource{Kind: SourceGroupRank, Group: group, Rank: rank}
}

func Wildcard(index int) SlotSource {
	return SlotSource{Kind: SourceWildcard, Index: index}
}

func WinnerOf(note string) SlotSource {
	return SlotSource{Kind: SourceWinnerOf, Note: note}
}

// String renders the source the way it is written on the bracket sheet: A1, WC2, W(TK1).
func (s SlotSource) String() string {
	switch s.Kind {
	case SourceGroupRank:
		return fmt.Sprintf("%s%d", s.Group, s.Rank)
	case SourceWildcard:
		return fmt.Sprintf("WC%d", s.Index)
	case SourceWinnerOf:
		return fmt.Sprintf("W(%s)", s.Note)
	default:
		return "-"
	}
}

// SlotSpec is one knockout match of a scheme.
type SlotSpec struct {
	Note      string
	RoundName string
	A, B      SlotSource
}

// Scheme is the fixed bracket topology of a category.
type Scheme struct {
	Key       models.CategoryKey
	Variant   string
	Groups    []string
	Wildcards int
	Slots     []SlotSpec
}

// Bracket variants.
const (
	VariantDefault = ""
	// VariantWeakCD takes 2nd and 3rd place from groups C and D instead of 1st and 2nd.
	VariantWeakCD = "weak-cd"
)

func quarter(n int, a, b SlotSource) SlotSpec {
	return SlotSpec{Note: fmt.Sprintf("TK%d", n), RoundName: fmt.Sprintf("Tứ kết %d", n), A: a, B: b}
}

func semi(n int, a, b SlotSource) SlotSpec {
	return SlotSpec{Note: fmt.Sprintf("BK%d", n), RoundName: fmt.Sprintf("Bán kết %d", n), A: a, B: b}
}

func final(a, b SlotSource) SlotSpec {
	return SlotSpec{Note: models.NoteFinal, RoundName: models.RoundFinal, A: a, B: b}
}

// semisAndFinal is shared by every scheme with quarterfinals.
func semisAndFinal() []SlotSpec {
	return []SlotSpec{
		semi(1, WinnerOf(models.NoteQuarter1), WinnerOf(models.NoteQuarter2)),
		semi(2, WinnerOf(models.NoteQuarter3), WinnerOf(models.NoteQuarter4)),
		final(WinnerOf(models.NoteSemi1), WinnerOf(models.NoteSemi2)),
	}
}

// fourGroups pairs A with D and B with C so that group winners meet a runner-up
// from the opposite half of the draw.
func fourGroups(key models.CategoryKey) Scheme {
	return Scheme{
		Key:    key,
		Groups: []string{"A", "B", "C", "D"},
		Slots: append([]SlotSpec{
			quarter(1, GroupRank("A", 1), GroupRank("D", 2)),
			quarter(2, GroupRank("B", 1), GroupRank("C", 2)),
			quarter(3, GroupRank("C", 1), GroupRank("B", 2)),
			quarter(4, GroupRank("D", 1), GroupRank("A", 2)),
		}, semisAndFinal()...),
	}
}

func fourGroupsWeakCD(key models.CategoryKey) Scheme {
	return Scheme{
		Key:     key,
		Variant: VariantWeakCD,
		Groups:  []string{"A", "B", "C", "D"},
		Slots: append([]SlotSpec{
			quarter(1, GroupRank("A", 1), GroupRank("D", 3)),
			quarter(2, GroupRank("B", 1), GroupRank("C", 3)),
			quarter(3, GroupRank("C", 2), GroupRank("B", 2)),
			quarter(4, GroupRank("D", 2), GroupRank("A", 2)),
		}, semisAndFinal()...),
	}
}

// threeGroupsWildcard fills eight quarterfinal places from three winners, three
// runners-up and the two best third-placed teams.
func threeGroupsWildcard(key models.CategoryKey) Scheme {
	return Scheme{
		Key:       key,
		Groups:    []string{"A", "B", "C"},
		Wildcards: 2,
		Slots: append([]SlotSpec{
			quarter(1, GroupRank("A", 1), Wildcard(2)),
			quarter(2, GroupRank("B", 2), GroupRank("C", 2)),
			quarter(3, GroupRank("B", 1), Wildcard(1)),
			quarter(4, GroupRank("C", 1), GroupRank("A", 2)),
		}, semisAndFinal()...),
	}
}

func twoGroups(key models.CategoryKey) Scheme {
	return Scheme{
		Key:    key,
		Groups: []string{"A", "B"},
		Slots: []SlotSpec{
			semi(1, GroupRank("A", 1), GroupRank("B", 2)),
			semi(2, GroupRank("B", 1), GroupRank("A", 2)),
			final(WinnerOf(models.NoteSemi1), WinnerOf(models.NoteSemi2)),
		},
	}
}

// Variants lists the bracket variants an admin can pick for a category.
func Variants(key models.CategoryKey) []string {
	if key == models.CategoryMen {
		return []string{VariantDefault, VariantWeakCD}
	}
	return []string{VariantDefault}
}

// SchemeFor returns the scheme of a category. An unknown variant falls back to the
// default; an unknown category reports false.
func SchemeFor(key models.CategoryKey, variant string) (Scheme, bool) {
	switch key {
	case models.CategoryLeaders:
		return fourGroups(key), true
	case models.CategoryMen:
		if variant == VariantWeakCD {
			return fourGroupsWeakCD(key), true
		}
		return fourGroups(key), true
	case models.CategoryMixed:
		return threeGroupsWildcard(key), true
	case models.CategoryWomen:
		return twoGroups(key), true
	default:
		return Scheme{}, false
	}
}

// KnockoutDefaults returns the time and court a new knockout match starts with.
func KnockoutDefaults(key models.CategoryKey) (time, court string) {
	cfg := ConfigFor(key)
	if key == models.CategoryMixed {
		return "14:00 19/12", cfg.Court(1)
	}
	return "08:00 19/12", cfg.Court(1)
}

// DefaultGroupNames returns the groups a category is split into on import.
func DefaultGroupNames(key models.CategoryKey) []string {
	if s, ok := SchemeFor(key, VariantDefault); ok {
		return append([]string(nil), s.Groups...)
	}
	return nil
}

package model

import (
	"fmt"
	"sort"
)

// Category keys in canonical order
const (
	CategoryPhysics    = "physics"
	CategoryChemistry  = "chemistry"
	CategoryMedicine   = "medicine"
	CategoryLiterature = "literature"
	CategoryPeace      = "peace"
	CategoryEconomics  = "economics"
)

// Categories lists the prize categories in display order
var Categories = []string{
	CategoryPhysics,
	CategoryChemistry,
	CategoryMedicine,
	CategoryLiterature,
	CategoryPeace,
	CategoryEconomics,
}

var categoryLabels = map[string]string{
	CategoryPhysics:    "Physics",
	CategoryChemistry:  "Chemistry",
	CategoryMedicine:   "Physiology or Medicine",
	CategoryLiterature: "Literature",
	CategoryPeace:      "Peace",
	CategoryEconomics:  "Economic Sciences",
}

// CategoryLabel returns the official prize name for a category key
func CategoryLabel(key string) (string, bool) {
	label, ok := categoryLabels[key]
	return label, ok
}

// IsCategory reports whether key is a known category
func IsCategory(key string) bool {
	_, ok := categoryLabels[key]
	return ok
}

// Dataset maps a category key to its ordered laureate records
type Dataset map[string][]Laureate

// NewDataset returns a dataset with an empty list for every category
func NewDataset() Dataset {
	ds := make(Dataset, len(Categories))
	for _, c := range Categories {
		ds[c] = []Laureate{}
	}
	return ds
}

// keys returns category keys in canonical order followed by any unknown keys sorted
func (d Dataset) keys() []string {
	keys := make([]string, 0, len(d))
	for _, c := range Categories {
		if _, ok := d[c]; ok {
			keys = append(keys, c)
		}
	}
	var extra []string
	for k := range d {
		if !IsCategory(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// Each calls fn for every record in deterministic order. The pointer is
// into the dataset so fn may mutate the record in place.
func (d Dataset) Each(fn func(category string, l *Laureate)) {
	for _, c := range d.keys() {
		list := d[c]
		for i := range list {
			fn(c, &list[i])
		}
	}
}

// Count returns the total number of records
func (d Dataset) Count() int {
	n := 0
	for _, list := range d {
		n += len(list)
	}
	return n
}

// Clone returns a deep copy
func (d Dataset) Clone() Dataset {
	out := make(Dataset, len(d))
	for c, list := range d {
		cp := make([]Laureate, len(list))
		for i, l := range list {
			cp[i] = l.clone()
		}
		out[c] = cp
	}
	return out
}

// Index maps laureate ids to records. Pointers are into the dataset.
func (d Dataset) Index() map[string]*Laureate {
	idx := make(map[string]*Laureate, d.Count())
	d.Each(func(_ string, l *Laureate) {
		idx[l.ID] = l
	})
	return idx
}

// CategoryOf returns the category holding id
func (d Dataset) CategoryOf(id string) (string, bool) {
	for c, list := range d {
		for i := range list {
			if list[i].ID == id {
				return c, true
			}
		}
	}
	return "", false
}

// Normalize replaces nil slices in every record so the dataset serializes
// with [] rather than null
func (d Dataset) Normalize() {
	d.Each(func(_ string, l *Laureate) {
		l.normalize()
	})
}

// Validate checks id uniqueness and shared_with symmetry
func (d Dataset) Validate() error {
	idx := make(map[string]*Laureate, d.Count())
	var dup error
	d.Each(func(_ string, l *Laureate) {
		if _, exists := idx[l.ID]; exists && dup == nil {
			dup = fmt.Errorf("duplicate laureate_id %q", l.ID)
		}
		idx[l.ID] = l
	})
	if dup != nil {
		return dup
	}

	for id, l := range idx {
		for _, other := range l.SharedWith {
			if other == id {
				return fmt.Errorf("%s lists itself in shared_with", id)
			}
			peer, ok := idx[other]
			if !ok {
				return fmt.Errorf("%s shares with unknown id %s", id, other)
			}
			if !contains(peer.SharedWith, id) {
				return fmt.Errorf("shared_with not symmetric: %s -> %s", id, other)
			}
		}
	}
	return nil
}

// LinkSharedWith fills shared_with by grouping records of the same
// category and prize year. Existing links are replaced.
func (d Dataset) LinkSharedWith() {
	for _, list := range d {
		byYear := make(map[int][]int)
		for i := range list {
			byYear[list[i].PrizeYear] = append(byYear[list[i].PrizeYear], i)
		}
		for _, members := range byYear {
			for _, i := range members {
				shared := make([]string, 0, len(members)-1)
				for _, j := range members {
					if list[j].ID != list[i].ID {
						shared = append(shared, list[j].ID)
					}
				}
				list[i].SharedWith = shared
			}
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

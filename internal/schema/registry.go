package schema

import "strings"

var table = buildTable()

// All returns every descriptor in declaration order. The slice is shared
// and must not be modified.
func All() []Descriptor {
	return table
}

// Len returns the number of descriptors
func Len() int {
	return len(table)
}

// At returns the descriptor at index i
func At(i int) *Descriptor {
	return &table[i]
}

// Find returns the descriptor for (section, key), matching the key
// case-insensitively, or nil when the setting is unknown
func Find(section SectionID, key string) *Descriptor {
	for i := range table {
		d := &table[i]
		if d.Section == section && strings.EqualFold(d.Key, key) {
			return d
		}
	}
	return nil
}

// InSection returns the descriptors of one section in declaration order
func InSection(section SectionID) []*Descriptor {
	var out []*Descriptor
	for i := range table {
		if table[i].Section == section {
			out = append(out, &table[i])
		}
	}
	return out
}

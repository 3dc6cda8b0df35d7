// Package report renders a read-only diagnostics summary of the live
// configuration as YAML, keeping sections and keys in schema order.
package report

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/muurk/camcfg/internal/boot"
	"github.com/muurk/camcfg/internal/config"
	"github.com/muurk/camcfg/internal/schema"
)

const redacted = "********"

// Entry is one setting in the summary
type Entry struct {
	Key   string
	Value schema.Value
}

// Section groups the entries of one INI section
type Section struct {
	Name    string
	Entries []Entry
}

// Summary is a point-in-time view of the configuration
type Summary struct {
	Generation    uint32
	PendingWrites int
	Boot          *boot.Report
	Sections      []Section
}

// Build summarises snapshot. Secrets are redacted. A nil snapshot yields
// a summary with no sections.
func Build(snapshot *config.ApplicationConfig, generation uint32, pending int) *Summary {
	s := &Summary{Generation: generation, PendingWrites: pending}
	if snapshot == nil {
		return s
	}

	bindings := config.Link(snapshot)
	for i := range bindings {
		b := &bindings[i]
		if !b.Linked() {
			continue
		}
		name := b.Desc.Section.String()
		if len(s.Sections) == 0 || s.Sections[len(s.Sections)-1].Name != name {
			s.Sections = append(s.Sections, Section{Name: name})
		}
		v := b.Get()
		if b.Desc.Key == "password" && v.AsString() != "" {
			v = schema.StringValue(redacted)
		}
		sec := &s.Sections[len(s.Sections)-1]
		sec.Entries = append(sec.Entries, Entry{Key: b.Desc.Key, Value: v})
	}
	return s
}

// WithBoot attaches the boot loader outcome
func (s *Summary) WithBoot(r boot.Report) *Summary {
	s.Boot = &r
	return s
}

// Lookup returns the summarised value of section.key
func (s *Summary) Lookup(section, key string) (schema.Value, bool) {
	for _, sec := range s.Sections {
		if sec.Name != section {
			continue
		}
		for _, e := range sec.Entries {
			if e.Key == key {
				return e.Value, true
			}
		}
	}
	return schema.Value{}, false
}

// MarshalYAML emits an ordered mapping
func (s *Summary) MarshalYAML() (interface{}, error) {
	root := mapping()
	appendPair(root, "generation", scalar("!!int", strconv.FormatUint(uint64(s.Generation), 10)))
	appendPair(root, "pending_writes", scalar("!!int", strconv.Itoa(s.PendingWrites)))

	if s.Boot != nil {
		var node yaml.Node
		if err := node.Encode(s.Boot); err != nil {
			return nil, fmt.Errorf("failed to encode boot report: %w", err)
		}
		appendPair(root, "boot", &node)
	}

	sections := mapping()
	for _, sec := range s.Sections {
		m := mapping()
		for _, e := range sec.Entries {
			appendPair(m, e.Key, valueNode(e.Value))
		}
		appendPair(sections, sec.Name, m)
	}
	appendPair(root, "sections", sections)
	return root, nil
}

// YAML renders the summary
func (s *Summary) YAML() ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	return out, nil
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, scalar("!!str", key), value)
}

func valueNode(v schema.Value) *yaml.Node {
	switch v.Type() {
	case schema.Int:
		return scalar("!!int", v.String())
	case schema.Bool:
		return scalar("!!bool", strconv.FormatBool(v.AsBool()))
	case schema.Float:
		return scalar("!!float", v.String())
	default:
		return scalar("!!str", v.AsString())
	}
}

package storage

import (
	"bytes"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/camcfg/internal/cfgerr"
	"github.com/muurk/camcfg/internal/logging"
	"github.com/muurk/camcfg/internal/schema"
)

// Accessor is the part of the runtime the engine reads and writes through
type Accessor interface {
	Initialized() bool
	Get(section schema.SectionID, key string) (schema.Value, error)
	Set(section schema.SectionID, key string, value schema.Value) error
	Export() ([]schema.Setting, error)
}

// LoadStats summarises one strict load
type LoadStats struct {
	Applied   int // values written through the accessor
	Unchanged int // values equal to what was already held
	Rejected  int // values refused by parsing or by the accessor
	Unknown   int // keys or sections not in the schema
	Malformed int // lines that are neither headers nor key=value
}

// Engine loads and saves the configuration file through an Accessor
type Engine struct {
	acc Accessor

	// fileMu serializes writes to the configuration file
	fileMu sync.Mutex
}

// NewEngine creates an engine bound to acc
func NewEngine(acc Accessor) *Engine {
	return &Engine{acc: acc}
}

// Load applies the file at path through the strict accessor setters.
// Unknown keys and refused values are logged and skipped.
func (e *Engine) Load(path string) error {
	_, err := e.LoadWithStats(path)
	return err
}

// Reload re-applies the file at path over the current values
func (e *Engine) Reload(path string) error {
	return e.Load(path)
}

// LoadWithStats is Load with a summary of what happened to each line
func (e *Engine) LoadWithStats(path string) (LoadStats, error) {
	var stats LoadStats
	if !e.acc.Initialized() {
		return stats, &cfgerr.Error{Kind: cfgerr.NotInitialized, Op: "load", Path: path}
	}

	data, err := ReadFile(path)
	if err != nil {
		return stats, err
	}

	var (
		section     schema.SectionID
		inSection   bool
		sectionName string
	)

	sc := NewScanner(data)
	for sc.Next() {
		l := sc.Line()
		switch l.Kind {
		case LineSection:
			sectionName = l.Name
			section, inSection = schema.ParseSection(l.Name)
			if !inSection {
				logging.Info("Ignoring unknown configuration section",
					zap.String("section", l.Name), zap.Int("line", l.Number))
				stats.Unknown++
			}

		case LineKeyValue:
			e.apply(&stats, l, section, inSection, sectionName)

		case LineMalformed, LineTooLong:
			logging.Warn("Skipping malformed configuration line",
				zap.String("path", path),
				zap.Int("line", l.Number),
				zap.Stringer("reason", l.Kind),
			)
			stats.Malformed++
		}
	}
	if err := sc.Err(); err != nil {
		return stats, cfgerr.Wrap(cfgerr.InvalidFormat, "load", path, err)
	}

	logging.Info("Configuration loaded",
		zap.String("path", path),
		zap.Int("applied", stats.Applied),
		zap.Int("unchanged", stats.Unchanged),
		zap.Int("rejected", stats.Rejected),
		zap.Int("unknown", stats.Unknown),
		zap.Int("malformed", stats.Malformed),
	)
	return stats, nil
}

func (e *Engine) apply(stats *LoadStats, l Line, section schema.SectionID, inSection bool, sectionName string) {
	if !inSection {
		if sectionName != "" {
			// the whole unknown section was already counted
			return
		}
		logging.LogUnknownField("", l.Key, l.Number)
		stats.Unknown++
		return
	}

	d := schema.Find(section, l.Key)
	if d == nil {
		logging.LogUnknownField(section.String(), l.Key, l.Number)
		stats.Unknown++
		return
	}

	v, err := d.Parse(l.Value)
	if err != nil {
		logging.LogRejectedField(section.String(), d.Key, l.Value, err)
		stats.Rejected++
		return
	}

	// Skip values the accessor already holds so an unchanged file does
	// not advance the generation or queue write-backs.
	if accepted, err := d.Accept("load", v); err == nil {
		if cur, err := e.acc.Get(section, d.Key); err == nil && cur.Equal(accepted) {
			stats.Unchanged++
			return
		}
	}

	if err := e.acc.Set(section, d.Key, v); err != nil {
		logging.Debug("Configuration line not applied",
			zap.String("section", section.String()),
			zap.String("key", d.Key),
			zap.Int("line", l.Number),
			zap.Error(err),
		)
		stats.Rejected++
		return
	}
	stats.Applied++
}

// Save writes every linked setting to path in schema order
func (e *Engine) Save(path string) error {
	settings, err := e.acc.Export()
	if err != nil {
		return err
	}

	e.fileMu.Lock()
	defer e.fileMu.Unlock()
	return AtomicWrite(path, Serialize(settings))
}

// Serialize renders settings as INI text: one header per run of settings
// from the same section, a blank line between sections and one
// "key = value" line per setting
func Serialize(settings []schema.Setting) []byte {
	var b bytes.Buffer
	current := schema.SectionID(-1)
	for _, s := range settings {
		if s.Desc.Section != current {
			if current >= 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "[%s]\n", s.Desc.Section)
			current = s.Desc.Section
		}
		fmt.Fprintf(&b, "%s = %s\n", s.Desc.Key, s.Value)
	}
	return b.Bytes()
}

// Package boot performs the one-shot, tolerant ingestion of the INI file
// into a fresh ApplicationConfig before the runtime takes ownership of it.
//
// Where the runtime rejects bad input, the boot loader repairs it so the
// camera always comes up and stays reachable:
//
//   - numbers outside their range are clamped (ports fall back to the default)
//   - unparsable numbers fall back to the default
//   - over-long strings are truncated
//   - booleans are true for "1", "true" or "yes" and false otherwise
//   - unknown sections and keys are logged at info level and skipped
//
// Only Io and InvalidFormat errors escape Load. Every adjustment is logged
// and counted in the returned Report.
package boot

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/muurk/camcfg/internal/cfgerr"
	"github.com/muurk/camcfg/internal/config"
	"github.com/muurk/camcfg/internal/logging"
	"github.com/muurk/camcfg/internal/metrics"
	"github.com/muurk/camcfg/internal/schema"
	"github.com/muurk/camcfg/internal/storage"
)

// Options controls where Load looks for the file
type Options struct {
	Path string

	// FallbackPath is tried when Path cannot be opened. Empty selects
	// config.FallbackPath(Path).
	FallbackPath string

	// NoFallback disables the second attempt
	NoFallback bool

	Metrics *metrics.Metrics
}

// Report summarises a boot load
type Report struct {
	Path         string `yaml:"path"`
	UsedFallback bool   `yaml:"used_fallback"`
	Checksum     uint32 `yaml:"checksum"`
	Applied      int    `yaml:"applied"`
	Clamped      int    `yaml:"clamped"`
	Truncated    int    `yaml:"truncated"`
	Defaulted    int    `yaml:"defaulted"`
	Unknown      int    `yaml:"unknown"`
	Malformed    int    `yaml:"malformed"`
}

// Adjusted returns how many values were changed on the way in
func (r Report) Adjusted() int {
	return r.Clamped + r.Truncated + r.Defaulted
}

// Load reads the configuration file into cfg. Fields not mentioned in the
// file keep their current values, so cfg is normally config.New().
func Load(cfg *config.ApplicationConfig, opts Options) (Report, error) {
	var report Report
	if cfg == nil {
		return report, cfgerr.New(cfgerr.InvalidParameter, "boot_load", "config is nil")
	}

	path := opts.Path
	data, err := storage.ReadFile(path)
	if err != nil && cfgerr.IsKind(err, cfgerr.Io) && !opts.NoFallback {
		fallback := opts.FallbackPath
		if fallback == "" {
			fallback = config.FallbackPath(path)
		}
		if fallback != path {
			logging.Warn("Primary configuration unavailable, trying fallback",
				zap.String("path", path),
				zap.String("fallback", fallback),
				zap.Error(err),
			)
			if fbData, fbErr := storage.ReadFile(fallback); fbErr == nil {
				data, err, path = fbData, nil, fallback
				report.UsedFallback = true
			}
		}
	}
	if err != nil {
		return report, err
	}

	report.Path = path
	report.Checksum = storage.Checksum(data)
	ingest(config.Link(cfg), data, &report)

	opts.Metrics.ObserveBootAdjustment("clamped", report.Clamped)
	opts.Metrics.ObserveBootAdjustment("truncated", report.Truncated)
	opts.Metrics.ObserveBootAdjustment("defaulted", report.Defaulted)
	opts.Metrics.ObserveBootAdjustment("unknown", report.Unknown)
	opts.Metrics.ObserveBootAdjustment("malformed", report.Malformed)

	logging.Info("Boot configuration loaded",
		zap.String("path", report.Path),
		zap.Bool("fallback", report.UsedFallback),
		zap.Int("applied", report.Applied),
		zap.Int("adjusted", report.Adjusted()),
		zap.Int("unknown", report.Unknown),
		zap.Int("malformed", report.Malformed),
	)
	return report, nil
}

func ingest(bindings config.Bindings, data []byte, report *Report) {
	var (
		section   schema.SectionID
		inSection bool
		seenAny   bool // a header was seen, valid or not
	)

	sc := storage.NewScanner(data)
	for sc.Next() {
		l := sc.Line()
		switch l.Kind {
		case storage.LineSection:
			seenAny = true
			section, inSection = schema.ParseSection(l.Name)
			if !inSection {
				logging.Info("Ignoring unknown configuration section",
					zap.String("section", l.Name), zap.Int("line", l.Number))
				report.Unknown++
			}

		case storage.LineMalformed, storage.LineTooLong:
			if strings.HasPrefix(strings.TrimSpace(l.Raw), "[") {
				// keys under a broken header are not attributed to any section
				seenAny = true
				inSection = false
			}
			logging.Warn("Skipping malformed configuration line",
				zap.Int("line", l.Number), zap.Stringer("reason", l.Kind))
			report.Malformed++

		case storage.LineKeyValue:
			if !inSection {
				if !seenAny {
					logging.LogUnknownField("", l.Key, l.Number)
					report.Unknown++
				}
				continue
			}
			d := schema.Find(section, l.Key)
			if d == nil {
				logging.LogUnknownField(section.String(), l.Key, l.Number)
				report.Unknown++
				continue
			}
			b := &bindings[d.Index]
			if !b.Linked() {
				logging.Debug("Setting has no backing field",
					zap.String("section", section.String()), zap.String("key", d.Key))
				continue
			}
			b.Set(tolerate(d, l.Value, report))
			report.Applied++
		}
	}
}

// tolerate converts raw into a storable value, repairing it when needed
func tolerate(d *schema.Descriptor, raw string, report *Report) schema.Value {
	adjusted := func(v schema.Value, reason string) schema.Value {
		logging.LogAdjustedField(d.Section.String(), d.Key, raw, v.String(), reason)
		return v
	}

	switch d.Type {
	case schema.Bool:
		switch strings.ToLower(raw) {
		case "1", "true", "yes":
			return schema.BoolValue(true)
		}
		return schema.BoolValue(false)

	case schema.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			report.Defaulted++
			return adjusted(d.DefaultValue(), "unparsable, using default")
		}
		if d.IsPort() && (float64(n) < d.Min || float64(n) > d.Max) {
			report.Defaulted++
			return adjusted(d.DefaultValue(), "invalid port, using default")
		}
		v, adj := d.Clamp(schema.IntValue(n))
		if adj == schema.Clamped {
			report.Clamped++
			return adjusted(v, "clamped")
		}
		return v

	case schema.Float:
		f, err := cast.ToFloat64E(raw)
		if raw == "" || err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			report.Defaulted++
			return adjusted(d.DefaultValue(), "unparsable, using default")
		}
		v, adj := d.Clamp(schema.FloatValue(f))
		if adj == schema.Clamped {
			report.Clamped++
			return adjusted(v, "clamped")
		}
		return v

	default:
		v, adj := d.Clamp(schema.StringValue(raw))
		if adj == schema.Truncated {
			report.Truncated++
			return adjusted(v, "truncated")
		}
		return v
	}
}

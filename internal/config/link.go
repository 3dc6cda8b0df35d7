package config

import (
	"strconv"

	"github.com/muurk/camcfg/internal/cfgerr"
	"github.com/muurk/camcfg/internal/schema"
)

const (
	streamProfiles    = schema.StreamProfileCount
	ptzProfiles       = schema.PTZProfileCount
	presetsPerProfile = schema.PresetsPerProfile
)

// field is a typed read/write pair over one struct field
type field struct {
	get func() schema.Value
	set func(schema.Value)
}

func intField(p *int) field {
	return field{
		get: func() schema.Value { return schema.IntValue(*p) },
		set: func(v schema.Value) { *p = v.AsInt() },
	}
}

func boolField(p *bool) field {
	return field{
		get: func() schema.Value { return schema.BoolValue(*p) },
		set: func(v schema.Value) { *p = v.AsBool() },
	}
}

func stringField(p *string) field {
	return field{
		get: func() schema.Value { return schema.StringValue(*p) },
		set: func(v schema.Value) { *p = v.AsString() },
	}
}

func floatField(p *float64) field {
	return field{
		get: func() schema.Value { return schema.FloatValue(*p) },
		set: func(v schema.Value) { *p = v.AsFloat() },
	}
}

// sectionFields maps the keys of one section onto the aggregate. It
// returns nil when the owning sub-struct is absent.
func sectionFields(cfg *ApplicationConfig, s schema.SectionID) map[string]field {
	switch s {
	case schema.SectionOnvif:
		o := &cfg.Onvif
		return map[string]field{
			"enabled":      boolField(&o.Enabled),
			"http_port":    intField(&o.HTTPPort),
			"auth_enabled": boolField(&o.AuthEnabled),
			"username":     stringField(&o.Username),
			"password":     stringField(&o.Password),
		}

	case schema.SectionNetwork:
		n := cfg.Network
		if n == nil {
			return nil
		}
		return map[string]field{
			"rtsp_port":         intField(&n.RTSPPort),
			"snapshot_port":     intField(&n.SnapshotPort),
			"ws_discovery_port": intField(&n.WSDiscoveryPort),
		}

	case schema.SectionDevice:
		d := cfg.Device
		if d == nil {
			return nil
		}
		return map[string]field{
			"manufacturer":     stringField(&d.Manufacturer),
			"model":            stringField(&d.Model),
			"firmware_version": stringField(&d.FirmwareVersion),
			"serial_number":    stringField(&d.SerialNumber),
			"hardware_id":      stringField(&d.HardwareID),
		}

	case schema.SectionLogging:
		l := cfg.Logging
		if l == nil {
			return nil
		}
		return map[string]field{
			"enabled":        intField(&l.Enabled),
			"use_colors":     intField(&l.UseColors),
			"use_timestamps": intField(&l.UseTimestamps),
			"min_level":      intField(&l.MinLevel),
			"tag":            stringField(&l.Tag),
			"http_verbose":   intField(&l.HTTPVerbose),
		}

	case schema.SectionServer:
		sv := cfg.Server
		if sv == nil {
			return nil
		}
		return map[string]field{
			"worker_threads":     intField(&sv.WorkerThreads),
			"max_connections":    intField(&sv.MaxConnections),
			"connection_timeout": intField(&sv.ConnectionTimeout),
			"keepalive_timeout":  intField(&sv.KeepaliveTimeout),
			"epoll_timeout":      intField(&sv.EpollTimeout),
			"cleanup_interval":   intField(&sv.CleanupInterval),
		}

	case schema.SectionStreamProfile1, schema.SectionStreamProfile2,
		schema.SectionStreamProfile3, schema.SectionStreamProfile4:
		p := cfg.StreamProfiles[s-schema.SectionStreamProfile1]
		if p == nil {
			return nil
		}
		return map[string]field{
			"name":       stringField(&p.Name),
			"width":      intField(&p.Width),
			"height":     intField(&p.Height),
			"fps":        intField(&p.FPS),
			"bitrate":    intField(&p.Bitrate),
			"gop_size":   intField(&p.GOPSize),
			"profile":    intField(&p.Profile),
			"codec_type": intField(&p.CodecType),
			"br_mode":    intField(&p.BRMode),
		}

	case schema.SectionPTZPreset1, schema.SectionPTZPreset2,
		schema.SectionPTZPreset3, schema.SectionPTZPreset4:
		pp := cfg.PTZPresets[s-schema.SectionPTZPreset1]
		if pp == nil {
			return nil
		}
		m := map[string]field{"preset_count": intField(&pp.PresetCount)}
		for i := range pp.Presets {
			p := &pp.Presets[i]
			prefix := "preset" + strconv.Itoa(i+1) + "_"
			m[prefix+"token"] = stringField(&p.Token)
			m[prefix+"name"] = stringField(&p.Name)
			m[prefix+"pan"] = floatField(&p.Pan)
			m[prefix+"tilt"] = floatField(&p.Tilt)
			m[prefix+"zoom"] = floatField(&p.Zoom)
		}
		return m

	case schema.SectionImaging:
		im := cfg.Imaging
		if im == nil {
			return nil
		}
		return map[string]field{
			"brightness": intField(&im.Brightness),
			"contrast":   intField(&im.Contrast),
			"saturation": intField(&im.Saturation),
			"sharpness":  intField(&im.Sharpness),
			"hue":        intField(&im.Hue),
		}

	case schema.SectionAutoDayNight:
		a := cfg.AutoDayNight
		if a == nil {
			return nil
		}
		return map[string]field{
			"mode":                   intField(&a.Mode),
			"day_to_night_threshold": intField(&a.DayToNightThreshold),
			"night_to_day_threshold": intField(&a.NightToDayThreshold),
			"lock_time_seconds":      intField(&a.LockTimeSeconds),
			"ir_led_mode":            intField(&a.IRLedMode),
			"ir_led_level":           intField(&a.IRLedLevel),
			"enable_auto_switching":  intField(&a.EnableAutoSwitching),
		}
	}
	return nil
}

// Binding connects one descriptor to its live field
type Binding struct {
	Desc *schema.Descriptor
	f    field
}

// Linked reports whether the descriptor has a backing field
func (b *Binding) Linked() bool {
	return b.f.get != nil
}

// Get reads the field. It must only be called on a linked binding.
func (b *Binding) Get() schema.Value {
	return b.f.get()
}

// Set writes the field. v must already be validated and converted to the
// descriptor's type (see schema.Descriptor.Accept and Clamp).
func (b *Binding) Set(v schema.Value) {
	b.f.set(v)
}

// Bindings holds one Binding per schema descriptor, indexed like the schema
type Bindings []Binding

// Link binds every descriptor to the matching field of cfg. Descriptors
// whose sub-struct is nil stay unlinked.
func Link(cfg *ApplicationConfig) Bindings {
	all := schema.All()
	out := make(Bindings, len(all))
	fields := map[schema.SectionID]map[string]field{}
	for i := range all {
		d := schema.At(i)
		m, ok := fields[d.Section]
		if !ok {
			m = sectionFields(cfg, d.Section)
			fields[d.Section] = m
		}
		out[i] = Binding{Desc: d, f: m[d.Key]}
	}
	return out
}

// Lookup resolves (section, key) to a linked binding. An empty key or an
// invalid section is InvalidParameter; an unknown or unlinked setting is
// NotFound.
func (bs Bindings) Lookup(section schema.SectionID, key string) (*Binding, error) {
	if key == "" || !section.Valid() {
		return nil, &cfgerr.Error{
			Kind: cfgerr.InvalidParameter, Op: "lookup",
			Section: section.String(), Key: key,
			Message: "section and key are required",
		}
	}
	d := schema.Find(section, key)
	if d == nil || d.Index >= len(bs) || !bs[d.Index].Linked() {
		return nil, &cfgerr.Error{Kind: cfgerr.NotFound, Op: "lookup", Section: section.String(), Key: key}
	}
	return &bs[d.Index], nil
}

// LinkedCount returns how many descriptors have a backing field
func (bs Bindings) LinkedCount() int {
	n := 0
	for i := range bs {
		if bs[i].Linked() {
			n++
		}
	}
	return n
}

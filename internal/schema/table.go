package schema

import "strconv"

const (
	// ShortStringLen is the buffer size of credential-style strings
	ShortStringLen = 32
	// StandardStringLen is the buffer size of names and identifiers
	StandardStringLen = 64

	PortMin = 1
	PortMax = 65535
)

// streamDefaults are the factory settings of the four stream profiles
var streamDefaults = [StreamProfileCount]struct {
	name                             string
	width, height, fps, bitrate, gop int
	profile                          int
}{
	{"High Definition", 1920, 1080, 30, 4096, 60, 1},
	{"Standard Definition", 1280, 720, 30, 2048, 60, 1},
	{"Mobile Stream", 640, 480, 15, 512, 30, 0},
	{"Low Bandwidth", 320, 240, 10, 256, 20, 0},
}

type tableBuilder struct {
	section SectionID
	out     []Descriptor
}

func (b *tableBuilder) in(s SectionID) *tableBuilder {
	b.section = s
	return b
}

func (b *tableBuilder) add(d Descriptor) *tableBuilder {
	d.Index = len(b.out)
	d.Section = b.section
	b.out = append(b.out, d)
	return b
}

func (b *tableBuilder) integer(key string, min, max, def int, required bool) *tableBuilder {
	return b.add(Descriptor{Key: key, Type: Int, Min: float64(min), Max: float64(max),
		Default: strconv.Itoa(def), Required: required})
}

func (b *tableBuilder) port(key string, def int) *tableBuilder {
	return b.integer(key, PortMin, PortMax, def, true)
}

func (b *tableBuilder) boolean(key, def string, required bool) *tableBuilder {
	return b.add(Descriptor{Key: key, Type: Bool, Min: 0, Max: 1, Default: def, Required: required})
}

func (b *tableBuilder) str(key string, maxLen int, def string, required bool) *tableBuilder {
	return b.add(Descriptor{Key: key, Type: String, MaxLength: maxLen, Default: def, Required: required})
}

func (b *tableBuilder) float(key string, min, max float64, def string) *tableBuilder {
	return b.add(Descriptor{Key: key, Type: Float, Min: min, Max: max, Default: def})
}

func buildTable() []Descriptor {
	b := &tableBuilder{}

	b.in(SectionOnvif).
		boolean("enabled", "1", true).
		port("http_port", 8080).
		boolean("auth_enabled", "0", true).
		str("username", ShortStringLen, "admin", false).
		str("password", ShortStringLen, "admin", false)

	b.in(SectionNetwork).
		port("rtsp_port", 554).
		port("snapshot_port", 8080).
		port("ws_discovery_port", 3702)

	b.in(SectionDevice).
		str("manufacturer", StandardStringLen, "Anyka", true).
		str("model", StandardStringLen, "AK3918", true).
		str("firmware_version", StandardStringLen, "1.0", true).
		str("serial_number", StandardStringLen, "000000", true).
		str("hardware_id", StandardStringLen, "AK3918", true)

	b.in(SectionLogging).
		integer("enabled", 0, 1, 1, true).
		integer("use_colors", 0, 1, 1, false).
		integer("use_timestamps", 0, 1, 1, false).
		integer("min_level", 0, 5, 2, true).
		str("tag", ShortStringLen, "ONVIF", false).
		integer("http_verbose", 0, 1, 0, false)

	b.in(SectionServer).
		integer("worker_threads", 1, 32, 4, true).
		integer("max_connections", 1, 1000, 100, true).
		integer("connection_timeout", 1, 300, 30, true).
		integer("keepalive_timeout", 1, 300, 60, true).
		integer("epoll_timeout", 1, 10000, 1000, true).
		integer("cleanup_interval", 1, 3600, 300, true)

	for i, def := range streamDefaults {
		sec, _ := StreamProfileSection(i)
		b.in(sec).
			str("name", StandardStringLen, def.name, false).
			integer("width", 160, 1920, def.width, false).
			integer("height", 120, 1080, def.height, false).
			integer("fps", 1, 60, def.fps, false).
			integer("bitrate", 64, 16384, def.bitrate, false).
			integer("gop_size", 1, 300, def.gop, false).
			integer("profile", 0, 2, def.profile, false).
			integer("codec_type", 0, 2, 0, false).
			integer("br_mode", 0, 1, 0, false)
	}

	for i := 0; i < PTZProfileCount; i++ {
		sec, _ := PTZPresetSection(i)
		b.in(sec).integer("preset_count", 0, PresetsPerProfile, 0, false)
		for p := 1; p <= PresetsPerProfile; p++ {
			prefix := "preset" + strconv.Itoa(p) + "_"
			b.str(prefix+"token", StandardStringLen, "", false).
				str(prefix+"name", StandardStringLen, "", false).
				float(prefix+"pan", -180, 180, "0.0").
				float(prefix+"tilt", -90, 90, "0.0").
				float(prefix+"zoom", 0, 1, "0.0")
		}
	}

	b.in(SectionImaging).
		integer("brightness", -100, 100, 0, false).
		integer("contrast", -100, 100, 0, false).
		integer("saturation", -100, 100, 0, false).
		integer("sharpness", -100, 100, 0, false).
		integer("hue", -180, 180, 0, false)

	b.in(SectionAutoDayNight).
		integer("mode", 0, 2, 0, false).
		integer("day_to_night_threshold", 0, 100, 30, false).
		integer("night_to_day_threshold", 0, 100, 70, false).
		integer("lock_time_seconds", 1, 600, 10, false).
		integer("ir_led_mode", 0, 2, 2, false).
		integer("ir_led_level", 0, 100, 1, false).
		integer("enable_auto_switching", 0, 1, 1, false)

	return b.out
}

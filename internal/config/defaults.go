package config

// New allocates every optional block and fills all settings with their
// schema defaults
func New() *ApplicationConfig {
	cfg := &ApplicationConfig{
		Network:      &NetworkSettings{},
		Device:       &DeviceInfo{},
		Logging:      &LoggingSettings{},
		Server:       &ServerSettings{},
		Imaging:      &ImagingSettings{},
		AutoDayNight: &AutoDayNightSettings{},
	}
	for i := range cfg.StreamProfiles {
		cfg.StreamProfiles[i] = &StreamProfile{}
	}
	for i := range cfg.PTZPresets {
		cfg.PTZPresets[i] = &PTZPresetProfile{}
	}
	Link(cfg).ApplyDefaults()
	return cfg
}

// ApplyDefaults writes the schema default into every linked field and
// returns how many fields were written
func (bs Bindings) ApplyDefaults() int {
	n := 0
	for i := range bs {
		b := &bs[i]
		if !b.Linked() {
			continue
		}
		b.Set(b.Desc.DefaultValue())
		n++
	}
	return n
}

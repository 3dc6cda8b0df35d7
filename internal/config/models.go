package config

// ApplicationConfig is the aggregate of every live camera setting
type ApplicationConfig struct {
	Onvif          OnvifSettings                  `yaml:"onvif"`
	Network        *NetworkSettings               `yaml:"network,omitempty"`
	Device         *DeviceInfo                    `yaml:"device,omitempty"`
	Logging        *LoggingSettings               `yaml:"logging,omitempty"`
	Server         *ServerSettings                `yaml:"server,omitempty"`
	StreamProfiles [streamProfiles]*StreamProfile `yaml:"stream_profiles"`
	PTZPresets     [ptzProfiles]*PTZPresetProfile `yaml:"ptz_presets"`
	Imaging        *ImagingSettings               `yaml:"imaging,omitempty"`
	AutoDayNight   *AutoDayNightSettings          `yaml:"imaging_auto,omitempty"`
}

// OnvifSettings controls the ONVIF service endpoint
type OnvifSettings struct {
	Enabled     bool   `yaml:"enabled"`
	HTTPPort    int    `yaml:"http_port"`
	AuthEnabled bool   `yaml:"auth_enabled"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
}

// NetworkSettings holds the ports of the auxiliary services
type NetworkSettings struct {
	RTSPPort        int `yaml:"rtsp_port"`
	SnapshotPort    int `yaml:"snapshot_port"`
	WSDiscoveryPort int `yaml:"ws_discovery_port"`
}

// DeviceInfo is the identity reported by GetDeviceInformation
type DeviceInfo struct {
	Manufacturer    string `yaml:"manufacturer"`
	Model           string `yaml:"model"`
	FirmwareVersion string `yaml:"firmware_version"`
	SerialNumber    string `yaml:"serial_number"`
	HardwareID      string `yaml:"hardware_id"`
}

// LoggingSettings configures the firmware's own logger
type LoggingSettings struct {
	Enabled       int    `yaml:"enabled"`
	UseColors     int    `yaml:"use_colors"`
	UseTimestamps int    `yaml:"use_timestamps"`
	MinLevel      int    `yaml:"min_level"` // 0 (error) .. 5 (trace)
	Tag           string `yaml:"tag"`
	HTTPVerbose   int    `yaml:"http_verbose"`
}

// ServerSettings tunes the HTTP server
type ServerSettings struct {
	WorkerThreads     int `yaml:"worker_threads"`
	MaxConnections    int `yaml:"max_connections"`
	ConnectionTimeout int `yaml:"connection_timeout"` // seconds
	KeepaliveTimeout  int `yaml:"keepalive_timeout"`  // seconds
	EpollTimeout      int `yaml:"epoll_timeout"`      // milliseconds
	CleanupInterval   int `yaml:"cleanup_interval"`   // seconds
}

// StreamProfile is one encoder configuration
type StreamProfile struct {
	Name      string `yaml:"name"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	FPS       int    `yaml:"fps"`
	Bitrate   int    `yaml:"bitrate"` // kbit/s
	GOPSize   int    `yaml:"gop_size"`
	Profile   int    `yaml:"profile"`    // 0 baseline, 1 main, 2 high
	CodecType int    `yaml:"codec_type"` // 0 H.264, 1 H.265, 2 MJPEG
	BRMode    int    `yaml:"br_mode"`    // 0 CBR, 1 VBR
}

// PTZPreset is one stored pan/tilt/zoom position
type PTZPreset struct {
	Token string  `yaml:"token"`
	Name  string  `yaml:"name"`
	Pan   float64 `yaml:"pan"`
	Tilt  float64 `yaml:"tilt"`
	Zoom  float64 `yaml:"zoom"`
}

// PTZPresetProfile holds the presets of one media profile
type PTZPresetProfile struct {
	PresetCount int                          `yaml:"preset_count"`
	Presets     [presetsPerProfile]PTZPreset `yaml:"presets"`
}

// ImagingSettings are the sensor image adjustments
type ImagingSettings struct {
	Brightness int `yaml:"brightness"`
	Contrast   int `yaml:"contrast"`
	Saturation int `yaml:"saturation"`
	Sharpness  int `yaml:"sharpness"`
	Hue        int `yaml:"hue"`
}

// AutoDayNightSettings drives the IR-cut and IR LED switching
type AutoDayNightSettings struct {
	Mode                int `yaml:"mode"` // 0 auto, 1 day, 2 night
	DayToNightThreshold int `yaml:"day_to_night_threshold"`
	NightToDayThreshold int `yaml:"night_to_day_threshold"`
	LockTimeSeconds     int `yaml:"lock_time_seconds"`
	IRLedMode           int `yaml:"ir_led_mode"`
	IRLedLevel          int `yaml:"ir_led_level"`
	EnableAutoSwitching int `yaml:"enable_auto_switching"`
}

// Clone returns a deep copy of the aggregate. Absent sub-structs stay nil.
func (c *ApplicationConfig) Clone() *ApplicationConfig {
	if c == nil {
		return nil
	}
	out := &ApplicationConfig{Onvif: c.Onvif}
	out.Network = clonePtr(c.Network)
	out.Device = clonePtr(c.Device)
	out.Logging = clonePtr(c.Logging)
	out.Server = clonePtr(c.Server)
	for i := range c.StreamProfiles {
		out.StreamProfiles[i] = clonePtr(c.StreamProfiles[i])
	}
	for i := range c.PTZPresets {
		out.PTZPresets[i] = clonePtr(c.PTZPresets[i])
	}
	out.Imaging = clonePtr(c.Imaging)
	out.AutoDayNight = clonePtr(c.AutoDayNight)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

package schema

import (
	"fmt"
	"strings"
)

// Type is the storage type of a setting
type Type int

const (
	Int Type = iota
	Bool
	String
	Float
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// SectionID identifies an INI section
type SectionID int

const (
	SectionOnvif SectionID = iota
	SectionNetwork
	SectionDevice
	SectionLogging
	SectionServer
	SectionStreamProfile1
	SectionStreamProfile2
	SectionStreamProfile3
	SectionStreamProfile4
	SectionPTZPreset1
	SectionPTZPreset2
	SectionPTZPreset3
	SectionPTZPreset4
	SectionImaging
	SectionAutoDayNight

	sectionCount
)

// StreamProfileCount is the number of stream_profile_N sections
const StreamProfileCount = 4

// PTZProfileCount is the number of ptz_preset_profile_N sections
const PTZProfileCount = 4

// PresetsPerProfile is the number of preset slots in each PTZ preset profile
const PresetsPerProfile = 4

var sectionNames = [sectionCount]string{
	SectionOnvif:          "onvif",
	SectionNetwork:        "network",
	SectionDevice:         "device",
	SectionLogging:        "logging",
	SectionServer:         "server",
	SectionStreamProfile1: "stream_profile_1",
	SectionStreamProfile2: "stream_profile_2",
	SectionStreamProfile3: "stream_profile_3",
	SectionStreamProfile4: "stream_profile_4",
	SectionPTZPreset1:     "ptz_preset_profile_1",
	SectionPTZPreset2:     "ptz_preset_profile_2",
	SectionPTZPreset3:     "ptz_preset_profile_3",
	SectionPTZPreset4:     "ptz_preset_profile_4",
	SectionImaging:        "imaging",
	SectionAutoDayNight:   "imaging_auto",
}

// sectionAliases maps legacy header names onto canonical sections
var sectionAliases = map[string]SectionID{
	"http": SectionOnvif,
}

// String returns the INI header name of the section
func (s SectionID) String() string {
	if !s.Valid() {
		return fmt.Sprintf("section(%d)", int(s))
	}
	return sectionNames[s]
}

// Valid reports whether s names a known section
func (s SectionID) Valid() bool {
	return s >= 0 && s < sectionCount
}

// ParseSection resolves an INI header name, case-insensitively, including aliases
func ParseSection(name string) (SectionID, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for id, n := range sectionNames {
		if n == name {
			return SectionID(id), true
		}
	}
	if id, ok := sectionAliases[name]; ok {
		return id, true
	}
	return 0, false
}

// Sections returns every section in declaration order
func Sections() []SectionID {
	out := make([]SectionID, 0, sectionCount)
	for s := SectionID(0); s < sectionCount; s++ {
		out = append(out, s)
	}
	return out
}

// StreamProfileSection returns the section of the stream profile at index 0..3
func StreamProfileSection(index int) (SectionID, bool) {
	if index < 0 || index >= StreamProfileCount {
		return 0, false
	}
	return SectionStreamProfile1 + SectionID(index), true
}

// PTZPresetSection returns the section of the PTZ preset profile at index 0..3
func PTZPresetSection(index int) (SectionID, bool) {
	if index < 0 || index >= PTZProfileCount {
		return 0, false
	}
	return SectionPTZPreset1 + SectionID(index), true
}

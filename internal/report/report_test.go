package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/muurk/camcfg/internal/boot"
	"github.com/muurk/camcfg/internal/config"
	"github.com/muurk/camcfg/internal/schema"
)

func TestBuildFollowsSchemaOrder(t *testing.T) {
	s := Build(config.New(), 7, 2)

	assert.Equal(t, uint32(7), s.Generation)
	assert.Equal(t, 2, s.PendingWrites)
	require.Len(t, s.Sections, len(schema.Sections()))
	assert.Equal(t, "onvif", s.Sections[0].Name)
	assert.Equal(t, "enabled", s.Sections[0].Entries[0].Key)
	assert.Equal(t, "imaging_auto", s.Sections[len(s.Sections)-1].Name)
}

func TestBuildRedactsPassword(t *testing.T) {
	cfg := config.New()
	cfg.Onvif.Password = "s3cret"

	v, ok := Build(cfg, 0, 0).Lookup("onvif", "password")
	require.True(t, ok)
	assert.Equal(t, redacted, v.AsString())

	cfg.Onvif.Password = ""
	v, _ = Build(cfg, 0, 0).Lookup("onvif", "password")
	assert.Equal(t, "", v.AsString())
}

func TestBuildSkipsAbsentBlocks(t *testing.T) {
	cfg := config.New()
	cfg.Network = nil

	s := Build(cfg, 0, 0)
	_, ok := s.Lookup("network", "rtsp_port")
	assert.False(t, ok)
	assert.Len(t, s.Sections, len(schema.Sections())-1)

	assert.Empty(t, Build(nil, 1, 0).Sections)
}

func TestYAMLRendering(t *testing.T) {
	cfg := config.New()
	cfg.Onvif.HTTPPort = 9090
	cfg.PTZPresets[0].Presets[0].Pan = 12.5

	out, err := Build(cfg, 3, 1).WithBoot(boot.Report{Path: "/etc/jffs2/anyka_cfg.ini", Clamped: 2}).YAML()
	require.NoError(t, err)

	var decoded struct {
		Generation    int `yaml:"generation"`
		PendingWrites int `yaml:"pending_writes"`
		Boot          struct {
			Path    string `yaml:"path"`
			Clamped int    `yaml:"clamped"`
		} `yaml:"boot"`
		Sections map[string]map[string]interface{} `yaml:"sections"`
	}
	require.NoError(t, yaml.Unmarshal(out, &decoded))

	assert.Equal(t, 3, decoded.Generation)
	assert.Equal(t, 1, decoded.PendingWrites)
	assert.Equal(t, "/etc/jffs2/anyka_cfg.ini", decoded.Boot.Path)
	assert.Equal(t, 2, decoded.Boot.Clamped)
	assert.Equal(t, 9090, decoded.Sections["onvif"]["http_port"])
	assert.Equal(t, true, decoded.Sections["onvif"]["enabled"])
	assert.Equal(t, 12.5, decoded.Sections["ptz_preset_profile_1"]["preset1_pan"])
	assert.Equal(t, "Anyka", decoded.Sections["device"]["manufacturer"])

	// sections keep schema order in the document
	assert.Less(t, strings.Index(string(out), "onvif:"), strings.Index(string(out), "network:"))
	assert.Less(t, strings.Index(string(out), "network:"), strings.Index(string(out), "imaging_auto:"))
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/camcfg/internal/cfgerr"
	"github.com/muurk/camcfg/internal/schema"
)

func TestLinkCoversEverySetting(t *testing.T) {
	bs := Link(New())

	require.Len(t, bs, schema.Len())
	for i := range bs {
		b := &bs[i]
		require.True(t, b.Linked(), "%s is not linked", b.Desc.Name())
		assert.Equal(t, b.Desc.Type, b.Get().Type(), "%s has the wrong field type", b.Desc.Name())
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	cfg := New()

	assert.True(t, cfg.Onvif.Enabled)
	assert.Equal(t, 8080, cfg.Onvif.HTTPPort)
	assert.False(t, cfg.Onvif.AuthEnabled)
	assert.Equal(t, "admin", cfg.Onvif.Username)
	assert.Equal(t, 554, cfg.Network.RTSPPort)
	assert.Equal(t, "Anyka", cfg.Device.Manufacturer)
	assert.Equal(t, "ONVIF", cfg.Logging.Tag)
	assert.Equal(t, 300, cfg.Server.CleanupInterval)
	assert.Equal(t, "Low Bandwidth", cfg.StreamProfiles[3].Name)
	assert.Equal(t, 320, cfg.StreamProfiles[3].Width)
	assert.Equal(t, 0.0, cfg.PTZPresets[0].Presets[0].Pan)
	assert.Equal(t, 70, cfg.AutoDayNight.NightToDayThreshold)
	assert.Equal(t, 2, cfg.AutoDayNight.IRLedMode)
}

func TestBindingWritesThrough(t *testing.T) {
	cfg := New()
	bs := Link(cfg)

	b, err := bs.Lookup(schema.SectionPTZPreset2, "preset3_tilt")
	require.NoError(t, err)
	b.Set(schema.FloatValue(-45.5))
	assert.Equal(t, -45.5, cfg.PTZPresets[1].Presets[2].Tilt)

	b, err = bs.Lookup(schema.SectionOnvif, "AUTH_ENABLED")
	require.NoError(t, err)
	b.Set(schema.BoolValue(true))
	assert.True(t, cfg.Onvif.AuthEnabled)
	assert.True(t, b.Get().AsBool())
}

func TestLookupErrors(t *testing.T) {
	cfg := New()
	cfg.Imaging = nil
	cfg.StreamProfiles[2] = nil
	bs := Link(cfg)

	tests := []struct {
		name    string
		section schema.SectionID
		key     string
		kind    cfgerr.Kind
	}{
		{"empty key", schema.SectionOnvif, "", cfgerr.InvalidParameter},
		{"bad section", schema.SectionID(99), "x", cfgerr.InvalidParameter},
		{"unknown key", schema.SectionOnvif, "nope", cfgerr.NotFound},
		{"absent imaging", schema.SectionImaging, "brightness", cfgerr.NotFound},
		{"absent profile", schema.SectionStreamProfile3, "width", cfgerr.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bs.Lookup(tt.section, tt.key)
			require.Error(t, err)
			assert.Equal(t, tt.kind, cfgerr.KindOf(err))
		})
	}

	_, err := bs.Lookup(schema.SectionStreamProfile2, "width")
	assert.NoError(t, err)
	assert.Equal(t, schema.Len()-5-9, bs.LinkedCount())
}

func TestApplyDefaultsResets(t *testing.T) {
	cfg := New()
	cfg.Onvif.HTTPPort = 1
	cfg.Device.Model = "changed"
	cfg.Network = nil

	n := Link(cfg).ApplyDefaults()

	assert.Equal(t, schema.Len()-3, n)
	assert.Equal(t, 8080, cfg.Onvif.HTTPPort)
	assert.Equal(t, "AK3918", cfg.Device.Model)
}

func TestClone(t *testing.T) {
	cfg := New()
	cfg.Imaging = nil

	cp := cfg.Clone()
	cp.Onvif.HTTPPort = 1
	cp.StreamProfiles[0].Width = 160
	cp.PTZPresets[0].Presets[0].Name = "home"

	assert.Equal(t, 8080, cfg.Onvif.HTTPPort)
	assert.Equal(t, 1920, cfg.StreamProfiles[0].Width)
	assert.Equal(t, "", cfg.PTZPresets[0].Presets[0].Name)
	assert.Nil(t, cp.Imaging)

	var nilCfg *ApplicationConfig
	assert.Nil(t, nilCfg.Clone())
}

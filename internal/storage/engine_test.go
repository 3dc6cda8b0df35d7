package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/camcfg/internal/cfgerr"
	"github.com/muurk/camcfg/internal/config"
	"github.com/muurk/camcfg/internal/runtime"
	"github.com/muurk/camcfg/internal/schema"
)

func bootstrapped(t *testing.T) (*runtime.Runtime, *Engine) {
	t.Helper()
	rt := runtime.New()
	require.NoError(t, rt.Bootstrap(config.New()))
	return rt, NewEngine(rt)
}

func TestLoadRequiresBootstrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.ini")
	writeFile(t, path, "[onvif]\nhttp_port = 9090\n")

	err := NewEngine(runtime.New()).Load(path)
	assert.True(t, cfgerr.IsKind(err, cfgerr.NotInitialized))
}

func TestLoadMissingFile(t *testing.T) {
	_, engine := bootstrapped(t)

	err := engine.Load(filepath.Join(t.TempDir(), "absent.ini"))
	assert.True(t, cfgerr.IsKind(err, cfgerr.Io))
	assert.True(t, IsNotExist(err))
}

func TestLoadThenStrictSet(t *testing.T) {
	rt, engine := bootstrapped(t)
	path := filepath.Join(t.TempDir(), "cfg.ini")
	writeFile(t, path, "[onvif]\nhttp_port = 9090\n")

	require.NoError(t, engine.Load(path))

	port, err := rt.GetInt(schema.SectionOnvif, "http_port")
	require.NoError(t, err)
	assert.Equal(t, 9090, port)

	err = rt.SetInt(schema.SectionOnvif, "http_port", 70000)
	assert.True(t, cfgerr.IsKind(err, cfgerr.OutOfRange))

	port, err = rt.GetInt(schema.SectionOnvif, "http_port")
	require.NoError(t, err)
	assert.Equal(t, 9090, port)
}

func TestLoadSkipsBadLines(t *testing.T) {
	rt, engine := bootstrapped(t)
	path := filepath.Join(t.TempDir(), "cfg.ini")
	writeFile(t, path, strings.Join([]string{
		"\xEF\xBB\xBF; camera settings",
		"orphan = 1",
		"[HTTP]",
		"HTTP_PORT = 8081 ; alias section, upper-case key",
		"auth_enabled = 1",
		"username = " + strings.Repeat("u", 40),
		"[network]",
		"rtsp_port = 70000",
		"snapshot_port = abc",
		"mystery = 1",
		"this line is junk",
		"ws_discovery_port = 3703",
		"[vendor_extras]",
		"foo = bar",
		"[device]",
		"manufacturer = Acme # vendor",
		"model = " + strings.Repeat("m", MaxLineLength),
	}, "\n"))

	stats, err := engine.LoadWithStats(path)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Applied)
	assert.Equal(t, 3, stats.Rejected)
	assert.Equal(t, 3, stats.Unknown)
	assert.Equal(t, 2, stats.Malformed)

	port, _ := rt.GetInt(schema.SectionOnvif, "http_port")
	assert.Equal(t, 8081, port)
	auth, _ := rt.GetBool(schema.SectionOnvif, "auth_enabled")
	assert.True(t, auth)
	user, _ := rt.GetString(schema.SectionOnvif, "username")
	assert.Equal(t, "admin", user, "over-long strings are rejected, not truncated")
	rtsp, _ := rt.GetInt(schema.SectionNetwork, "rtsp_port")
	assert.Equal(t, 554, rtsp)
	ws, _ := rt.GetInt(schema.SectionNetwork, "ws_discovery_port")
	assert.Equal(t, 3703, ws)
	manufacturer, _ := rt.GetString(schema.SectionDevice, "manufacturer")
	assert.Equal(t, "Acme", manufacturer)
	model, _ := rt.GetString(schema.SectionDevice, "model")
	assert.Equal(t, "AK3918", model)
}

func TestLoadUnchangedFileKeepsGeneration(t *testing.T) {
	rt, engine := bootstrapped(t)
	path := filepath.Join(t.TempDir(), "cfg.ini")
	require.NoError(t, engine.Save(path))

	stats, err := engine.LoadWithStats(path)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Applied)
	assert.Equal(t, schema.Len(), stats.Unchanged)
	assert.Equal(t, uint32(0), rt.Generation())
	assert.Equal(t, 0, rt.PendingWrites())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	src, engine := bootstrapped(t)
	path := filepath.Join(t.TempDir(), "cfg.ini")

	require.NoError(t, src.SetInt(schema.SectionOnvif, "http_port", 9090))
	require.NoError(t, src.SetBool(schema.SectionOnvif, "auth_enabled", true))
	require.NoError(t, src.SetString(schema.SectionDevice, "serial_number", "SN-42"))
	require.NoError(t, src.SetString(schema.SectionPTZPreset2, "preset1_name", "Front Door"))
	require.NoError(t, src.SetFloat(schema.SectionPTZPreset2, "preset1_pan", -12.25))
	require.NoError(t, src.SetFloat(schema.SectionPTZPreset2, "preset1_zoom", 0.333))
	require.NoError(t, src.SetInt(schema.SectionImaging, "hue", -180))
	require.NoError(t, engine.Save(path))

	dst, dstEngine := bootstrapped(t)
	require.NoError(t, dstEngine.Load(path))

	want, err := src.Export()
	require.NoError(t, err)
	got, err := dst.Export()
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		if want[i].Desc.Type == schema.Float {
			assert.InDelta(t, want[i].Value.AsFloat(), got[i].Value.AsFloat(), 0.005, want[i].Desc.Name())
			continue
		}
		assert.True(t, want[i].Value.Equal(got[i].Value), "%s: %v != %v",
			want[i].Desc.Name(), want[i].Value, got[i].Value)
	}
}

func TestSaveFormat(t *testing.T) {
	_, engine := bootstrapped(t)
	path := filepath.Join(t.TempDir(), "cfg.ini")
	require.NoError(t, engine.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasPrefix(text, "[onvif]\nenabled = 1\nhttp_port = 8080\n"))
	assert.Contains(t, text, "\n\n[network]\nrtsp_port = 554\n")
	assert.Contains(t, text, "preset1_pan = 0.00\n")
	assert.Contains(t, text, "[stream_profile_1]\nname = High Definition\n")
	assert.Equal(t, 1, strings.Count(text, "[device]"))
	assert.Equal(t, len(schema.Sections())-1, strings.Count(text, "\n\n["))
	assert.NoError(t, ValidateFile(path))
}

func TestSaveSkipsUnlinkedSections(t *testing.T) {
	cfg := config.New()
	cfg.Imaging = nil
	rt := runtime.New()
	require.NoError(t, rt.Bootstrap(cfg))
	path := filepath.Join(t.TempDir(), "cfg.ini")

	require.NoError(t, NewEngine(rt).Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "[imaging]")
	assert.Contains(t, string(data), "[imaging_auto]")
}

func TestSaveAfterShutdownFails(t *testing.T) {
	rt, engine := bootstrapped(t)
	require.NoError(t, rt.Shutdown())

	err := engine.Save(filepath.Join(t.TempDir(), "cfg.ini"))
	assert.True(t, cfgerr.IsKind(err, cfgerr.NotInitialized))
}

func TestShutdownPersistsThroughEngine(t *testing.T) {
	rt, engine := bootstrapped(t)
	path := filepath.Join(t.TempDir(), "etc", "cfg.ini")
	rt.SetPersister(engine, path)

	require.NoError(t, rt.SetString(schema.SectionDevice, "manufacturer", "Acme"))
	require.NoError(t, rt.Shutdown())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	device := text[strings.Index(text, "[device]"):]
	device = device[:strings.Index(device, "\n\n")]
	assert.Contains(t, device, "manufacturer = Acme\n")
}

func TestSerialize(t *testing.T) {
	settings := []schema.Setting{
		{Desc: schema.Find(schema.SectionOnvif, "http_port"), Value: schema.IntValue(80)},
		{Desc: schema.Find(schema.SectionOnvif, "auth_enabled"), Value: schema.BoolValue(true)},
		{Desc: schema.Find(schema.SectionPTZPreset1, "preset1_tilt"), Value: schema.FloatValue(-7.5)},
	}

	got := string(Serialize(settings))

	assert.Equal(t, "[onvif]\nhttp_port = 80\nauth_enabled = 1\n\n[ptz_preset_profile_1]\npreset1_tilt = -7.50\n", got)
}

package runtime

import (
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/camcfg/internal/cfgerr"
	"github.com/muurk/camcfg/internal/config"
	"github.com/muurk/camcfg/internal/metrics"
	"github.com/muurk/camcfg/internal/persistence"
	"github.com/muurk/camcfg/internal/schema"
)

// recordingSaver captures what a Save would have written
type recordingSaver struct {
	mu    sync.Mutex
	rt    *Runtime
	saves int
	last  []schema.Setting
	err   error
}

func (s *recordingSaver) Save(string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	settings, err := s.rt.Export()
	if err != nil {
		return err
	}
	s.saves++
	s.last = settings
	return nil
}

func newRuntime(t *testing.T, opts ...Option) (*Runtime, *recordingSaver) {
	t.Helper()
	rt := New(opts...)
	require.NoError(t, rt.Bootstrap(config.New()))
	saver := &recordingSaver{rt: rt}
	rt.SetPersister(saver, "/unused.ini")
	return rt, saver
}

// otherValue returns a valid value that differs from the default
func otherValue(d *schema.Descriptor) schema.Value {
	def := d.DefaultValue()
	switch d.Type {
	case schema.Bool:
		return schema.BoolValue(!def.AsBool())
	case schema.String:
		return schema.StringValue("changed")
	case schema.Float:
		if def.AsFloat() == d.Max {
			return schema.FloatValue(d.Min)
		}
		return schema.FloatValue(d.Max)
	default:
		if def.AsInt() == int(d.Max) {
			return schema.IntValue(int(d.Min))
		}
		return schema.IntValue(int(d.Max))
	}
}

func TestLifecycle(t *testing.T) {
	rt := New()

	assert.False(t, rt.Initialized())
	assert.Nil(t, rt.Snapshot())
	_, err := rt.GetInt(schema.SectionOnvif, "http_port")
	assert.True(t, cfgerr.IsKind(err, cfgerr.NotInitialized))
	assert.True(t, cfgerr.IsKind(rt.SetInt(schema.SectionOnvif, "http_port", 1), cfgerr.NotInitialized))
	assert.True(t, cfgerr.IsKind(rt.Shutdown(), cfgerr.NotInitialized))
	assert.True(t, cfgerr.IsKind(rt.Bootstrap(nil), cfgerr.InvalidParameter))

	require.NoError(t, rt.Bootstrap(config.New()))
	assert.True(t, cfgerr.IsKind(rt.Bootstrap(config.New()), cfgerr.AlreadyInitialized))

	require.NoError(t, rt.Shutdown())
	assert.True(t, cfgerr.IsKind(rt.Shutdown(), cfgerr.NotInitialized))
	assert.False(t, rt.Initialized())

	// a new lifecycle starts from generation zero
	require.NoError(t, rt.Bootstrap(config.New()))
	assert.Equal(t, uint32(0), rt.Generation())
}

func TestRoundTripEverySetting(t *testing.T) {
	rt, _ := newRuntime(t)

	for i, d := range schema.All() {
		want := otherValue(&d)
		require.NoError(t, rt.Set(d.Section, d.Key, want), d.Name())

		got, err := rt.Get(d.Section, d.Key)
		require.NoError(t, err, d.Name())
		assert.True(t, want.Equal(got), "%s: got %v want %v", d.Name(), got, want)
		assert.Equal(t, uint32(i+1), rt.Generation(), d.Name())
	}

	// more distinct keys than the queue holds; extra write-backs are dropped
	assert.Equal(t, persistence.DefaultCapacity, rt.PendingWrites())
}

func TestTypedAccessors(t *testing.T) {
	rt, _ := newRuntime(t)

	require.NoError(t, rt.SetInt(schema.SectionOnvif, "http_port", 9090))
	port, err := rt.GetInt(schema.SectionOnvif, "HTTP_PORT")
	require.NoError(t, err)
	assert.Equal(t, 9090, port)

	require.NoError(t, rt.SetBool(schema.SectionOnvif, "auth_enabled", true))
	n, err := rt.GetInt(schema.SectionOnvif, "auth_enabled")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, rt.SetBool(schema.SectionLogging, "http_verbose", true))
	on, err := rt.GetBool(schema.SectionLogging, "http_verbose")
	require.NoError(t, err)
	assert.True(t, on)

	f, err := rt.GetFloat(schema.SectionImaging, "hue")
	require.NoError(t, err)
	assert.Equal(t, 0.0, f)

	require.NoError(t, rt.SetFloat(schema.SectionPTZPreset1, "preset1_zoom", 0.5))
	f, err = rt.GetFloat(schema.SectionPTZPreset1, "preset1_zoom")
	require.NoError(t, err)
	assert.Equal(t, 0.5, f)

	require.NoError(t, rt.SetFloat(schema.SectionImaging, "brightness", 10))
	n, err = rt.GetInt(schema.SectionImaging, "brightness")
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	require.NoError(t, rt.SetString(schema.SectionDevice, "manufacturer", "Acme"))
	s, err := rt.GetString(schema.SectionDevice, "manufacturer")
	require.NoError(t, err)
	assert.Equal(t, "Acme", s)
}

func TestRejections(t *testing.T) {
	rt, _ := newRuntime(t)
	require.NoError(t, rt.SetInt(schema.SectionOnvif, "http_port", 9090))
	gen := rt.Generation()

	tests := []struct {
		name string
		call func() error
		kind cfgerr.Kind
	}{
		{"above max", func() error { return rt.SetInt(schema.SectionOnvif, "http_port", 70000) }, cfgerr.OutOfRange},
		{"below min", func() error { return rt.SetInt(schema.SectionOnvif, "http_port", 0) }, cfgerr.OutOfRange},
		{"fractional float into int", func() error { return rt.SetFloat(schema.SectionOnvif, "http_port", 80.5) }, cfgerr.InvalidParameter},
		{"string into int", func() error { return rt.SetString(schema.SectionOnvif, "http_port", "80") }, cfgerr.InvalidParameter},
		{"too long", func() error {
			return rt.SetString(schema.SectionOnvif, "username", strings.Repeat("u", 32))
		}, cfgerr.TooLong},
		{"newline", func() error { return rt.SetString(schema.SectionOnvif, "username", "a\nb") }, cfgerr.InvalidParameter},
		{"float nan", func() error { return rt.SetFloat(schema.SectionPTZPreset1, "preset1_pan", math.NaN()) }, cfgerr.OutOfRange},
		{"unknown key", func() error { return rt.SetInt(schema.SectionOnvif, "nope", 1) }, cfgerr.NotFound},
		{"empty key", func() error { return rt.SetInt(schema.SectionOnvif, "", 1) }, cfgerr.InvalidParameter},
		{"get wrong type", func() error {
			_, err := rt.GetString(schema.SectionOnvif, "http_port")
			return err
		}, cfgerr.InvalidParameter},
		{"get float of string", func() error {
			_, err := rt.GetFloat(schema.SectionDevice, "model")
			return err
		}, cfgerr.InvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.kind, cfgerr.KindOf(err))
		})
	}

	port, err := rt.GetInt(schema.SectionOnvif, "http_port")
	require.NoError(t, err)
	assert.Equal(t, 9090, port)
	assert.Equal(t, gen, rt.Generation())
}

func TestOutOfRangeErrorDetail(t *testing.T) {
	rt, _ := newRuntime(t)

	err := rt.SetInt(schema.SectionOnvif, "http_port", 70000)

	var cerr *cfgerr.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "set_int", cerr.Op)
	assert.Equal(t, "http_port", cerr.Key)
	assert.Equal(t, "70000", cerr.Value)
	assert.Equal(t, 65535.0, cerr.Max)
}

func TestUnlinkedSection(t *testing.T) {
	cfg := config.New()
	cfg.Imaging = nil
	rt := New()
	require.NoError(t, rt.Bootstrap(cfg))

	_, err := rt.GetInt(schema.SectionImaging, "brightness")
	assert.True(t, cfgerr.IsKind(err, cfgerr.NotFound))
	assert.True(t, cfgerr.IsKind(rt.SetInt(schema.SectionImaging, "brightness", 1), cfgerr.NotFound))

	settings, err := rt.Export()
	require.NoError(t, err)
	assert.Len(t, settings, schema.Len()-5)
}

func TestGenerationExhausted(t *testing.T) {
	rt, _ := newRuntime(t)
	rt.generation = math.MaxUint32

	err := rt.SetInt(schema.SectionOnvif, "http_port", 9000)
	assert.True(t, cfgerr.IsKind(err, cfgerr.ResourceLimit))
	assert.Equal(t, uint32(math.MaxUint32), rt.Generation())

	port, _ := rt.GetInt(schema.SectionOnvif, "http_port")
	assert.Equal(t, 8080, port)
}

func TestSetQueuesWriteBack(t *testing.T) {
	rt, _ := newRuntime(t)

	for _, p := range []int{9000, 9001, 9002} {
		require.NoError(t, rt.SetInt(schema.SectionOnvif, "http_port", p))
	}

	entries := rt.PendingEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, 9002, entries[0].Value.AsInt())
	assert.Equal(t, uint32(3), rt.Generation())
}

func TestFullQueueDoesNotFailSet(t *testing.T) {
	rt, _ := newRuntime(t, WithQueue(persistence.NewQueue(1)))

	require.NoError(t, rt.SetInt(schema.SectionOnvif, "http_port", 9000))
	require.NoError(t, rt.SetInt(schema.SectionNetwork, "rtsp_port", 8554))

	port, err := rt.GetInt(schema.SectionNetwork, "rtsp_port")
	require.NoError(t, err)
	assert.Equal(t, 8554, port)
	assert.Equal(t, 1, rt.PendingWrites())
}

func TestShutdownFlushes(t *testing.T) {
	rt, saver := newRuntime(t)
	require.NoError(t, rt.SetString(schema.SectionDevice, "manufacturer", "Acme"))

	require.NoError(t, rt.Shutdown())

	assert.Equal(t, 1, saver.saves)
	assert.Equal(t, 0, rt.PendingWrites())
	found := false
	for _, s := range saver.last {
		if s.Desc.Section == schema.SectionDevice && s.Desc.Key == "manufacturer" {
			found = true
			assert.Equal(t, "Acme", s.Value.AsString())
		}
	}
	assert.True(t, found)
}

func TestBootstrapDropsLateWriteBacks(t *testing.T) {
	q := persistence.NewQueue(persistence.DefaultCapacity)
	rt := New(WithQueue(q))
	require.NoError(t, rt.Bootstrap(config.New()))
	require.NoError(t, rt.Shutdown())

	// a setter that committed just before Shutdown enqueues after the clear
	require.NoError(t, q.Enqueue(schema.SectionOnvif, "http_port", schema.IntValue(9000)))
	require.Equal(t, 1, rt.PendingWrites())

	require.NoError(t, rt.Bootstrap(config.New()))
	assert.Equal(t, 0, rt.PendingWrites())
}

func TestTooLongReportsUsableLength(t *testing.T) {
	rt, _ := newRuntime(t)

	err := rt.SetString(schema.SectionDevice, "model", strings.Repeat("m", 64))
	require.True(t, cfgerr.IsKind(err, cfgerr.TooLong))
	assert.Contains(t, err.Error(), "length 64 exceeds 63")
}

func TestShutdownReportsFlushFailure(t *testing.T) {
	rt, saver := newRuntime(t)
	saver.err = errors.New("read-only")
	require.NoError(t, rt.SetInt(schema.SectionOnvif, "http_port", 9000))

	err := rt.Shutdown()

	require.ErrorIs(t, err, saver.err)
	assert.False(t, rt.Initialized())
	assert.Equal(t, 0, rt.PendingWrites())
}

func TestFlushRetainsOnFailure(t *testing.T) {
	rt, saver := newRuntime(t)
	require.NoError(t, rt.SetInt(schema.SectionOnvif, "http_port", 9000))

	saver.err = errors.New("busy")
	require.Error(t, rt.Flush())
	assert.Equal(t, 1, rt.PendingWrites())

	saver.err = nil
	require.NoError(t, rt.Flush())
	assert.Equal(t, 0, rt.PendingWrites())
}

func TestFlushWithoutPersister(t *testing.T) {
	rt := New()
	require.NoError(t, rt.Bootstrap(config.New()))
	assert.True(t, cfgerr.IsKind(rt.Flush(), cfgerr.InvalidParameter))
}

func TestSnapshotIsACopy(t *testing.T) {
	rt, _ := newRuntime(t)

	snap := rt.Snapshot()
	require.NotNil(t, snap)
	snap.Onvif.HTTPPort = 1
	snap.Device.Model = "tampered"

	port, _ := rt.GetInt(schema.SectionOnvif, "http_port")
	model, _ := rt.GetString(schema.SectionDevice, "model")
	assert.Equal(t, 8080, port)
	assert.Equal(t, "AK3918", model)
}

func TestApplyDefaults(t *testing.T) {
	rt, _ := newRuntime(t)
	require.NoError(t, rt.ApplyDefaults())
	assert.Equal(t, uint32(0), rt.Generation(), "no change, no bump")

	require.NoError(t, rt.SetInt(schema.SectionOnvif, "http_port", 9000))
	require.NoError(t, rt.SetString(schema.SectionDevice, "model", "X"))
	require.NoError(t, rt.Flush())

	require.NoError(t, rt.ApplyDefaults())

	assert.Equal(t, uint32(3), rt.Generation())
	port, _ := rt.GetInt(schema.SectionOnvif, "http_port")
	assert.Equal(t, 8080, port)
	assert.Equal(t, 2, rt.PendingWrites())
}

func TestConcurrentSetters(t *testing.T) {
	rt, _ := newRuntime(t)

	const workers, perWorker = 8, 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				assert.NoError(t, rt.SetInt(schema.SectionImaging, "brightness", (w*perWorker+i)%201-100))
				_, err := rt.GetInt(schema.SectionImaging, "brightness")
				assert.NoError(t, err)
				_ = rt.Generation()
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, uint32(workers*perWorker), rt.Generation())
	assert.Equal(t, 1, rt.PendingWrites())
}

func TestMetricsObserved(t *testing.T) {
	m := metrics.New()
	rt, _ := newRuntime(t, WithMetrics(m))

	require.NoError(t, rt.SetInt(schema.SectionOnvif, "http_port", 9000))
	require.Error(t, rt.SetInt(schema.SectionOnvif, "http_port", 70000))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `camcfg_mutations_total{section="onvif"} 1`)
	assert.Contains(t, body, `camcfg_rejections_total{kind="out of range"} 1`)
	assert.Contains(t, body, "camcfg_generation 1")
	assert.Contains(t, body, "camcfg_persistence_pending 1")
}

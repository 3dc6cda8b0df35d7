package runtime

import (
	"github.com/muurk/camcfg/internal/cfgerr"
	"github.com/muurk/camcfg/internal/config"
	"github.com/muurk/camcfg/internal/logging"
	"github.com/muurk/camcfg/internal/schema"
)

type profileField struct {
	key   string
	value schema.Value
}

func streamProfileFields(p config.StreamProfile) []profileField {
	return []profileField{
		{"name", schema.StringValue(p.Name)},
		{"width", schema.IntValue(p.Width)},
		{"height", schema.IntValue(p.Height)},
		{"fps", schema.IntValue(p.FPS)},
		{"bitrate", schema.IntValue(p.Bitrate)},
		{"gop_size", schema.IntValue(p.GOPSize)},
		{"profile", schema.IntValue(p.Profile)},
		{"codec_type", schema.IntValue(p.CodecType)},
		{"br_mode", schema.IntValue(p.BRMode)},
	}
}

// StreamProfileCount returns the number of stream profiles
func (r *Runtime) StreamProfileCount() int {
	return schema.StreamProfileCount
}

func profileSection(op string, index int) (schema.SectionID, error) {
	sec, ok := schema.StreamProfileSection(index)
	if !ok {
		return 0, cfgerr.New(cfgerr.InvalidParameter, op, "stream profile index %d out of range 0..%d",
			index, schema.StreamProfileCount-1)
	}
	return sec, nil
}

// GetStreamProfile returns a copy of the stream profile at index 0..3
func (r *Runtime) GetStreamProfile(index int) (config.StreamProfile, error) {
	const op = "get_stream_profile"
	sec, err := profileSection(op, index)
	if err != nil {
		return config.StreamProfile{}, r.reject(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.initialized {
		return config.StreamProfile{}, r.reject(&cfgerr.Error{Kind: cfgerr.NotInitialized, Op: op})
	}
	p := r.cfg.StreamProfiles[index]
	if p == nil {
		return config.StreamProfile{}, r.reject(&cfgerr.Error{Kind: cfgerr.NotFound, Op: op, Section: sec.String()})
	}
	return *p, nil
}

// SetStreamProfile replaces every field of the stream profile at index
// 0..3. All fields are validated first, so an invalid profile leaves the
// stored one untouched. The generation advances once.
func (r *Runtime) SetStreamProfile(index int, p config.StreamProfile) error {
	const op = "set_stream_profile"
	sec, err := profileSection(op, index)
	if err != nil {
		return r.reject(err)
	}

	fields := streamProfileFields(p)
	accepted := make([]schema.Setting, 0, len(fields))
	for _, f := range fields {
		d := schema.Find(sec, f.key)
		v, err := d.Accept(op, f.value)
		if err != nil {
			logging.LogRejectedField(sec.String(), f.key, f.value.String(), err)
			return r.reject(err)
		}
		accepted = append(accepted, schema.Setting{Desc: d, Value: v})
	}

	r.mu.Lock()
	if err := r.writableLocked(op); err != nil {
		r.mu.Unlock()
		return r.reject(err)
	}
	bindings := make([]*config.Binding, len(accepted))
	for i, s := range accepted {
		b, err := r.lookupLocked(sec, s.Desc.Key)
		if err != nil {
			r.mu.Unlock()
			return r.reject(withOp(err, op))
		}
		bindings[i] = b
	}
	for i, s := range accepted {
		bindings[i].Set(s.Value)
	}
	r.generation++
	gen := r.generation
	r.mu.Unlock()

	r.metrics.ObserveMutation(sec.String(), gen)
	for _, s := range accepted {
		r.enqueue(s.Desc, s.Value)
	}
	return nil
}

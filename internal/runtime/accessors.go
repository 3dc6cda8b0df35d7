package runtime

import (
	"github.com/muurk/camcfg/internal/cfgerr"
	"github.com/muurk/camcfg/internal/config"
	"github.com/muurk/camcfg/internal/logging"
	"github.com/muurk/camcfg/internal/schema"
)

// GetInt returns an Int or Bool setting as an int
func (r *Runtime) GetInt(section schema.SectionID, key string) (int, error) {
	v, err := r.get("get_int", section, key, schema.Int, schema.Bool)
	if err != nil {
		return 0, err
	}
	return v.AsInt(), nil
}

// GetBool returns a Bool or Int setting as a bool
func (r *Runtime) GetBool(section schema.SectionID, key string) (bool, error) {
	v, err := r.get("get_bool", section, key, schema.Bool, schema.Int)
	if err != nil {
		return false, err
	}
	return v.AsBool(), nil
}

// GetString returns a String setting
func (r *Runtime) GetString(section schema.SectionID, key string) (string, error) {
	v, err := r.get("get_string", section, key, schema.String)
	if err != nil {
		return "", err
	}
	return v.AsString(), nil
}

// GetFloat returns a Float setting, widening Int settings
func (r *Runtime) GetFloat(section schema.SectionID, key string) (float64, error) {
	v, err := r.get("get_float", section, key, schema.Float, schema.Int)
	if err != nil {
		return 0, err
	}
	return v.AsFloat(), nil
}

// Get returns any setting in its own type
func (r *Runtime) Get(section schema.SectionID, key string) (schema.Value, error) {
	return r.get("get", section, key)
}

// SetInt stores an Int or Bool setting
func (r *Runtime) SetInt(section schema.SectionID, key string, value int) error {
	return r.set("set_int", section, key, schema.IntValue(value))
}

// SetBool stores a Bool or Int setting
func (r *Runtime) SetBool(section schema.SectionID, key string, value bool) error {
	return r.set("set_bool", section, key, schema.BoolValue(value))
}

// SetString stores a String setting
func (r *Runtime) SetString(section schema.SectionID, key string, value string) error {
	return r.set("set_string", section, key, schema.StringValue(value))
}

// SetFloat stores a Float setting, or an Int setting when value is integral
func (r *Runtime) SetFloat(section schema.SectionID, key string, value float64) error {
	return r.set("set_float", section, key, schema.FloatValue(value))
}

// Set validates value against the setting's descriptor, stores it,
// advances the generation and queues the write-back
func (r *Runtime) Set(section schema.SectionID, key string, value schema.Value) error {
	return r.set("set", section, key, value)
}

func (r *Runtime) set(name string, section schema.SectionID, key string, value schema.Value) error {
	r.mu.Lock()
	if err := r.writableLocked(name); err != nil {
		r.mu.Unlock()
		return r.reject(err)
	}

	b, err := r.bindings.Lookup(section, key)
	if err != nil {
		r.mu.Unlock()
		return r.reject(withOp(err, name))
	}

	stored, err := b.Desc.Accept(name, value)
	if err != nil {
		r.mu.Unlock()
		logging.LogRejectedField(section.String(), key, value.String(), err)
		return r.reject(err)
	}

	b.Set(stored)
	r.generation++
	gen := r.generation
	desc := b.Desc
	r.mu.Unlock()

	r.metrics.ObserveMutation(desc.Section.String(), gen)
	r.enqueue(desc, stored)
	return nil
}

func (r *Runtime) get(op string, section schema.SectionID, key string, accept ...schema.Type) (schema.Value, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.initialized {
		return schema.Value{}, r.reject(&cfgerr.Error{Kind: cfgerr.NotInitialized, Op: op})
	}

	b, err := r.bindings.Lookup(section, key)
	if err != nil {
		return schema.Value{}, r.reject(withOp(err, op))
	}

	if len(accept) > 0 && !typeIn(b.Desc.Type, accept) {
		return schema.Value{}, r.reject(&cfgerr.Error{
			Kind: cfgerr.InvalidParameter, Op: op,
			Section: section.String(), Key: b.Desc.Key,
			Message: "type mismatch: setting is " + b.Desc.Type.String(),
		})
	}
	return b.Get(), nil
}

func typeIn(t schema.Type, set []schema.Type) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}

// lookupLocked is Lookup with the runtime lock already held
func (r *Runtime) lookupLocked(section schema.SectionID, key string) (*config.Binding, error) {
	return r.bindings.Lookup(section, key)
}

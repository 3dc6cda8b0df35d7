package runtime

import (
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/camcfg/internal/cfgerr"
	"github.com/muurk/camcfg/internal/config"
	"github.com/muurk/camcfg/internal/logging"
	"github.com/muurk/camcfg/internal/metrics"
	"github.com/muurk/camcfg/internal/persistence"
	"github.com/muurk/camcfg/internal/schema"
)

// Runtime serializes access to the live configuration
type Runtime struct {
	mu           sync.RWMutex
	cfg          *config.ApplicationConfig // nil until Bootstrap
	bindings     config.Bindings
	generation   uint32
	initialized  bool
	shuttingDown bool // set while Shutdown flushes; sets are refused

	queue   *persistence.Queue
	metrics *metrics.Metrics

	persistMu sync.Mutex
	saver     persistence.Saver
	path      string
}

// Option configures a Runtime
type Option func(*Runtime)

// WithQueue replaces the default persistence queue
func WithQueue(q *persistence.Queue) Option {
	return func(r *Runtime) { r.queue = q }
}

// WithMetrics enables instrumentation
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runtime) { r.metrics = m }
}

// New creates an uninitialized Runtime
func New(opts ...Option) *Runtime {
	r := &Runtime{}
	for _, opt := range opts {
		opt(r)
	}
	if r.queue == nil {
		r.queue = persistence.NewQueue(persistence.DefaultCapacity)
	}
	return r
}

// SetPersister sets where and how Flush writes the configuration
func (r *Runtime) SetPersister(s persistence.Saver, path string) {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()
	r.saver = s
	r.path = path
}

func (r *Runtime) persister() (persistence.Saver, string) {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()
	return r.saver, r.path
}

// Bootstrap binds cfg and makes the accessor usable. The caller must not
// touch cfg afterwards.
func (r *Runtime) Bootstrap(cfg *config.ApplicationConfig) error {
	if cfg == nil {
		return cfgerr.New(cfgerr.InvalidParameter, "bootstrap", "config is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return &cfgerr.Error{Kind: cfgerr.AlreadyInitialized, Op: "bootstrap"}
	}

	if stale := r.queue.Len(); stale > 0 {
		logging.Warn("Discarding write-backs left from a previous binding", zap.Int("entries", stale))
		r.queue.Clear()
	}
	r.metrics.SetPending(0)

	r.bindings = config.Link(cfg)
	r.cfg = cfg
	r.generation = 0
	r.initialized = true
	r.shuttingDown = false

	logging.Info("Configuration runtime initialized",
		zap.Int("settings", len(r.bindings)),
		zap.Int("linked", r.bindings.LinkedCount()),
	)
	return nil
}

// Shutdown flushes pending writes, unbinds the configuration and clears
// the queue. The runtime is unusable until the next Bootstrap. Shutdown
// always completes; a failed flush is returned after unbinding.
func (r *Runtime) Shutdown() error {
	r.mu.Lock()
	if !r.initialized || r.shuttingDown {
		r.mu.Unlock()
		return &cfgerr.Error{Kind: cfgerr.NotInitialized, Op: "shutdown"}
	}
	r.shuttingDown = true
	r.mu.Unlock()

	pending := r.queue.Len()
	logging.Info("Configuration runtime shutting down", zap.Int("pending_writes", pending))

	var flushErr error
	if saver, _ := r.persister(); saver != nil {
		flushErr = r.Flush()
	} else if pending > 0 {
		logging.Warn("No persister configured, discarding pending writes", zap.Int("pending_writes", pending))
	}

	r.mu.Lock()
	r.cfg = nil
	r.bindings = nil
	r.initialized = false
	r.shuttingDown = false
	r.mu.Unlock()

	r.queue.Clear()
	r.metrics.SetPending(0)
	return flushErr
}

// Initialized reports whether the runtime is bound to a configuration
func (r *Runtime) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// Generation returns the number of committed mutations since Bootstrap
func (r *Runtime) Generation() uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// Snapshot returns a deep copy of the live configuration, or nil when the
// runtime is not initialized
func (r *Runtime) Snapshot() *config.ApplicationConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.initialized {
		return nil
	}
	return r.cfg.Clone()
}

// Export returns every linked setting with its current value, in schema
// order, read under a single lock acquisition
func (r *Runtime) Export() ([]schema.Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.initialized {
		return nil, &cfgerr.Error{Kind: cfgerr.NotInitialized, Op: "export"}
	}

	out := make([]schema.Setting, 0, len(r.bindings))
	for i := range r.bindings {
		b := &r.bindings[i]
		if !b.Linked() {
			continue
		}
		out = append(out, schema.Setting{Desc: b.Desc, Value: b.Get()})
	}
	return out, nil
}

// Flush saves the configuration through the persister and drops the
// write-backs that save covered
func (r *Runtime) Flush() error {
	if !r.Initialized() {
		return &cfgerr.Error{Kind: cfgerr.NotInitialized, Op: "flush"}
	}
	saver, path := r.persister()
	if saver == nil {
		return cfgerr.New(cfgerr.InvalidParameter, "flush", "no persister configured")
	}

	start := time.Now()
	n, err := r.queue.Flush(saver, path)
	r.metrics.ObserveFlush(time.Since(start), err)
	r.metrics.SetPending(r.queue.Len())
	logging.LogFlush(n, path, err)
	return err
}

// PendingWrites returns the number of queued write-backs
func (r *Runtime) PendingWrites() int {
	return r.queue.Len()
}

// PendingEntries returns a copy of the queued write-backs
func (r *Runtime) PendingEntries() []persistence.Entry {
	return r.queue.Entries()
}

// ApplyDefaults resets every linked setting to its default. Changed
// settings are queued for write-back and the generation advances once.
func (r *Runtime) ApplyDefaults() error {
	r.mu.Lock()
	if err := r.writableLocked("apply_defaults"); err != nil {
		r.mu.Unlock()
		return err
	}

	var changed []schema.Setting
	for i := range r.bindings {
		b := &r.bindings[i]
		if !b.Linked() {
			continue
		}
		def := b.Desc.DefaultValue()
		if b.Get().Equal(def) {
			continue
		}
		b.Set(def)
		changed = append(changed, schema.Setting{Desc: b.Desc, Value: def})
	}
	if len(changed) == 0 {
		r.mu.Unlock()
		return nil
	}
	r.generation++
	gen := r.generation
	r.mu.Unlock()

	r.metrics.ObserveMutation("*", gen)
	for _, s := range changed {
		r.enqueue(s.Desc, s.Value)
	}
	logging.Info("Configuration reset to defaults", zap.Int("changed", len(changed)))
	return nil
}

// writableLocked checks that sets are allowed and the generation can
// still advance. r.mu must be held.
func (r *Runtime) writableLocked(op string) error {
	if !r.initialized || r.shuttingDown {
		return &cfgerr.Error{Kind: cfgerr.NotInitialized, Op: op}
	}
	if r.generation == math.MaxUint32 {
		return cfgerr.New(cfgerr.ResourceLimit, op, "generation counter exhausted")
	}
	return nil
}

func (r *Runtime) enqueue(d *schema.Descriptor, v schema.Value) {
	if err := r.queue.Enqueue(d.Section, d.Key, v); err != nil {
		logging.Warn("Configuration change not queued for persistence",
			zap.String("section", d.Section.String()),
			zap.String("key", d.Key),
			zap.Error(err),
		)
		r.metrics.ObserveDropped()
	}
	r.metrics.SetPending(r.queue.Len())
}

func (r *Runtime) reject(err error) error {
	r.metrics.ObserveRejection(cfgerr.KindOf(err).String())
	return err
}

// withOp stamps op on errors produced by lower layers
func withOp(err error, op string) error {
	var cerr *cfgerr.Error
	if errors.As(err, &cerr) {
		cerr.Op = op
	}
	return err
}

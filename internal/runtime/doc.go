// Package runtime is the thread-safe accessor over the live camera
// configuration.
//
// A Runtime owns the ApplicationConfig once Bootstrap succeeds. Protocol
// handlers read and write settings only through the typed Get* and Set*
// methods, which enforce the strict contract: an out-of-range number or an
// over-long string is rejected with a *cfgerr.Error describing the key,
// the value and the allowed range. Nothing is clamped.
//
// Every committed Set increments a generation counter. Dependent caches
// compare Generation() with the value they last saw instead of polling
// individual settings.
//
// # Locking
//
// Two locks are involved. The runtime lock guards the aggregate, the
// generation and the lifecycle state; the persistence queue has its own.
// A Set releases the runtime lock before it enqueues the write-back, so
// the two are never nested and no file I/O happens under the runtime lock.
//
// # Lifecycle
//
//	rt := runtime.New(runtime.WithMetrics(m))
//	if err := rt.Bootstrap(cfg); err != nil { ... }
//	engine := storage.NewEngine(rt)
//	rt.SetPersister(engine, path)
//	...
//	err := rt.Shutdown() // flushes, then unbinds
package runtime

// Package config holds the live camera configuration aggregate and the
// linker that connects it to the schema.
//
// ApplicationConfig is a plain struct. The ONVIF block is always present;
// every other block is an optional owned sub-struct. A nil sub-struct
// leaves its settings unlinked, and the runtime reports them as not found.
//
// # Linking
//
// Link walks the schema once and produces one Binding per descriptor, each
// a typed read/write pair over a field of the aggregate:
//
//	cfg := config.New()            // every block allocated, defaults applied
//	bindings := config.Link(cfg)
//	b, err := bindings.Lookup(schema.SectionOnvif, "http_port")
//	if err == nil {
//	    port := b.Get().AsInt()
//	}
//
// Link is not safe for concurrent use and must finish before any runtime
// accessor call. After that, only the runtime touches the aggregate.
//
// # File Location
//
// The INI file lives at /etc/jffs2/anyka_cfg.ini by default. The
// CAMCFG_CONFIG environment variable overrides it, and ResolvePath applies
// the usual precedence (flag, then environment, then default).
package config

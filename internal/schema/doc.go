// Package schema is the static registry of every camera setting.
//
// Each setting is described by a Descriptor: its section, key, value type,
// numeric bounds or maximum string length, textual default and whether it
// is required. The table is built once at package initialisation and never
// changes afterwards; callers receive read-only views of it.
//
// Lookups are linear and case-insensitive on the key:
//
//	d := schema.Find(schema.SectionOnvif, "HTTP_PORT")
//	if d == nil {
//	    // unknown setting, not an error at this layer
//	}
//
// Values travel between layers as the tagged union Value. Descriptor.Accept
// applies the strict validation contract (reject out-of-range or over-long
// input) and Descriptor.Clamp applies the tolerant one used at boot.
package schema

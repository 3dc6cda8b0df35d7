// Package storage translates between the INI configuration file and the
// runtime accessor.
//
// # File Format
//
//	# comment
//	[onvif]
//	enabled = 1
//	http_port = 8080      ; inline comment
//
//	[device]
//	manufacturer = Anyka
//
// Section and key names are case-insensitive, booleans are written as 0/1
// and floats with two decimals. Files larger than MaxFileSize are refused.
//
// # Loading
//
// Engine.Load is the strict loader used once the runtime is bootstrapped.
// Every key=value line is parsed according to its descriptor and applied
// through the runtime setter, so an out-of-range value is rejected and
// logged exactly like a protocol request would be. One bad line never
// aborts the load.
//
// # Saving
//
// Engine.Save rewrites the whole file from the schema in declaration order
// and commits it with AtomicWrite: the data goes to <path>.tmp, is synced
// and closed, then renamed over the target. A failure at any step removes
// the temporary file and leaves the previous file intact.
package storage

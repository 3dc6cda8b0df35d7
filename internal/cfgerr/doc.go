// Package cfgerr defines the error taxonomy shared by every layer of the
// camera configuration store.
//
// Each failure is reported as a *Error carrying a Kind plus enough detail
// (section, key, offending value, allowed range) for a protocol handler to
// build a precise fault without parsing message text:
//
//	if err := rt.SetInt(schema.SectionOnvif, "http_port", 70000); err != nil {
//	    var cerr *cfgerr.Error
//	    if errors.As(err, &cerr) && cerr.Kind == cfgerr.OutOfRange {
//	        // cerr.Min, cerr.Max describe the accepted range
//	    }
//	}
//
// Kinds can also be matched with errors.Is against the exported sentinels
// (ErrNotFound, ErrOutOfRange, ...), which compare by Kind only.
package cfgerr

// Package spill provides the out-of-core storage primitives of a conversion
// run: a bounded in-memory buffer that overflows to a backing file, and a
// read-ahead reader over such files.
//
// All backing files of a run are created through one [Session], which names
// them uniquely, charges them against the optional resource controller and
// reports their lifecycle to the logger and metrics collector:
//
//	s, err := spill.NewSession(func(o *spill.Options) {
//	    o.Dir = dir
//	    o.Registry = model.Registry()
//	})
//	buf := s.NewObjectBuffer()
//	defer buf.Close()
//
//	for _, rec := range records {
//	    if err := buf.Write(rec); err != nil {
//	        return err
//	    }
//	}
//	for {
//	    rec, err := buf.Read()
//	    if err != nil {
//	        return err
//	    }
//	    if rec == nil {
//	        break
//	    }
//	    // ...
//	}
//
// Buffers and readers are single-threaded. A Session may be shared by
// several of them.
package spill

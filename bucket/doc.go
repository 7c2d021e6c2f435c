// Package bucket sorts a heterogeneous record stream into homogeneous
// categories for batch output formats.
//
// Each record is routed by its [Key]: effective schema, geometry type and
// record type. Every bucket stores its records in a spill.ObjectBuffer, so
// only a bounded number per bucket stays in memory, and keeps a running
// bounding box, a bitmap of stream positions and an output path hint.
//
//	b := bucket.New(session)
//	defer b.Cleanup()
//
//	for rec := range records {
//	    if _, err := b.Add(rec, path); err != nil {
//	        return err
//	    }
//	}
//	if err := b.Close(); err != nil {
//	    return err
//	}
//	for _, key := range b.Keys() {
//	    buf, _ := b.Buffer(key)
//	    bounds, _ := b.Bounds(key)
//	    // write one output unit from buf.Read() until it returns nil
//	}
package bucket

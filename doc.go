// Package giscore provides the out-of-core persistence and bucketing engine
// used by batch geospatial format writers.
//
// Format writers read a single-pass stream of features but must know every
// category of feature, its count and its bounding box before the first byte
// of output is written. giscore collects the stream into per-category
// buffers that keep a bounded number of records in memory and spill the rest
// to temporary files, then hands the categories back for output.
//
// # Quick Start
//
//	eng, _ := giscore.Open(giscore.WithDir("/fast/tmp"))
//	defer eng.Close()
//
//	b, _ := eng.NewBucketer()
//	for f := range features {
//	    b.Add(f, "")
//	}
//	b.Close()
//
//	for _, key := range b.Keys() {
//	    buf, _ := b.Buffer(key)
//	    bounds, _ := b.Bounds(key)
//	    for rec, err := buf.Read(); rec != nil; rec, err = buf.Read() {
//	        // write rec
//	    }
//	}
//
// # Components
//
// Each component lives in its own package and can be used without the Engine:
//
//   - codec: the binary object codec every backing file uses
//   - spill: the session, the spill-to-disk ObjectBuffer and the read-ahead Reader
//   - sortmerge: an external sort of tuples with a single on-disk run
//   - bucket: the category bucketer with schema synthesis and bounds tracking
//   - model: schemas, rows, features and geometries understood by the bucketer
//
// # Resource Limits
//
// WithDiskLimit caps the bytes held by live backing files across the engine,
// and WithIOLimit throttles spill writes. Both are off by default.
//
// # Observability
//
// Operational counters go to a MetricsCollector; PrometheusCollector exports
// them to a prometheus.Registerer. Backing-file lifecycle events are logged at
// DEBUG through the engine Logger, cleanup failures at WARN.
package giscore

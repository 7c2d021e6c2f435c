// Package fs provides filesystem abstractions for backing files and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: Represents an open file with read/write/sync capabilities
//   - [FileSystem]: Abstracts the operations spill buffers and sort runs need
//     (create temp, open, remove, stat)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using standard os package
//   - [FaultyFS]: Test utility for fault injection (write, read, close and
//     remove failures)
//
// # Usage
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.CreateTemp(dir, "obj-*.buffer")
//
// Tests can inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".buffer", fs.Fault{FailAfterBytes: 1024, FailAfterReads: -1})
//	// inject ffs into the spill session under test
//
// # Design Notes
//
// This package does NOT include context.Context parameters. Local file
// operations are non-interruptible at the syscall level.
package fs

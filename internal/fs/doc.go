// Package fs abstracts the filesystem calls made by the codec so tests can
// inject faults.
//
// Production code uses [Default], a [LocalFS]. Tests wrap it in a
// [FaultyFS] to simulate a full disk or a failing fsync:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".mat", fs.Fault{FailAfterBytes: 64})
//
// Operations take no context.Context: local file calls are not
// interruptible at the syscall level. Remote storage lives in blobstore.
package fs

// Package fs abstracts the filesystem operations used to publish index files so that
// tests can inject write, sync and rename failures.
//
// Production code uses [Default]. Tests wrap it in a [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".crx", fs.Fault{FailAfterBytes: 4096})
//
// Filesystem calls here are short and not interruptible, so none take a context.
package fs

// Package mmap maps container files read-only for the local blob store.
//
//	m, err := mmap.Open("patches.mat")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessSequential)
//	header := m.Bytes()[:16]
//
// Unix uses mmap(2)/madvise(2); Windows uses CreateFileMapping and ignores
// access hints. Bytes must not be used after Close.
package mmap

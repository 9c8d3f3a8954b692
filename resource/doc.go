// Package resource bounds the memory, concurrency and IO bandwidth of bulk
// codec operations such as concatenating many source files or building a
// patch dataset.
//
// A nil *Controller is valid and imposes no limits.
package resource

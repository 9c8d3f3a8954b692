// Package matrix provides the typed n-dimensional arrays persisted by matio.
//
// A Matrix[T] has a fixed element kind and shape. Element types are limited
// to the closed Element set so every matrix maps onto exactly one Kind tag:
//
//	m := matrix.New[float32](3, 4)
//	m.Set(1.5, 0, 2)
//	row, _ := m.Narrow(0, 1, 1) // view of row 1, shares storage
//
// Any is the kind-erased interface used where matrices of different kinds
// travel together, e.g. the contents of a multi-matrix container. Use As to
// recover the typed matrix.
package matrix

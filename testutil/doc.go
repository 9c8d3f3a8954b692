// Package testutil provides fixtures for matio tests.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Matrices
//
//	rng := testutil.NewRNG(seed)
//	m := testutil.RandomMatrix[float32](rng, 3, 4)
//
// # Image Fixtures
//
//	path := testutil.WritePNG(t, dir, "cat.png", 32, 24, testutil.PatternGradient)
package testutil

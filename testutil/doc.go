// Package testutil generates deterministic site data for tests and benchmarks.
//
//	rng := testutil.NewRNG(42)
//	sites := rng.Sites(1000, 20)
//	path := testutil.WriteCSV(t, t.TempDir(), "sites.csv", sites, false)
//
// Mismatches gives the reference distance that packed-sequence results are checked
// against.
package testutil

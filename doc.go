// Package crisprs finds CRISPR off-target sites.
//
// Candidate sites are compiled once into an immutable binary index, then every site
// within a mismatch threshold of a query is found by an exhaustive parallel scan.
//
// # Quick Start
//
// Build an index from CSV site lists:
//
//	stats, err := crisprs.Build(ctx, index.BuildConfig{
//	    Inputs:   []string{"chr1-11.csv", "chr12-y.csv"},
//	    Output:   "grch38.crx",
//	    Assembly: "GRCh38",
//	    Species:  "Human",
//	})
//
// Open it (a path, file://, s3://, minio:// or mem:// location) and search:
//
//	db, err := crisprs.Open(ctx, "grch38.crx",
//	    crisprs.WithSearchOptions(search.WithThreshold(4)),
//	)
//	defer db.Close()
//
//	for res, err := range db.FindOffTargets(ctx, []uint64{873245}) {
//	    if err != nil {
//	        return err // cancelled
//	    }
//	    if res.Err != nil {
//	        continue // unknown id
//	    }
//	    for _, m := range res.Matches {
//	        fmt.Println(m.TargetID, m.Distance)
//	    }
//	}
//
// Range mode answers every id of a window:
//
//	for res, err := range db.FindOffTargetsRange(ctx, 1000, 500) { ... }
//
// Publish a built index to a blob store:
//
//	_, err := crisprs.Publish(ctx, "grch38.crx", "s3://genomes/grch38.crx")
//
// Lower-level packages: sequence (2-bit codec and distance), format (binary layout),
// index (builder and loader), search (scan engine), output (result writers) and
// blobstore (local, memory, S3 and MinIO storage).
package crisprs

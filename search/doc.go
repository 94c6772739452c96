// Package search finds off-target sites: every indexed site whose sequence is within a
// mismatch threshold of a query site.
//
// Each query is compared against the whole index. The index is split into contiguous
// shards that are scanned in parallel; shard results are concatenated in shard order,
// so matches always come out in index order. Queries are answered one after another,
// and results are yielded in query order.
//
//	eng, err := search.New(idx, search.WithThreshold(3))
//	for res, err := range eng.FindOffTargets(ctx, []uint64{1, 2}) {
//		if err != nil {
//			return err // cancelled
//		}
//		if res.Err != nil {
//			log.Print(res.Err) // unknown query, batch continues
//			continue
//		}
//		for _, m := range res.Matches { ... }
//	}
package search

// Package output renders off-target results.
//
// Four formats are provided: tab-separated match lines ("tsv"), one summary line per
// query ("summary"), JSON Lines ("jsonl") and a CBOR sequence ("cbor"). Per-query
// errors are never written to the result stream; they go to the configured logger.
package output

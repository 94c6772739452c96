package cli

import (
	"context"
	"iter"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/coronin/Crisprs"
	"github.com/coronin/Crisprs/api"
	"github.com/coronin/Crisprs/client"
	"github.com/coronin/Crisprs/output"
	"github.com/coronin/Crisprs/search"
)

type alignFlags struct {
	index  string
	start  uint64
	count  uint64
	remote string
}

// queries is the parsed query selection of align.
type queries struct {
	ids          []uint64
	start, count uint64
}

func (q queries) isRange() bool { return q.start != 0 && q.count != 0 }

func (a *app) newAlignCmd() *cobra.Command {
	var f alignFlags
	cmd := &cobra.Command{
		Use:   "align -i INDEX (-s START -n COUNT | ID [ID ...])",
		Short: "Find potential off-targets for CRISPR sites",
		Long: `Find every indexed site within the mismatch threshold of each query site.

Queries are either a list of site ids or the window START..START+COUNT-1; the
window takes precedence when both -s and -n are non-zero. INDEX may be a path
or a file://, s3://, minio:// or mem:// location. With --remote the search runs
on a crisprs service instead.`,
		Example: `  crisprs align -i index.crx 873245 > off_targets.tsv
  crisprs align -i s3://genomes/grch38.crx -s 1000 -n 500 -f summary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQueries(f, args)
			if err != nil {
				return err
			}
			if f.index == "" && f.remote == "" {
				return usageErrorf("missing required option -i")
			}

			if f.remote != "" {
				return a.alignRemote(cmd.Context(), f.remote, q)
			}
			return a.alignLocal(cmd.Context(), f.index, q)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.index, "index", "i", "", "index file or location")
	fl.Uint64VarP(&f.start, "start", "s", 0, "first id of a query window")
	fl.Uint64VarP(&f.count, "num", "n", 0, "number of ids in the query window")
	fl.IntP("threshold", "t", search.DefaultThreshold, "maximum mismatches reported")
	fl.IntP("workers", "w", 0, "scan goroutines (default GOMAXPROCS)")
	fl.StringP("format", "f", output.FormatTSV, "output format: tsv, summary, jsonl, cbor")
	fl.Bool("both-strands", false, "also compare the reverse complement of each query")
	fl.Bool("exclude-self", false, "do not report a query's match with itself")
	fl.Int("max-matches", 0, "matches kept per query, 0 for all")
	fl.StringVar(&f.remote, "remote", "", "base URL of a crisprs service")
	a.bind(fl, "search.threshold", "threshold")
	a.bind(fl, "search.workers", "workers")
	a.bind(fl, "search.format", "format")
	a.bind(fl, "search.both-strands", "both-strands")
	a.bind(fl, "search.exclude-self", "exclude-self")
	a.bind(fl, "search.max-matches", "max-matches")
	return cmd
}

func parseQueries(f alignFlags, args []string) (queries, error) {
	q := queries{start: f.start, count: f.count}
	if q.isRange() {
		return q, nil
	}
	if len(args) == 0 {
		return q, usageErrorf("give query ids or both -s and -n")
	}
	q.ids = make([]uint64, len(args))
	for i, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return q, usageErrorf("invalid query id %q", arg)
		}
		q.ids[i] = id
	}
	return q, nil
}

// newWriter returns the writer for the configured format. Failed queries are logged by
// the writer only when logFailures is set; a local DB logs them itself.
func (a *app) newWriter(speciesID *uint16, logFailures bool) (output.Writer, error) {
	var opts output.Options
	if logFailures {
		opts.Logger = a.log.Logger
	}
	if speciesID != nil {
		opts.SpeciesID, opts.HasSpeciesID = *speciesID, true
	}
	return output.New(a.cfg.Search.Format, a.streams.Out, opts)
}

func (a *app) alignLocal(ctx context.Context, location string, q queries) error {
	db, err := crisprs.Open(ctx, location,
		crisprs.WithLogger(a.log),
		crisprs.WithResolver(a.cfg.Resolver()),
		crisprs.WithSearchOptions(a.cfg.SearchOptions()...),
	)
	if err != nil {
		return err
	}
	defer db.Close()

	var speciesID *uint16
	if m := db.Metadata(); m.HasSpeciesID {
		speciesID = &m.SpeciesID
	}
	w, err := a.newWriter(speciesID, false)
	if err != nil {
		return err
	}

	var results iter.Seq2[search.QueryResult, error]
	if q.isRange() {
		results = db.FindOffTargetsRange(ctx, q.start, q.count)
	} else {
		results = db.FindOffTargets(ctx, q.ids)
	}
	return a.drain(results, w)
}

func (a *app) alignRemote(ctx context.Context, baseURL string, q queries) error {
	c := client.New(baseURL)
	req := api.OffTargetRequest{IDs: q.ids}
	if q.isRange() {
		req = api.OffTargetRequest{Start: q.start, Count: q.count}
	}
	info, err := c.Index(ctx)
	if err != nil {
		return err
	}
	var speciesID *uint16
	if info.SpeciesID != nil {
		id := uint16(*info.SpeciesID)
		speciesID = &id
	}
	w, err := a.newWriter(speciesID, true)
	if err != nil {
		return err
	}

	results := func(yield func(search.QueryResult, error) bool) {
		for doc, err := range c.FindOffTargets(ctx, req) {
			if err != nil {
				yield(search.QueryResult{}, err)
				return
			}
			res, err := doc.QueryResult()
			if !yield(res, err) || err != nil {
				return
			}
		}
	}
	return a.drain(results, w)
}

// drain writes every result in order. Failed queries are counted; they do not stop
// the batch.
func (a *app) drain(results iter.Seq2[search.QueryResult, error], w output.Writer) error {
	answered, failed := 0, 0
	for res, err := range results {
		if err != nil {
			_ = w.Flush()
			return err
		}
		if res.Err != nil {
			failed++
		} else {
			answered++
		}
		if err := w.WriteResult(res); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		a.log.Warn("some queries were skipped", "answered", answered, "failed", failed)
	}
	return nil
}

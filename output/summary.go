package output

import (
	"strconv"

	"github.com/coronin/Crisprs/search"
)

// summaryWriter writes one line per query:
//
//	query_id  species_id  {id,id,...}  {0: n, 1: n, ...}
//
// Missing values and oversized id lists are written as \N.
type summaryWriter struct {
	base
	line []byte
}

func (s *summaryWriter) WriteResult(res search.QueryResult) error {
	if s.skip(res) {
		return nil
	}
	b := s.line[:0]
	b = strconv.AppendUint(b, res.QueryID, 10)
	b = append(b, '\t')
	if s.opts.HasSpeciesID {
		b = strconv.AppendUint(b, uint64(s.opts.SpeciesID), 10)
	} else {
		b = append(b, `\N`...)
	}
	b = append(b, '\t')
	if res.Truncated || len(res.Matches) > MaxSummaryIDs {
		b = append(b, `\N`...)
	} else {
		b = append(b, '{')
		for i, m := range res.Matches {
			if i > 0 {
				b = append(b, ',')
			}
			b = strconv.AppendUint(b, m.TargetID, 10)
		}
		b = append(b, '}')
	}
	b = append(b, '\t', '{')
	for d, n := range res.Summary {
		if d > 0 {
			b = append(b, ", "...)
		}
		b = strconv.AppendInt(b, int64(d), 10)
		b = append(b, ": "...)
		b = strconv.AppendInt(b, int64(n), 10)
	}
	b = append(b, '}', '\n')
	s.line = b
	_, err := s.w.Write(b)
	return err
}

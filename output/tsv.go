package output

import (
	"strconv"

	"github.com/coronin/Crisprs/search"
)

// tsvWriter writes one line per match:
// query_id target_id distance chr start strand orientation.
type tsvWriter struct {
	base
	line []byte
}

func (t *tsvWriter) WriteResult(res search.QueryResult) error {
	if t.skip(res) {
		return nil
	}
	for _, m := range res.Matches {
		b := t.line[:0]
		b = strconv.AppendUint(b, m.QueryID, 10)
		b = append(b, '\t')
		b = strconv.AppendUint(b, m.TargetID, 10)
		b = append(b, '\t')
		b = strconv.AppendInt(b, int64(m.Distance), 10)
		b = append(b, '\t')
		b = append(b, m.Target.Contig...)
		b = append(b, '\t')
		b = strconv.AppendUint(b, uint64(m.Target.Start), 10)
		b = append(b, '\t')
		b = append(b, m.Target.Strand.String()...)
		b = append(b, '\t')
		b = append(b, orientation(m.Reverse)...)
		b = append(b, '\n')
		t.line = b
		if _, err := t.w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

package output

import (
	"errors"
	"fmt"

	"github.com/coronin/Crisprs/format"
	"github.com/coronin/Crisprs/search"
	"github.com/coronin/Crisprs/sequence"
)

// Site is the serialized form of a site record.
type Site struct {
	ID     uint64 `json:"id" cbor:"id"`
	Contig string `json:"chr" cbor:"chr"`
	Start  uint32 `json:"start" cbor:"start"`
	Strand string `json:"strand" cbor:"strand"`
	Seq    string `json:"seq" cbor:"seq"`
	PAM    string `json:"pam,omitempty" cbor:"pam,omitempty"`
	Flags  uint8  `json:"flags,omitempty" cbor:"flags,omitempty"`
}

// Match is the serialized form of one off-target.
type Match struct {
	TargetID    uint64 `json:"target_id" cbor:"target_id"`
	Distance    int    `json:"distance" cbor:"distance"`
	Orientation string `json:"orientation" cbor:"orientation"`
	Target      Site   `json:"target" cbor:"target"`
}

// Result is the serialized form of a query result.
type Result struct {
	QueryID   uint64  `json:"query_id" cbor:"query_id"`
	Query     *Site   `json:"query,omitempty" cbor:"query,omitempty"`
	Matches   []Match `json:"matches" cbor:"matches"`
	Summary   []int   `json:"summary" cbor:"summary"`
	Truncated bool    `json:"truncated,omitempty" cbor:"truncated,omitempty"`
	Error     string  `json:"error,omitempty" cbor:"error,omitempty"`
}

// NewSite converts a record.
func NewSite(r format.Record) Site {
	return Site{
		ID:     r.ID,
		Contig: r.Contig,
		Start:  r.Start,
		Strand: r.Strand.String(),
		Seq:    r.Seq.String(),
		PAM:    r.PAM,
		Flags:  r.Flags,
	}
}

// NewResult converts a query result. A failed query keeps only its id and error.
func NewResult(res search.QueryResult) Result {
	out := Result{QueryID: res.QueryID}
	if res.Err != nil {
		out.Error = res.Err.Error()
		return out
	}
	if res.Query.Seq.Len() > 0 {
		q := NewSite(res.Query)
		out.Query = &q
	}
	out.Matches = make([]Match, len(res.Matches))
	for i, m := range res.Matches {
		out.Matches[i] = Match{
			TargetID:    m.TargetID,
			Distance:    m.Distance,
			Orientation: orientation(m.Reverse),
			Target:      NewSite(m.Target),
		}
	}
	out.Summary = res.Summary
	out.Truncated = res.Truncated
	return out
}

// QueryResult converts a decoded result back into its in-memory form. Sequences are
// re-encoded, so a malformed document yields an error.
func (r Result) QueryResult() (search.QueryResult, error) {
	out := search.QueryResult{QueryID: r.QueryID, Summary: r.Summary, Truncated: r.Truncated}
	if r.Error != "" {
		out.Err = errors.New(r.Error)
		return out, nil
	}
	if r.Query != nil {
		q, err := r.Query.Record()
		if err != nil {
			return search.QueryResult{}, fmt.Errorf("query %d: %w", r.QueryID, err)
		}
		out.Query = q
	}
	out.Matches = make([]search.Match, len(r.Matches))
	for i, m := range r.Matches {
		target, err := m.Target.Record()
		if err != nil {
			return search.QueryResult{}, fmt.Errorf("query %d target %d: %w", r.QueryID, m.TargetID, err)
		}
		out.Matches[i] = search.Match{
			QueryID:  r.QueryID,
			TargetID: m.TargetID,
			Distance: m.Distance,
			Reverse:  m.Orientation == "rev",
			Target:   target,
		}
	}
	return out, nil
}

// Record converts a decoded site back into a record.
func (s Site) Record() (format.Record, error) {
	strand, err := format.ParseStrand(s.Strand)
	if err != nil {
		return format.Record{}, err
	}
	seq, err := sequence.Encode(s.Seq, len(s.Seq))
	if err != nil {
		return format.Record{}, err
	}
	return format.Record{
		ID:     s.ID,
		Contig: s.Contig,
		Start:  s.Start,
		Strand: strand,
		Flags:  s.Flags,
		PAM:    s.PAM,
		Seq:    seq,
	}, nil
}

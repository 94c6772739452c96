package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/coronin/Crisprs/search"
)

// Format names.
const (
	FormatTSV     = "tsv"
	FormatSummary = "summary"
	FormatJSONL   = "jsonl"
	FormatCBOR    = "cbor"
)

// MaxSummaryIDs is the largest id list a summary line carries; above it the list is
// written as \N.
const MaxSummaryIDs = 2000

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Writer receives query results in order.
type Writer interface {
	WriteResult(res search.QueryResult) error
	Flush() error
}

// Options configures a Writer.
type Options struct {
	// SpeciesID is written by the summary format when HasSpeciesID is set.
	SpeciesID    uint16
	HasSpeciesID bool
	// Logger receives per-query errors. Nil discards them.
	Logger *slog.Logger
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{FormatTSV, FormatSummary, FormatJSONL, FormatCBOR}
}

// New returns a Writer for the named format writing to w.
func New(format string, w io.Writer, opts Options) (Writer, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	bw := bufio.NewWriterSize(w, 64<<10)
	base := base{w: bw, opts: opts}
	switch format {
	case FormatTSV, "":
		return &tsvWriter{base: base}, nil
	case FormatSummary:
		return &summaryWriter{base: base}, nil
	case FormatJSONL:
		return newJSONLWriter(base), nil
	case FormatCBOR:
		return newCBORWriter(base), nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownFormat, format, Formats())
	}
}

// IsValidFormat reports whether New accepts format.
func IsValidFormat(format string) bool {
	return slices.Contains(Formats(), format)
}

type base struct {
	w    *bufio.Writer
	opts Options
}

func (b *base) Flush() error { return b.w.Flush() }

// skip logs res.Err and reports whether the result has nothing to write.
func (b *base) skip(res search.QueryResult) bool {
	if res.Err == nil {
		return false
	}
	b.opts.Logger.Warn("query failed", "query_id", res.QueryID, "error", res.Err)
	return true
}

func orientation(reverse bool) string {
	if reverse {
		return "rev"
	}
	return "fwd"
}

package index

import (
	"io"
	"log/slog"
	"os"

	"github.com/coronin/Crisprs/internal/fs"
	"github.com/coronin/Crisprs/sequence"
)

const (
	// DefaultPAMWidth fits the NGG PAM of SpCas9.
	DefaultPAMWidth = 3
	// DefaultFirstID is the identifier given to the first site under the sequential policy.
	DefaultFirstID = 1
)

// IDPolicy selects where record identifiers come from.
type IDPolicy int

const (
	// Sequential numbers records from FirstID in input order.
	Sequential IDPolicy = iota
	// External takes the identifier from the first CSV column.
	External
)

func (p IDPolicy) String() string {
	if p == External {
		return "external"
	}
	return "sequential"
}

// BuildConfig describes one index build.
type BuildConfig struct {
	// Inputs are CSV site lists, concatenated in order. "-" is standard input.
	Inputs []string
	// Output is the path of the index file to create or replace.
	Output string

	Assembly string
	Species  string
	// SpeciesID is stored only when HasSpeciesID is set.
	SpeciesID    uint16
	HasSpeciesID bool

	// SeqLength is the number of bases per site. Zero selects sequence.DefaultLength.
	SeqLength int
	// PAMWidth is the width of the stored PAM. Zero selects DefaultPAMWidth.
	PAMWidth int
	// NoPAM drops the PAM field; any PAM column in the input is ignored.
	NoPAM bool

	IDPolicy IDPolicy
	// FirstID is the first sequential identifier. Zero selects DefaultFirstID.
	FirstID uint64

	// FS is the filesystem the output is written through. Nil selects the local disk.
	FS fs.FileSystem
	// Stdin is read for the input "-". Nil selects os.Stdin.
	Stdin  io.Reader
	Logger *slog.Logger
}

func (c BuildConfig) withDefaults() BuildConfig {
	if c.SeqLength == 0 {
		c.SeqLength = sequence.DefaultLength
	}
	switch {
	case c.NoPAM:
		c.PAMWidth = 0
	case c.PAMWidth == 0:
		c.PAMWidth = DefaultPAMWidth
	}
	if c.FirstID == 0 {
		c.FirstID = DefaultFirstID
	}
	if c.FS == nil {
		c.FS = fs.Default
	}
	if c.Stdin == nil {
		c.Stdin = os.Stdin
	}
	if c.Logger == nil {
		c.Logger = discardLogger()
	}
	return c
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type openOptions struct {
	logger   *slog.Logger
	prefetch bool
}

// Option configures Open, OpenBlob and FromBytes.
type Option func(*openOptions)

// WithLogger sets the logger used while loading.
func WithLogger(l *slog.Logger) Option {
	return func(o *openOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPrefetch asks the kernel to read the whole mapped file ahead of the first scan.
func WithPrefetch(enabled bool) Option {
	return func(o *openOptions) { o.prefetch = enabled }
}

func applyOptions(opts []Option) openOptions {
	o := openOptions{logger: discardLogger()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

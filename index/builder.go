package index

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"golang.org/x/time/rate"

	"github.com/coronin/Crisprs/format"
	"github.com/coronin/Crisprs/internal/fs"
)

const (
	progressInterval = 5 * time.Second
	cancelCheckEvery = 4096
)

// FileStats counts the records read from one input.
type FileStats struct {
	Path    string
	Records uint64
}

// BuildStats summarises a finished build.
type BuildStats struct {
	Output   string
	Files    []FileStats
	Records  uint64
	Bytes    int64
	Dense    bool
	Duration time.Duration
}

// Build reads cfg.Inputs and writes the index to cfg.Output.
//
// The output is written to a temporary file next to cfg.Output and renamed over it only
// after every record was encoded and the file was synced. On any error no file is left
// at cfg.Output (an existing file there is kept unchanged).
func Build(ctx context.Context, cfg BuildConfig) (BuildStats, error) {
	cfg = cfg.withDefaults()
	if len(cfg.Inputs) == 0 {
		return BuildStats{}, ErrNoInputs
	}
	if cfg.Output == "" {
		return BuildStats{}, errors.New("no output path")
	}
	layout, err := format.NewLayout(cfg.SeqLength, cfg.PAMWidth)
	if err != nil {
		return BuildStats{}, err
	}

	b := &builder{
		cfg:      cfg,
		layout:   layout,
		log:      cfg.Logger.With("output", cfg.Output),
		progress: rate.Sometimes{Interval: progressInterval},
	}
	if cfg.IDPolicy == External {
		b.seen = roaring64.New()
	}

	start := time.Now()
	err = fs.WriteFileAtomic(cfg.FS, cfg.Output, 0o644, func(f fs.File) error {
		return b.write(ctx, f)
	})
	if err != nil {
		b.log.Error("index build failed", "records", b.count, "error", err)
		return BuildStats{}, err
	}

	stats := BuildStats{
		Output:   cfg.Output,
		Files:    b.files,
		Records:  b.count,
		Bytes:    int64(format.HeaderSize) + int64(b.count)*int64(layout.Size()),
		Dense:    b.dense,
		Duration: time.Since(start),
	}
	b.log.Info("index built",
		"records", stats.Records,
		"files", len(stats.Files),
		"bytes", stats.Bytes,
		"dense", stats.Dense,
		"duration", stats.Duration,
	)
	return stats, nil
}

type builder struct {
	cfg      BuildConfig
	layout   format.Layout
	log      *slog.Logger
	progress rate.Sometimes

	seen    *roaring64.Bitmap
	files   []FileStats
	count   uint64
	firstID uint64
	nextID  uint64
	dense   bool
}

func (b *builder) write(ctx context.Context, f fs.File) error {
	w := bufio.NewWriterSize(f, 256<<10)
	if _, err := w.Write(make([]byte, format.HeaderSize)); err != nil {
		return err
	}

	b.firstID = b.cfg.FirstID
	b.nextID = b.cfg.FirstID
	b.dense = true

	buf := make([]byte, 0, b.layout.Size())
	for _, name := range b.cfg.Inputs {
		n, err := b.writeInput(ctx, w, name, buf)
		b.files = append(b.files, FileStats{Path: displayName(name), Records: n})
		if err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	header, err := format.EncodeHeader(format.Metadata{
		Assembly:     b.cfg.Assembly,
		Species:      b.cfg.Species,
		SpeciesID:    b.cfg.SpeciesID,
		HasSpeciesID: b.cfg.HasSpeciesID,
		SeqLength:    b.cfg.SeqLength,
		PAMWidth:     b.cfg.PAMWidth,
		NumSeqs:      b.count,
		FirstID:      b.firstID,
		DenseIDs:     b.dense,
		ExternalIDs:  b.cfg.IDPolicy == External,
	})
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err = f.Write(header)
	return err
}

func (b *builder) writeInput(ctx context.Context, w io.Writer, name string, buf []byte) (uint64, error) {
	in, err := openInput(name, b.cfg.Stdin)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	sr := newSiteReader(displayName(name), in, b.cfg.IDPolicy, b.cfg.SeqLength, b.cfg.PAMWidth)
	var n uint64
	for {
		rec, err := sr.next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}

		if err := b.assignID(&rec); err != nil {
			return n, &MalformedRecordError{File: sr.name, Line: sr.line, Err: err}
		}
		buf, err = b.layout.Append(buf[:0], rec)
		if err != nil {
			return n, &MalformedRecordError{File: sr.name, Line: sr.line, Err: err}
		}
		if _, err := w.Write(buf); err != nil {
			return n, err
		}
		n++
		b.count++

		if b.count%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}
		b.progress.Do(func() {
			b.log.Info("indexing", "file", sr.name, "line", sr.line, "records", b.count)
		})
	}
}

func (b *builder) assignID(rec *format.Record) error {
	if b.cfg.IDPolicy == Sequential {
		rec.ID = b.nextID
		b.nextID++
		return nil
	}

	if !b.seen.CheckedAdd(rec.ID) {
		return fmt.Errorf("%w: %d", ErrDuplicateID, rec.ID)
	}
	if b.count == 0 {
		b.firstID = rec.ID
	} else if b.dense && rec.ID != b.firstID+b.count {
		b.dense = false
	}
	return nil
}

func displayName(name string) string {
	if name == stdinName {
		return "<stdin>"
	}
	return name
}

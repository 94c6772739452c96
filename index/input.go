package index

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/coronin/Crisprs/format"
	"github.com/coronin/Crisprs/sequence"
)

const stdinName = "-"

// openInput opens a site list, decompressing by file suffix.
func openInput(name string, stdin io.Reader) (io.ReadCloser, error) {
	var raw io.ReadCloser
	if name == stdinName {
		raw = io.NopCloser(stdin)
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		raw = f
	}
	buffered := bufio.NewReaderSize(raw, 256<<10)

	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(buffered)
		if err != nil {
			raw.Close()
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return stackedCloser{Reader: zr, closers: []io.Closer{zr, raw}}, nil
	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(buffered)
		if err != nil {
			raw.Close()
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		rc := zr.IOReadCloser()
		return stackedCloser{Reader: rc, closers: []io.Closer{rc, raw}}, nil
	case strings.HasSuffix(name, ".lz4"):
		return stackedCloser{Reader: lz4.NewReader(buffered), closers: []io.Closer{raw}}, nil
	default:
		return stackedCloser{Reader: buffered, closers: []io.Closer{raw}}, nil
	}
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s stackedCloser) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// siteReader parses CSV site lines into records.
type siteReader struct {
	name     string
	r        *csv.Reader
	policy   IDPolicy
	seqLen   int
	pamWidth int
	line     int
}

func newSiteReader(name string, r io.Reader, policy IDPolicy, seqLen, pamWidth int) *siteReader {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &siteReader{name: name, r: cr, policy: policy, seqLen: seqLen, pamWidth: pamWidth}
}

// next returns the next record. The ID of a sequential record is left zero.
func (s *siteReader) next() (format.Record, error) {
	fields, err := s.r.Read()
	if err != nil {
		if err == io.EOF {
			return format.Record{}, io.EOF
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return format.Record{}, &MalformedRecordError{File: s.name, Line: pe.Line, Err: pe.Err}
		}
		return format.Record{}, fmt.Errorf("%s: %w", s.name, err)
	}
	s.line, _ = s.r.FieldPos(0)

	rec, err := s.parse(fields)
	if err != nil {
		return format.Record{}, &MalformedRecordError{File: s.name, Line: s.line, Err: err}
	}
	return rec, nil
}

func (s *siteReader) parse(fields []string) (format.Record, error) {
	var rec format.Record

	if s.policy == External {
		if len(fields) == 0 {
			return rec, errors.New("missing identifier")
		}
		id, err := strconv.ParseUint(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			return rec, fmt.Errorf("identifier %q: %w", fields[0], err)
		}
		rec.ID = id
		fields = fields[1:]
	}
	if len(fields) < 4 || len(fields) > 6 {
		return rec, fmt.Errorf("expected 4 to 6 site fields, got %d", len(fields))
	}

	rec.Contig = strings.TrimSpace(fields[0])
	if rec.Contig == "" {
		return rec, errors.New("empty contig")
	}
	if len(rec.Contig) > format.ContigWidth {
		return rec, fmt.Errorf("%w: contig %q exceeds %d bytes", format.ErrFieldTooLong, rec.Contig, format.ContigWidth)
	}

	start, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 32)
	if err != nil {
		return rec, fmt.Errorf("start %q: %w", fields[1], err)
	}
	rec.Start = uint32(start)

	if rec.Strand, err = format.ParseStrand(fields[2]); err != nil {
		return rec, err
	}

	if rec.Seq, err = sequence.Encode(strings.TrimSpace(fields[3]), s.seqLen); err != nil {
		return rec, err
	}

	if len(fields) > 4 && s.pamWidth > 0 {
		pam := strings.ToUpper(strings.TrimSpace(fields[4]))
		if len(pam) > s.pamWidth {
			return rec, fmt.Errorf("%w: pam %q exceeds %d bytes", format.ErrFieldTooLong, pam, s.pamWidth)
		}
		if _, err := sequence.Encode(pam, len(pam)); pam != "" && err != nil {
			return rec, fmt.Errorf("pam: %w", err)
		}
		rec.PAM = pam
	}

	if len(fields) > 5 {
		flags, err := strconv.ParseUint(strings.TrimSpace(fields[5]), 0, 8)
		if err != nil {
			return rec, fmt.Errorf("flags %q: %w", fields[5], err)
		}
		rec.Flags = uint8(flags)
	}
	return rec, nil
}

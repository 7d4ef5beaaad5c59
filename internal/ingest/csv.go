package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/ignite/user-ingest/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RecordVisitor receives each decoded data row. A non-nil readErr means the
// line itself was malformed and rec is nil.
type RecordVisitor func(rec domain.RawRecord, readErr error)

// ReadRecords decodes CSV content whose first line is the header and calls
// visit once per data line, in file order. Malformed lines are passed to
// visit as errors; only a bad header or a failing reader stops the scan. An
// empty input yields no calls.
func ReadRecords(r io.Reader, visit RecordVisitor) error {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return err
			}
			visit(nil, err)
			continue
		}
		visit(toRecord(header, row), nil)
	}
}

// toRecord pairs header names with row values. Columns missing from a short
// row are absent from the record; extra trailing values are ignored. With
// duplicate header names the last column wins.
func toRecord(header, row []string) domain.RawRecord {
	rec := make(domain.RawRecord, len(header))
	for i, name := range header {
		if i >= len(row) {
			break
		}
		rec[name] = row[i]
	}
	return rec
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if peek, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(peek, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"spatialgrid/internal/model"
)

var ErrMalformedRecord = errors.New("malformed record")

// Rejection describes one skipped input line
type Rejection struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// LoadReport counts accepted and skipped records
type LoadReport struct {
	Accepted int         `json:"accepted"`
	Skipped  int         `json:"skipped"`
	Header   bool        `json:"header"`
	Rejected []Rejection `json:"rejected,omitempty"`
}

// maxRejections bounds the rejections kept in a report
const maxRejections = 100

func (r *LoadReport) reject(line int, err error) {
	r.Skipped++
	if len(r.Rejected) < maxRejections {
		r.Rejected = append(r.Rejected, Rejection{Line: line, Reason: err.Error(), Err: err})
	}
}

func (r LoadReport) String() string {
	return fmt.Sprintf("accepted %d records, skipped %d", r.Accepted, r.Skipped)
}

// ParseCSV reads records "id,xmin,ymin,xmax,ymax". A first line whose bounds
// are not numeric is treated as a header. Lines with a wrong field count,
// non-numeric or non-finite bounds, or reversed bounds are skipped and
// reported. Only read errors are returned.
func ParseCSV(r io.Reader) ([]model.MBR, LoadReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var (
		data   []model.MBR
		report LoadReport
		first  = true
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report.reject(parseErr.Line, fmt.Errorf("%w: %v", ErrMalformedRecord, parseErr.Err))
				continue
			}
			return nil, report, fmt.Errorf("reading records: %w", err)
		}
		line, _ := reader.FieldPos(0)

		mbr, err := parseRecord(record)
		if err != nil {
			if first && isHeader(record) {
				report.Header = true
				first = false
				continue
			}
			report.reject(line, err)
			first = false
			continue
		}
		first = false

		data = append(data, mbr)
		report.Accepted++
	}
	return data, report, nil
}

// isHeader reports whether none of the bound fields is numeric
func isHeader(record []string) bool {
	if len(record) != 5 {
		return false
	}
	for _, field := range record[1:] {
		if _, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err == nil {
			return false
		}
	}
	return true
}

func parseRecord(record []string) (model.MBR, error) {
	if len(record) != 5 {
		return model.MBR{}, fmt.Errorf("%w: expected 5 fields, got %d", ErrMalformedRecord, len(record))
	}

	var bounds [4]float64
	for i, field := range record[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return model.MBR{}, fmt.Errorf("%w: bound %q is not a number", ErrMalformedRecord, field)
		}
		bounds[i] = v
	}

	mbr := model.NewMBR(strings.TrimSpace(record[0]), bounds[0], bounds[1], bounds[2], bounds[3])
	if !mbr.Valid() {
		return model.MBR{}, fmt.Errorf("%w: invalid bounds (%g, %g, %g, %g)", ErrMalformedRecord,
			mbr.XMin, mbr.YMin, mbr.XMax, mbr.YMax)
	}
	return mbr, nil
}

// LoadFile parses a CSV dataset from path
func LoadFile(path string) ([]model.MBR, LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("opening dataset file: %w", err)
	}
	defer f.Close()

	data, report, err := ParseCSV(f)
	if err != nil {
		return nil, report, fmt.Errorf("parsing %s: %w", path, err)
	}
	log.Printf("Loaded %s: %s", path, report)
	return data, report, nil
}

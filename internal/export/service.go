package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

// Source is the read side of the record store that exports need.
type Source interface {
	Snapshot() []entity.Document
}

// Service is a tiny façade over the record store that produces export artifacts.
type Service struct {
	source Source
	logger *slog.Logger
}

func NewService(source Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, logger: logger}
}

// Entries returns the completed records of the current snapshot.
func (s *Service) Entries() []Entry {
	return BuildEntries(s.source.Snapshot())
}

// ExportJSON returns the JSON artifact for every completed record, validated against the envelope schema.
func (s *Service) ExportJSON(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	entries := s.Entries()
	b, err := MarshalJSON(entries)
	if err != nil {
		return nil, err
	}
	if err := ValidateArtifact(b); err != nil {
		return nil, err
	}
	s.logger.Info("export.json.ok",
		"entries", len(entries),
		"bytes", len(b),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// ExportXLSX returns an XLSX workbook (as bytes) with one row per completed record.
// Columns after the fixed ones are the union of flattened field paths, sorted.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	entries := s.Entries()

	b, err := WriteXLSX(entries)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"rows", len(entries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

const sheetName = "Extractions"

var fixedHeaders = []string{"ID", "Filename", "Processed At", "Document Type", "Confidence"}

// WriteXLSX renders entries into a single-sheet workbook.
func WriteXLSX(entries []Entry) ([]byte, error) {
	flat := make([]map[string]string, len(entries))
	keySet := map[string]struct{}{}
	for i, e := range entries {
		row := map[string]string{}
		for _, ff := range e.Extraction.Flatten() {
			if ff.Key == constants.FieldDocumentType || ff.Key == constants.FieldConfidenceScore {
				continue
			}
			row[ff.Key] = ff.Value
			keySet[ff.Key] = struct{}{}
		}
		flat[i] = row
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if index, _ := f.GetSheetIndex(sheetName); index == -1 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	headers := append(append([]string{}, fixedHeaders...), keys...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for i, e := range entries {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		write(1, e.ID)
		write(2, e.Filename)
		write(3, e.ProcessedAt)
		docType, _ := e.Extraction.DocumentType()
		write(4, docType)
		if score, ok := e.Extraction.ConfidenceScore(); ok {
			write(5, score)
		} else {
			write(5, "")
		}
		for j, k := range keys {
			write(len(fixedHeaders)+j+1, truncate(flat[i][k], 255))
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38) // id
	_ = f.SetColWidth(sheetName, "B", "B", 32) // filename
	_ = f.SetColWidth(sheetName, "C", "C", 26) // timestamp
	_ = f.SetColWidth(sheetName, "D", "E", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/results-ledger/internal/entity"
	"github.com/joseph-ayodele/results-ledger/internal/repository"
)

// Sheet names of the exported workbook.
const (
	SheetStudents = "Students"
	SheetSubjects = "Subjects"
	SheetSummary  = "Summary"
)

// Service turns extraction results into XLSX and CSV bytes.
type Service struct {
	store  repository.Store
	logger *slog.Logger
}

// NewService builds an exporter. store may be nil when only in-memory
// results are exported.
func NewService(store repository.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportDocumentXLSX loads an archived run and renders it as a workbook.
func (s *Service) ExportDocumentXLSX(ctx context.Context, id uuid.UUID) ([]byte, error) {
	res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.BuildXLSX(res)
}

// ExportDocumentCSV loads an archived run and renders its subjects as CSV.
func (s *Service) ExportDocumentCSV(ctx context.Context, id uuid.UUID) ([]byte, error) {
	res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.BuildCSV(res)
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (entity.ExtractionResult, error) {
	if s.store == nil {
		return entity.ExtractionResult{}, fmt.Errorf("export: no archive configured")
	}
	_, res, err := s.store.GetResult(ctx, id)
	if err != nil {
		return entity.ExtractionResult{}, fmt.Errorf("load document %s: %w", id, err)
	}
	return res, nil
}

// BuildXLSX returns a workbook with Students, Subjects and Summary sheets.
func (s *Service) BuildXLSX(res entity.ExtractionResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetStudents); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetSubjects, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(SheetStudents)
	f.SetActiveSheet(activeIndex)

	semKeys := sgpaColumns(res.Students)
	writeRow(f, SheetStudents, 1, append(append([]any{"Reg No", "Name", "Father Name", "Final Result", "CGPA"},
		stringsToAny(semKeys)...), "Subjects")...)
	for i := range res.Students {
		st := &res.Students[i]
		row := []any{st.RegNo, st.Name, st.FatherName, st.FinalResult, st.CGPA}
		for _, k := range semKeys {
			if v, ok := st.SGPA.Get(k); ok {
				row = append(row, v)
			} else {
				row = append(row, "")
			}
		}
		row = append(row, len(st.Subjects()))
		writeRow(f, SheetStudents, i+2, row...)
	}

	writeRow(f, SheetSubjects, 1, "Reg No", "Sem", "QP Code", "Subject", "IA", "Tr", "Pr", "Result", "Credits", "Grade")
	r := 2
	for i := range res.Students {
		st := &res.Students[i]
		for _, sub := range st.Subjects() {
			writeRow(f, SheetSubjects, r, st.RegNo, semesterCell(sub.Semester), sub.QPCode, sub.SubjectName,
				sub.Marks.IA, sub.Marks.Tr, sub.Marks.Pr, sub.Result, sub.Credits, sub.Grade)
			r++
		}
	}

	students, subjects, passed, failed := res.Totals()
	summary := [][2]any{
		{"Institute", res.Institute},
		{"Programme", res.Programme},
		{"Result Date", res.ResultDate},
		{"Examination", res.ExaminationInfo},
		{"Students", students},
		{"Subjects", subjects},
		{"Passed", passed},
		{"Failed", failed},
	}
	for i, kv := range summary {
		writeRow(f, SheetSummary, i+1, kv[0], kv[1])
	}

	// Widen a few columns
	_ = f.SetColWidth(SheetStudents, "A", "A", 14) // reg no
	_ = f.SetColWidth(SheetStudents, "B", "C", 28) // names
	_ = f.SetColWidth(SheetStudents, "D", "D", 18) // result
	_ = f.SetColWidth(SheetSubjects, "D", "D", 40) // subject
	_ = f.SetColWidth(SheetSummary, "A", "A", 14)
	_ = f.SetColWidth(SheetSummary, "B", "B", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"students", students,
		"subjects", subjects,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// CSVHeader is the first record of BuildCSV output.
var CSVHeader = []string{"Reg No", "Name", "Sem", "QP Code", "Subject", "IA", "Tr", "Pr", "Result", "Credits", "Grade", "Final Result"}

// BuildCSV flattens every subject into one record.
func (s *Service) BuildCSV(res entity.ExtractionResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CSVHeader); err != nil {
		return nil, err
	}
	rows := 0
	for i := range res.Students {
		st := &res.Students[i]
		for _, sub := range st.Subjects() {
			rec := []string{
				st.RegNo, st.Name, semesterCell(sub.Semester), sub.QPCode, sub.SubjectName,
				strconv.Itoa(sub.Marks.IA), strconv.Itoa(sub.Marks.Tr), strconv.Itoa(sub.Marks.Pr),
				sub.Result, strconv.Itoa(sub.Credits), sub.Grade, st.FinalResult,
			}
			if err := w.Write(rec); err != nil {
				return nil, err
			}
			rows++
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	s.logger.Info("export.csv.ok", "rows", rows)
	return buf.Bytes(), nil
}

// sgpaColumns lists the SGPA keys seen across students, first-seen order.
func sgpaColumns(students []entity.Student) []string {
	seen := map[string]bool{}
	var keys []string
	for _, st := range students {
		for _, k := range st.SGPA.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

func semesterCell(sem *int) string {
	if sem == nil {
		return ""
	}
	return strconv.Itoa(*sem)
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

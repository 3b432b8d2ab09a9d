package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/results-ledger/internal/common"
	"github.com/joseph-ayodele/results-ledger/internal/entity"
	"github.com/joseph-ayodele/results-ledger/internal/repository"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func fixture() entity.ExtractionResult {
	five := 5
	return entity.ExtractionResult{
		Institute:       "GOVT POLYTECHNIC",
		Programme:       "CE - CIVIL ENGINEERING",
		ResultDate:      "12/01/2024",
		ExaminationInfo: "Nov/Dec 2023",
		Students: []entity.Student{
			{
				RegNo:      "20CE53I",
				Name:       "STUDENT NAME",
				FatherName: "FATHER NAME",
				SemesterResults: []entity.SemesterResult{{
					Semester: "Current",
					Subjects: []entity.Subject{{
						QPCode:      "20CE53I",
						SubjectName: "TRANSPORTATION ENGINEERING",
						Marks:       entity.Marks{IA: 172, Tr: 4, Pr: 50},
						Result:      "Fail",
						Grade:       "F",
						RawGrade:    "F",
						Semester:    &five,
					}},
				}},
				CGPA:        "Pending",
				SGPA:        entity.SGPA{{Key: "sem1", Value: 7.11}, {Key: "sem2", Value: 5.64}},
				FinalResult: "FAIL",
			},
			{
				RegNo:           "20CE54I",
				Name:            "OTHER",
				FatherName:      "Unknown",
				SemesterResults: []entity.SemesterResult{{Semester: "Current", Subjects: []entity.Subject{}}},
				CGPA:            "6.85",
				SGPA:            entity.SGPA{},
				FinalResult:     "FIRST CLASS",
			},
		},
	}
}

func TestBuildXLSX(t *testing.T) {
	b, err := NewService(nil, quiet()).BuildXLSX(fixture())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()

	if diff := cmp.Diff([]string{SheetStudents, SheetSubjects, SheetSummary}, f.GetSheetList()); diff != "" {
		t.Fatalf("sheets (-want +got):\n%s", diff)
	}

	students, err := f.GetRows(SheetStudents)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	wantStudents := [][]string{
		{"Reg No", "Name", "Father Name", "Final Result", "CGPA", "sem1", "sem2", "Subjects"},
		{"20CE53I", "STUDENT NAME", "FATHER NAME", "FAIL", "Pending", "7.11", "5.64", "1"},
		{"20CE54I", "OTHER", "Unknown", "FIRST CLASS", "6.85", "", "", "0"},
	}
	if diff := cmp.Diff(wantStudents, students); diff != "" {
		t.Fatalf("students sheet (-want +got):\n%s", diff)
	}

	subjects, err := f.GetRows(SheetSubjects)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(subjects) != 2 {
		t.Fatalf("subjects rows = %d, want 2", len(subjects))
	}
	if diff := cmp.Diff([]string{"20CE53I", "5", "20CE53I", "TRANSPORTATION ENGINEERING", "172", "4", "50", "Fail", "0", "F"}, subjects[1]); diff != "" {
		t.Fatalf("subject row (-want +got):\n%s", diff)
	}

	summary, err := f.GetRows(SheetSummary)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	got := map[string]string{}
	for _, row := range summary {
		if len(row) == 2 {
			got[row[0]] = row[1]
		}
	}
	if got["Institute"] != "GOVT POLYTECHNIC" || got["Students"] != "2" || got["Passed"] != "1" || got["Failed"] != "1" {
		t.Fatalf("summary = %v", got)
	}
}

func TestBuildCSV(t *testing.T) {
	b, err := NewService(nil, quiet()).BuildCSV(fixture())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	recs, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := [][]string{
		CSVHeader,
		{"20CE53I", "STUDENT NAME", "5", "20CE53I", "TRANSPORTATION ENGINEERING", "172", "4", "50", "Fail", "0", "F", "FAIL"},
	}
	if diff := cmp.Diff(want, recs); diff != "" {
		t.Fatalf("csv (-want +got):\n%s", diff)
	}
}

func TestExportDocument(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, quiet())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	store := repository.NewResultStore(db, quiet())
	defer store.Close()

	id, _, err := store.SaveResult(ctx, entity.Document{SourceName: "l.pdf", SHA256: "x"}, fixture())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	svc := NewService(store, quiet())
	if b, err := svc.ExportDocumentXLSX(ctx, id); err != nil || len(b) == 0 {
		t.Fatalf("xlsx: %d bytes, err=%v", len(b), err)
	}
	if b, err := svc.ExportDocumentCSV(ctx, id); err != nil || !bytes.Contains(b, []byte("TRANSPORTATION ENGINEERING")) {
		t.Fatalf("csv: %q, err=%v", b, err)
	}
	if _, err := svc.ExportDocumentCSV(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

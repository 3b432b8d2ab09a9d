package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/results-ledger/internal/common"
	"github.com/joseph-ayodele/results-ledger/internal/export"
	"github.com/joseph-ayodele/results-ledger/internal/ledger"
	"github.com/joseph-ayodele/results-ledger/internal/pdftext"
	"github.com/joseph-ayodele/results-ledger/internal/pipeline"
)

const ledgerText = `Institute : 101 - [ GOVT POLYTECHNIC ]
Programme : CE - CIVIL ENGINEERING
Result Date : 12/01/2024
1 20CE53I STUDENT NAME [ S(D)/o : FATHER NAME ]
20CE53I : TRANSPORTATION ENGINEERING 172 / 04 / 50 F 0 F
Results : FAIL
`

type stubConverter struct {
	err error
}

func (s stubConverter) Convert(_ context.Context, _ []byte) (pdftext.Result, error) {
	if s.err != nil {
		return pdftext.Result{}, s.err
	}
	return pdftext.Result{Text: ledgerText, Pages: 1, Method: pdftext.MethodNative}, nil
}

type failingHealth struct{}

func (failingHealth) HealthCheck(context.Context, time.Duration) error { return errors.New("down") }

type response struct {
	Success      bool            `json:"success"`
	Data         json.RawMessage `json:"data"`
	Error        string          `json:"error"`
	DocumentID   string          `json:"documentId"`
	Deduplicated bool            `json:"deduplicated"`
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := ConnectDB(context.Background(), common.DatabaseConfig{}, true, quiet())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func newTestServer(t *testing.T, conv stubConverter, archive *Archive, maxUpload int) *HTTPServer {
	t.Helper()
	deps := HTTPDeps{}
	var opts []pipeline.Option
	if archive != nil {
		opts = append(opts, pipeline.WithStore(archive.Store))
		deps.Store = archive.Store
		deps.Exporter = export.NewService(archive.Store, quiet())
		deps.Health = archive.DB
	}
	deps.Processor = pipeline.NewProcessor(quiet(), conv, ledger.NewExtractor(quiet()), opts...)
	return NewHTTPServer(common.ServerConfig{MaxUploadBytes: maxUpload}, deps, quiet())
}

func uploadRequest(t *testing.T, target, contentType string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="pdf"; filename="ledger.pdf"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(body); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req, _ := http.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func do(t *testing.T, s *HTTPServer, req *http.Request) (*http.Response, response) {
	t.Helper()
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var body response
	if resp.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp, body
}

func TestExtract_Validation(t *testing.T) {
	s := newTestServer(t, stubConverter{}, nil, 100)

	tests := []struct {
		name string
		req  *http.Request
		want string
	}{
		{
			name: "no file",
			req:  formWithoutFile(t, "/api/results"),
			want: "No PDF file uploaded",
		},
		{
			name: "wrong type",
			req:  uploadRequest(t, "/api/results", "text/plain", []byte("%PDF")),
			want: "Only PDF files are allowed",
		},
		{
			name: "too large",
			req:  uploadRequest(t, "/api/results", "application/pdf", bytes.Repeat([]byte("x"), 200)),
			want: "File size too large. Maximum size is 100 bytes.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, s, tt.req)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			if body.Success || body.Error != tt.want {
				t.Fatalf("body = %+v, want error %q", body, tt.want)
			}
		})
	}
}

func formWithoutFile(t *testing.T, target string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("note", "no file here")
	_ = w.Close()
	req, _ := http.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestExtract_ConversionFailure(t *testing.T) {
	s := newTestServer(t, stubConverter{err: errors.New("bad xref")}, nil, 0)
	resp, body := do(t, s, uploadRequest(t, "/api/results", "application/pdf", []byte("%PDF-1.4")))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if body.Error != "Failed to parse PDF: bad xref" {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestExtract_NotPDFContent(t *testing.T) {
	s := newTestServer(t, stubConverter{err: pdftext.ErrNotPDF}, nil, 0)
	resp, body := do(t, s, uploadRequest(t, "/api/results", "application/pdf", []byte("GIF89a")))
	if resp.StatusCode != http.StatusBadRequest || body.Error != "Only PDF files are allowed" {
		t.Fatalf("status=%d body=%+v", resp.StatusCode, body)
	}
}

func TestExtract_WithoutArchive(t *testing.T) {
	s := newTestServer(t, stubConverter{}, nil, 0)

	resp, body := do(t, s, uploadRequest(t, "/api/results", "application/pdf", []byte("%PDF-1.4")))
	if resp.StatusCode != http.StatusOK || !body.Success || body.DocumentID != "" {
		t.Fatalf("status=%d body=%+v", resp.StatusCode, body)
	}
	var data struct {
		Institute string `json:"institute"`
		Students  []struct {
			RegNo       string `json:"regNo"`
			FinalResult string `json:"finalResult"`
		} `json:"students"`
	}
	if err := json.Unmarshal(body.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Institute != "GOVT POLYTECHNIC" || len(data.Students) != 1 || data.Students[0].RegNo != "20CE53I" {
		t.Fatalf("unexpected data: %+v", data)
	}

	resp, body = do(t, s, uploadRequest(t, "/api/results?store=true", "application/pdf", []byte("%PDF-1.4")))
	if resp.StatusCode != http.StatusServiceUnavailable || body.Success {
		t.Fatalf("store without archive: status=%d body=%+v", resp.StatusCode, body)
	}

	if resp, _ := do(t, s, mustGet("/api/documents")); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("list without archive: status=%d", resp.StatusCode)
	}
}

func TestArchiveRoutes(t *testing.T) {
	s := newTestServer(t, stubConverter{}, newArchive(t), 0)

	resp, body := do(t, s, uploadRequest(t, "/api/results?store=true", "application/pdf", []byte("%PDF-1.4 archived")))
	if resp.StatusCode != http.StatusOK || body.DocumentID == "" || body.Deduplicated {
		t.Fatalf("status=%d body=%+v", resp.StatusCode, body)
	}
	id := body.DocumentID

	_, again := do(t, s, uploadRequest(t, "/api/results?store=true", "application/pdf", []byte("%PDF-1.4 archived")))
	if again.DocumentID != id || !again.Deduplicated {
		t.Fatalf("expected dedup to %s, got %+v", id, again)
	}

	get := func(path string) *http.Response {
		resp, err := s.App().Test(mustGet(path), -1)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		return resp
	}

	cases := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/healthz", http.StatusOK, "application/json"},
		{"/api/documents", http.StatusOK, "application/json"},
		{"/api/documents/" + id, http.StatusOK, "application/json"},
		{"/api/documents/" + id + "/students", http.StatusOK, "application/json"},
		{"/api/students/20ce53i", http.StatusOK, "application/json"},
		{"/api/documents/" + id + "/export.xlsx", http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"/api/documents/" + id + "/export.csv", http.StatusOK, "text/csv"},
		{"/api/documents/not-a-uuid", http.StatusBadRequest, "application/json"},
		{"/api/documents/" + uuid.NewString(), http.StatusNotFound, "application/json"},
		{"/api/documents/" + uuid.NewString() + "/export.csv", http.StatusNotFound, "application/json"},
	}
	for _, tc := range cases {
		resp := get(tc.path)
		if resp.StatusCode != tc.status {
			t.Errorf("GET %s status = %d, want %d", tc.path, resp.StatusCode, tc.status)
		}
		if got := resp.Header.Get("Content-Type"); got != tc.contentType {
			t.Errorf("GET %s content type = %q, want %q", tc.path, got, tc.contentType)
		}
	}

	csvBody, _ := io.ReadAll(get("/api/documents/" + id + "/export.csv").Body)
	if !bytes.HasPrefix(csvBody, []byte("Reg No,Name,Sem,")) {
		t.Fatalf("csv export missing header:\n%s", csvBody)
	}

	_, students := do(t, s, mustGet("/api/students/20CE53I"))
	var rows []map[string]any
	if err := json.Unmarshal(students.Data, &rows); err != nil || len(rows) != 1 {
		t.Fatalf("students = %s err=%v", students.Data, err)
	}
	if rows[0]["document_id"] != id {
		t.Fatalf("student row points at %v, want %s", rows[0]["document_id"], id)
	}
}

func mustGet(path string) *http.Request {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	return req
}

func TestHealthz_DatabaseDown(t *testing.T) {
	s := NewHTTPServer(common.ServerConfig{}, HTTPDeps{
		Processor: pipeline.NewProcessor(quiet(), stubConverter{}, nil),
		Health:    failingHealth{},
	}, quiet())
	resp, body := do(t, s, mustGet("/healthz"))
	if resp.StatusCode != http.StatusServiceUnavailable || body.Error != "database unavailable" {
		t.Fatalf("status=%d body=%+v", resp.StatusCode, body)
	}
}

func TestTooLargeMessage(t *testing.T) {
	tests := map[int64]string{
		10 << 20: "File size too large. Maximum size is 10MB.",
		1 << 20:  "File size too large. Maximum size is 1MB.",
		1500:     "File size too large. Maximum size is 1500 bytes.",
	}
	for limit, want := range tests {
		if got := tooLargeMessage(limit); got != want {
			t.Errorf("tooLargeMessage(%d) = %q, want %q", limit, got, want)
		}
	}
}

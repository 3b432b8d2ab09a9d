package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/results-ledger/constants"
	"github.com/joseph-ayodele/results-ledger/internal/common"
	"github.com/joseph-ayodele/results-ledger/internal/export"
	"github.com/joseph-ayodele/results-ledger/internal/pipeline"
	"github.com/joseph-ayodele/results-ledger/internal/repository"
)

// UploadField is the multipart field carrying the ledger PDF.
const UploadField = "pdf"

// multipart framing on top of the file itself
const bodySlack = 64 << 10

// DocumentProcessor runs one uploaded ledger through the pipeline.
type DocumentProcessor interface {
	Process(ctx context.Context, in pipeline.Input) (*pipeline.Outcome, error)
	CanArchive() bool
}

// HealthChecker is satisfied by *repository.DB.
type HealthChecker interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

// HTTPDeps are the collaborators of the HTTP server. Store, Exporter and
// Health may be nil when no archive is configured.
type HTTPDeps struct {
	Processor DocumentProcessor
	Store     repository.Store
	Exporter  *export.Service
	Health    HealthChecker
}

type envelope struct {
	Success      bool   `json:"success"`
	Data         any    `json:"data,omitempty"`
	Error        string `json:"error,omitempty"`
	DocumentID   string `json:"documentId,omitempty"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
}

type HTTPServer struct {
	app       *fiber.App
	deps      HTTPDeps
	logger    *slog.Logger
	maxUpload int64
	timeout   time.Duration
}

func NewHTTPServer(cfg common.ServerConfig, deps HTTPDeps, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &HTTPServer{
		deps:      deps,
		logger:    logger,
		maxUpload: int64(cfg.MaxUploadBytes),
		timeout:   cfg.RequestTimeout,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 10 << 20
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "ledgerd",
		BodyLimit:             int(s.maxUpload) + bodySlack,
		ErrorHandler:          s.handleError,
		DisableStartupMessage: true,
	})
	s.app.Use(requestid.New())
	s.app.Use(s.logRequests)
	s.app.Use(recover.New())
	s.app.Use(cors.New())

	s.app.Get("/healthz", s.healthz)

	api := s.app.Group("/api")
	api.Post("/results", s.extract)
	api.Get("/documents", s.listDocuments)
	api.Get("/documents/:id", s.getDocument)
	api.Get("/documents/:id/students", s.listStudents)
	api.Get("/documents/:id/export.xlsx", s.exportXLSX)
	api.Get("/documents/:id/export.csv", s.exportCSV)
	api.Get("/students/:regNo", s.findStudent)
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *HTTPServer) App() *fiber.App { return s.app }

// Serve blocks serving HTTP on ln.
func (s *HTTPServer) Serve(ln net.Listener) error {
	s.logger.Info("http serving", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *HTTPServer) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	if rid, ok := c.Locals("requestid").(string); ok {
		c.SetUserContext(common.WithRequestID(c.UserContext(), rid))
	}
	if err := c.Next(); err != nil {
		if herr := s.handleError(c, err); herr != nil {
			return herr
		}
	}
	s.logger.Info("http.request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"request_id", c.Locals("requestid"),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *HTTPServer) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := common.UserMessage(err)

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code, msg = fe.Code, fe.Message
		if code == fiber.StatusRequestEntityTooLarge {
			code, msg = fiber.StatusBadRequest, tooLargeMessage(s.maxUpload)
		}
	case errors.Is(err, common.ErrValidation):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, common.ErrInvalidInput):
		code = fiber.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		code = fiber.StatusNotFound
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("http.request.failed", "path", c.Path(), "status", code, "err", err)
	}
	return c.Status(code).JSON(envelope{Success: false, Error: msg})
}

func tooLargeMessage(limit int64) string {
	if limit >= 1<<20 && limit%(1<<20) == 0 {
		return fmt.Sprintf("File size too large. Maximum size is %dMB.", limit>>20)
	}
	return fmt.Sprintf("File size too large. Maximum size is %d bytes.", limit)
}

func (s *HTTPServer) healthz(c *fiber.Ctx) error {
	if s.deps.Health != nil {
		if err := s.deps.Health.HealthCheck(c.UserContext(), 2*time.Second); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "database unavailable")
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *HTTPServer) extract(c *fiber.Ctx) error {
	fh, err := c.FormFile(UploadField)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No PDF file uploaded")
	}
	if fh.Size > s.maxUpload {
		return fiber.NewError(fiber.StatusBadRequest, tooLargeMessage(s.maxUpload))
	}
	ct := fh.Header.Get(fiber.HeaderContentType)
	if !strings.EqualFold(strings.TrimSpace(strings.Split(ct, ";")[0]), constants.PDFMimeType) {
		return fiber.NewError(fiber.StatusBadRequest, "Only PDF files are allowed")
	}

	store := c.QueryBool("store")
	if store && !s.deps.Processor.CanArchive() {
		return fiber.NewError(fiber.StatusServiceUnavailable, "archive is not configured")
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()
	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	ctx := c.UserContext()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	out, err := s.deps.Processor.Process(ctx, pipeline.Input{
		Name:    fh.Filename,
		Content: content,
		Archive: store,
	})
	if err != nil {
		return err
	}

	resp := envelope{Success: true, Data: out.Result, Deduplicated: out.Deduplicated}
	if out.DocumentID != uuid.Nil {
		resp.DocumentID = out.DocumentID.String()
	}
	return c.JSON(resp)
}

func (s *HTTPServer) requireStore() error {
	if s.deps.Store == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "archive is not configured")
	}
	return nil
}

func documentID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid document id")
	}
	return id, nil
}

func (s *HTTPServer) listDocuments(c *fiber.Ctx) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	docs, err := s.deps.Store.ListDocuments(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(envelope{Success: true, Data: docs})
}

func (s *HTTPServer) getDocument(c *fiber.Ctx) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	id, err := documentID(c)
	if err != nil {
		return err
	}
	doc, res, err := s.deps.Store.GetResult(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(envelope{
		Success:    true,
		Data:       fiber.Map{"document": doc, "result": res},
		DocumentID: id.String(),
	})
}

func (s *HTTPServer) listStudents(c *fiber.Ctx) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	id, err := documentID(c)
	if err != nil {
		return err
	}
	rows, err := s.deps.Store.ListStudents(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(envelope{Success: true, Data: rows, DocumentID: id.String()})
}

func (s *HTTPServer) findStudent(c *fiber.Ctx) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	rows, err := s.deps.Store.FindByRegNo(c.UserContext(), strings.ToUpper(c.Params("regNo")))
	if err != nil {
		return err
	}
	return c.JSON(envelope{Success: true, Data: rows})
}

func (s *HTTPServer) exportXLSX(c *fiber.Ctx) error {
	return s.export(c, "xlsx", s.deps.Exporter.ExportDocumentXLSX,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (s *HTTPServer) exportCSV(c *fiber.Ctx) error {
	return s.export(c, "csv", s.deps.Exporter.ExportDocumentCSV, "text/csv")
}

func (s *HTTPServer) export(c *fiber.Ctx, ext string, render func(context.Context, uuid.UUID) ([]byte, error), contentType string) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	if s.deps.Exporter == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "export is not configured")
	}
	id, err := documentID(c)
	if err != nil {
		return err
	}
	body, err := render(c.UserContext(), id)
	if err != nil {
		return err
	}
	c.Attachment(fmt.Sprintf("ledger-%s.%s", id, ext))
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(body)
}

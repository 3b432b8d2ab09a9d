package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/results-ledger/internal/common"
	"github.com/joseph-ayodele/results-ledger/internal/pipeline"
	"github.com/joseph-ayodele/results-ledger/internal/repository"
)

const (
	LedgerServiceName     = "ledger.v1.LedgerService"
	extractFullMethod     = "/" + LedgerServiceName + "/Extract"
	getDocumentFullMethod = "/" + LedgerServiceName + "/GetDocument"
)

// LedgerServer is the gRPC surface of the extractor. Requests and responses
// use well-known types so no generated stubs are needed.
type LedgerServer interface {
	// Extract takes raw PDF bytes and returns the extraction result.
	Extract(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error)
	// GetDocument returns an archived result by document id.
	GetDocument(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
}

func extractHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).Extract(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: extractFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).Extract(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getDocumentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).GetDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getDocumentFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).GetDocument(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// LedgerServiceDesc is registered by hand in place of protoc output.
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: LedgerServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Extract", Handler: extractHandler},
		{MethodName: "GetDocument", Handler: getDocumentHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/v1/ledger.proto",
}

// LedgerClient calls a LedgerServer.
type LedgerClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerClient(cc grpc.ClientConnInterface) *LedgerClient {
	return &LedgerClient{cc: cc}
}

func (c *LedgerClient) Extract(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, extractFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LedgerClient) GetDocument(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getDocumentFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// LedgerService implements LedgerServer on top of the pipeline.
type LedgerService struct {
	proc    DocumentProcessor
	store   repository.Store
	logger  *slog.Logger
	timeout time.Duration
}

func NewLedgerService(proc DocumentProcessor, store repository.Store, timeout time.Duration, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{proc: proc, store: store, logger: logger, timeout: timeout}
}

func (s *LedgerService) Extract(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error) {
	content := in.GetValue()
	if len(content) == 0 {
		return nil, common.InvalidArgumentError("No PDF file uploaded")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.proc.Process(ctx, pipeline.Input{Name: "grpc-upload.pdf", Content: content})
	if err != nil {
		s.logger.Warn("grpc.extract.failed", "bytes", len(content), "err", err)
		return nil, common.StatusFromError(err)
	}
	return toStruct(envelope{Success: true, Data: out.Result})
}

func (s *LedgerService) GetDocument(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if s.store == nil {
		return nil, common.InternalError("archive is not configured")
	}
	id, err := uuid.Parse(in.GetValue())
	if err != nil {
		return nil, common.InvalidArgumentErrorf("invalid document id %q", in.GetValue())
	}
	_, res, err := s.store.GetResult(ctx, id)
	if err != nil {
		return nil, common.StatusFromError(err)
	}
	return toStruct(envelope{Success: true, Data: res, DocumentID: id.String()})
}

// toStruct goes through JSON so the Struct mirrors the HTTP body exactly.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, common.InternalError(fmt.Sprintf("encode response: %v", err))
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, common.InternalError(fmt.Sprintf("encode response: %v", err))
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalError(fmt.Sprintf("encode response: %v", err))
	}
	return st, nil
}

// NewGRPCServer builds a server with the ledger, health and reflection
// services registered.
func NewGRPCServer(svc LedgerServer, logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger(logger)))
	gs.RegisterService(&LedgerServiceDesc, svc)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(LedgerServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(gs)
	return gs, hs
}

func unaryLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc.request",
			"method", info.FullMethod,
			"ok", err == nil,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}

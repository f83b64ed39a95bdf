package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/docextract/internal/store"
)

const documentsServiceName = "docextract.v1.Documents"

// Full method names, for clients calling through grpc.ClientConn.Invoke.
const (
	ListDocumentsMethod   = "/" + documentsServiceName + "/ListDocuments"
	GetDocumentMethod     = "/" + documentsServiceName + "/GetDocument"
	ExportDocumentsMethod = "/" + documentsServiceName + "/ExportDocuments"
)

// Messages are well-known types, so the service is registered without generated stubs.
var documentsServiceDesc = grpc.ServiceDesc{
	ServiceName: documentsServiceName,
	HandlerType: (*DocumentsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListDocuments", Handler: listDocumentsHandler},
		{MethodName: "GetDocument", Handler: getDocumentHandler},
		{MethodName: "ExportDocuments", Handler: exportDocumentsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "docextract/v1/documents.proto",
}

func RegisterDocumentsServer(s grpc.ServiceRegistrar, srv DocumentsServer) {
	s.RegisterService(&documentsServiceDesc, srv)
}

func listDocumentsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentsServer).ListDocuments(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListDocumentsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DocumentsServer).ListDocuments(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getDocumentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentsServer).GetDocument(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetDocumentMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DocumentsServer).GetDocument(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func exportDocumentsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentsServer).ExportDocuments(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExportDocumentsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DocumentsServer).ExportDocuments(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// NewGRPCServer wires health, reflection and the documents service.
func NewGRPCServer(reader store.Reader, logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(documentsServiceName, healthpb.HealthCheckResponse_SERVING)
	// Reflection for grpcurl
	reflection.Register(gs)

	RegisterDocumentsServer(gs, NewDocumentsService(reader, logger))
	return gs, hs
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Warn("grpc.request.failed", "method", info.FullMethod, "err", err)
		} else {
			logger.Debug("grpc.request", "method", info.FullMethod)
		}
		return resp, err
	}
}

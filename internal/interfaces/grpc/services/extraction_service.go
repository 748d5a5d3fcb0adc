// Package services implements listsense.v1.Extraction. Requests and
// responses are google.protobuf.Struct values carrying the same JSON shapes
// as the HTTP API.
package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/ListSense/internal/application/extraction"
	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "listsense.v1.Extraction"

// Method names of listsense.v1.Extraction.
const (
	MethodExtractSingle    = "ExtractSingle"
	MethodExtractMultiple  = "ExtractMultiple"
	MethodExtractText      = "ExtractText"
	MethodExtractBatch     = "ExtractBatch"
	MethodSimilarity       = "Similarity"
	MethodListEntities     = "ListEntities"
	MethodGetEntity        = "GetEntity"
	MethodPutListEntity    = "PutListEntity"
	MethodPutPatternEntity = "PutPatternEntity"
	MethodDeleteEntity     = "DeleteEntity"
)

// FullMethod returns "/listsense.v1.Extraction/<method>".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ExtractionServer adapts extraction.Service to gRPC.
type ExtractionServer struct {
	svc    extraction.Service
	logger logging.Logger
}

// NewExtractionServer creates a new ExtractionServer.
func NewExtractionServer(svc extraction.Service, logger logging.Logger) *ExtractionServer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ExtractionServer{svc: svc, logger: logger.Named("grpc.extraction")}
}

type nameRequest struct {
	Name string `json:"name"`
}

type resultsResponse struct {
	Results []entity.ExtractionResult `json:"results"`
}

func (s *ExtractionServer) ExtractSingle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in extraction.ExtractSingleInput
	if err := fromStruct(req, &in); err != nil {
		return nil, toStatus(err)
	}
	out, err := s.svc.ExtractSingle(ctx, &in)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(resultsResponse{Results: nonNil(out)})
}

func (s *ExtractionServer) ExtractMultiple(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in extraction.ExtractMultipleInput
	if err := fromStruct(req, &in); err != nil {
		return nil, toStatus(err)
	}
	out, err := s.svc.ExtractMultiple(ctx, &in)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(resultsResponse{Results: nonNil(out)})
}

func (s *ExtractionServer) ExtractText(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in extraction.ExtractTextInput
	if err := fromStruct(req, &in); err != nil {
		return nil, toStatus(err)
	}
	out, err := s.svc.ExtractText(ctx, &in)
	if err != nil {
		return nil, toStatus(err)
	}
	if out.Entities == nil {
		out.Entities = []entity.Entity{}
	}
	return toStruct(out)
}

func (s *ExtractionServer) ExtractBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in extraction.ExtractBatchInput
	if err := fromStruct(req, &in); err != nil {
		return nil, toStatus(err)
	}
	out, err := s.svc.ExtractBatch(ctx, &in)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(out)
}

func (s *ExtractionServer) Similarity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in extraction.SimilarityInput
	if err := fromStruct(req, &in); err != nil {
		return nil, toStatus(err)
	}
	out, err := s.svc.Similarity(ctx, &in)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(out)
}

func (s *ExtractionServer) ListEntities(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.svc.ListEntities(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{"entities": out, "total": len(out)})
}

func (s *ExtractionServer) GetEntity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in nameRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, toStatus(err)
	}
	out, err := s.svc.GetEntity(ctx, in.Name)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(out)
}

func (s *ExtractionServer) PutListEntity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in entity.ListEntityDef
	if err := fromStruct(req, &in); err != nil {
		return nil, toStatus(err)
	}
	out, err := s.svc.PutListEntity(ctx, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(out)
}

func (s *ExtractionServer) PutPatternEntity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in entity.PatternEntityDefinition
	if err := fromStruct(req, &in); err != nil {
		return nil, toStatus(err)
	}
	out, err := s.svc.PutPatternEntity(ctx, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(out)
}

func (s *ExtractionServer) DeleteEntity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in nameRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, toStatus(err)
	}
	if err := s.svc.DeleteEntity(ctx, in.Name); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

// ---------------------------------------------------------------------------
// Service descriptor
// ---------------------------------------------------------------------------

// ExtractionServiceServer is the server contract of listsense.v1.Extraction.
type ExtractionServiceServer interface {
	ExtractSingle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExtractMultiple(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExtractText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExtractBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Similarity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEntities(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEntity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PutListEntity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PutPatternEntity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteEntity(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryFn func(ExtractionServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, fn unaryFn) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			impl := srv.(ExtractionServiceServer)
			if interceptor == nil {
				return fn(impl, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return fn(impl, ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes listsense.v1.Extraction for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExtractionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodExtractSingle, ExtractionServiceServer.ExtractSingle),
		unary(MethodExtractMultiple, ExtractionServiceServer.ExtractMultiple),
		unary(MethodExtractText, ExtractionServiceServer.ExtractText),
		unary(MethodExtractBatch, ExtractionServiceServer.ExtractBatch),
		unary(MethodSimilarity, ExtractionServiceServer.Similarity),
		unary(MethodListEntities, ExtractionServiceServer.ListEntities),
		unary(MethodGetEntity, ExtractionServiceServer.GetEntity),
		unary(MethodPutListEntity, ExtractionServiceServer.PutListEntity),
		unary(MethodPutPatternEntity, ExtractionServiceServer.PutPatternEntity),
		unary(MethodDeleteEntity, ExtractionServiceServer.DeleteEntity),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "listsense/v1/extraction",
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// ExtractionClient calls listsense.v1.Extraction with plain Go values that
// round-trip through JSON.
type ExtractionClient struct {
	cc grpc.ClientConnInterface
}

// NewExtractionClient creates a client over cc.
func NewExtractionClient(cc grpc.ClientConnInterface) *ExtractionClient {
	return &ExtractionClient{cc: cc}
}

// Call invokes method with in and decodes the reply into out. out may be nil.
func (c *ExtractionClient) Call(ctx context.Context, method string, in, out interface{}, opts ...grpc.CallOption) error {
	req, err := toStruct(in)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), req, resp, opts...); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return fromStruct(resp, out)
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

func fromStruct(s *structpb.Struct, v interface{}) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "invalid request struct")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "request does not match the expected shape").
			WithDetail(err.Error())
	}
	return nil
}

func toStruct(v interface{}) (*structpb.Struct, error) {
	if v == nil {
		return &structpb.Struct{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "response encoding failed")
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, status.Error(codes.Internal, "response encoding failed")
	}
	return out, nil
}

var codeMap = map[errors.ErrorCode]codes.Code{
	errors.ErrCodeBadRequest:         codes.InvalidArgument,
	errors.ErrCodeValidation:         codes.InvalidArgument,
	errors.ErrCodeSerialization:      codes.InvalidArgument,
	errors.ErrCodeInvalidDefinition:  codes.InvalidArgument,
	errors.ErrCodeInvalidPattern:     codes.InvalidArgument,
	errors.ErrCodeUnknownTolerance:   codes.InvalidArgument,
	errors.ErrCodeEmptyUtterance:     codes.InvalidArgument,
	errors.ErrCodeUtteranceTooLong:   codes.ResourceExhausted,
	errors.ErrCodeNotFound:           codes.NotFound,
	errors.ErrCodeEntityNotFound:     codes.NotFound,
	errors.ErrCodeConflict:           codes.AlreadyExists,
	errors.ErrCodeTooManyRequests:    codes.ResourceExhausted,
	errors.ErrCodeServiceUnavailable: codes.Unavailable,
	errors.ErrCodeTimeout:            codes.DeadlineExceeded,
	errors.ErrCodeNotImplemented:     codes.Unimplemented,
}

// toStatus maps an application error onto a gRPC status. The message keeps
// the application code in brackets; unmapped errors are masked as Internal.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case stderrors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case stderrors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	var ae *errors.AppError
	if !errors.As(err, &ae) {
		return status.Error(codes.Internal, "internal server error")
	}
	code, ok := codeMap[ae.Code]
	if !ok {
		return status.Error(codes.Internal, fmt.Sprintf("[%s] internal server error", ae.Code))
	}
	msg := fmt.Sprintf("[%s] %s", ae.Code, ae.Message)
	if ae.Detail != "" {
		msg += ": " + ae.Detail
	}
	return status.Error(code, msg)
}

func nonNil(rs []entity.ExtractionResult) []entity.ExtractionResult {
	if rs == nil {
		return []entity.ExtractionResult{}
	}
	return rs
}

//Personal.AI order the ending

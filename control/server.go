package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/xaionaro-go/mediagraph/event"
	"github.com/xaionaro-go/mediagraph/filter"
	"github.com/xaionaro-go/mediagraph/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const DefaultResponseTimeout = 5 * time.Second

// Graph is what the server controls; *pipeline.Manager implements it.
type Graph interface {
	GetFilter(ctx context.Context, id filter.ID) *filter.Filter
	GetState(ctx context.Context) event.Params
}

type Server struct {
	Graph Graph

	// ResponseTimeout bounds the wait for an event response after the
	// event is due.
	ResponseTimeout time.Duration
}

var _ ControlServer = (*Server)(nil)

func NewServer(graph Graph) *Server {
	return &Server{
		Graph:           graph,
		ResponseTimeout: DefaultResponseTimeout,
	}
}

func (s *Server) Register(grpcServer *grpc.Server) {
	grpcServer.RegisterService(&ServiceDesc, s)
}

func (s *Server) PushEvent(
	ctx context.Context,
	req *structpb.Struct,
) (_ret *structpb.Struct, _err error) {
	logger.Debugf(ctx, "PushEvent")
	defer func() { logger.Debugf(ctx, "/PushEvent: %v", _err) }()

	fields := req.AsMap()
	logger.Tracef(ctx, "PushEvent request: %s", spew.Sdump(fields))

	f, err := s.getFilter(ctx, fields)
	if err != nil {
		return nil, err
	}
	action, _ := fields[FieldAction].(string)
	if action == "" {
		return nil, status.Errorf(codes.InvalidArgument, "'%s' is not set", FieldAction)
	}
	params, _ := fields[FieldParams].(map[string]any)
	var delay time.Duration
	if v, ok := fields[FieldDelayMS].(float64); ok && v > 0 {
		delay = time.Duration(v * float64(time.Millisecond))
	}

	ev := event.New(action, params, time.Now().Add(delay))
	f.PushEvent(ctx, ev)

	waitCtx, cancelFn := context.WithTimeout(ctx, delay+s.ResponseTimeout)
	defer cancelFn()
	resp, err := ev.Wait(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, status.Errorf(codes.DeadlineExceeded, "filter %d did not execute '%s' in time", f.ID(), action)
		}
		return nil, status.FromContextError(err).Err()
	}
	return toStruct(resp)
}

func (s *Server) GetState(
	ctx context.Context,
	req *structpb.Struct,
) (*structpb.Struct, error) {
	fields := req.AsMap()
	if _, ok := fields[FieldFilterID]; !ok {
		return toStruct(s.Graph.GetState(ctx))
	}
	f, err := s.getFilter(ctx, fields)
	if err != nil {
		return nil, err
	}
	return toStruct(f.GetState(ctx))
}

func (s *Server) getFilter(
	ctx context.Context,
	fields map[string]any,
) (*filter.Filter, error) {
	v, ok := fields[FieldFilterID].(float64)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "'%s' is expected to be a number", FieldFilterID)
	}
	id := filter.ID(v)
	f := s.Graph.GetFilter(ctx, id)
	if f == nil {
		return nil, status.Errorf(codes.NotFound, "filter %d not found", id)
	}
	return f, nil
}

func toStruct(params event.Params) (*structpb.Struct, error) {
	result, err := structpb.NewStruct(params)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("unable to serialize the response: %v", err))
	}
	return result, nil
}

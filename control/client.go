package control

import (
	"context"
	"fmt"
	"time"

	"github.com/xaionaro-go/mediagraph/event"
	"github.com/xaionaro-go/mediagraph/filter"
	"github.com/xaionaro-go/typing"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) call(
	ctx context.Context,
	method string,
	req event.Params,
) (event.Params, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("unable to serialize the request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethodName(method), in, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// PushEvent makes the filter execute the action not earlier than after
// the delay, and returns the response of the action.
func (c *Client) PushEvent(
	ctx context.Context,
	filterID filter.ID,
	action string,
	params event.Params,
	delay time.Duration,
) (event.Params, error) {
	if params == nil {
		params = event.Params{}
	}
	return c.call(ctx, MethodPushEvent, event.Params{
		FieldFilterID: int(filterID),
		FieldAction:   action,
		FieldParams:   params,
		FieldDelayMS:  float64(delay) / float64(time.Millisecond),
	})
}

// GetState returns the state of the filter, or of the whole graph if
// filterID is not set.
func (c *Client) GetState(
	ctx context.Context,
	filterID typing.Optional[filter.ID],
) (event.Params, error) {
	req := event.Params{}
	if filterID.IsSet() {
		req[FieldFilterID] = int(filterID.Get())
	}
	return c.call(ctx, MethodGetState, req)
}

package queue

import "context"

// Client sends parse jobs to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, msg Message) error

// Send implements Client.
func (f ClientFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

var (
	_ Client = ClientFunc(nil)
	_ Client = (*SQSClient)(nil)
)

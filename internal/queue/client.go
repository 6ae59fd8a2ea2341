package queue

import "context"

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// NopClient drops messages. Used when no queue backend is configured.
type NopClient struct{}

func (NopClient) Send(ctx context.Context, msg Message) error { return ctx.Err() }

var _ Client = NopClient{}

// Package wsrouter dispatches {"type", "payload"} websocket messages to typed handlers.
package wsrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidMessage     = errors.New("invalid message")
	ErrUnknownMessageType = errors.New("unknown message type")
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc[C any] func(ctx context.Context, conn C, payload json.RawMessage) error

type Middleware[C any] func(next HandlerFunc[C]) HandlerFunc[C]

type WSRouter[C any] struct {
	routes      map[string]HandlerFunc[C]
	middlewares []Middleware[C]
}

func New[C any]() *WSRouter[C] {
	return &WSRouter[C]{routes: make(map[string]HandlerFunc[C])}
}

// Use appends middlewares; the first one registered is the outermost.
func (r *WSRouter[C]) Use(middlewares ...Middleware[C]) {
	r.middlewares = append(r.middlewares, middlewares...)
}

// Handle registers handler for messageType, decoding the payload into T.
// A missing or null payload leaves T zero-valued.
func Handle[C, T any](r *WSRouter[C], messageType string, handler func(ctx context.Context, conn C, input T) error) {
	r.routes[messageType] = func(ctx context.Context, conn C, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 && !bytes.Equal(payload, []byte("null")) {
			if err := json.Unmarshal(payload, &input); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
			}
		}

		return handler(ctx, conn, input)
	}
}

// Dispatch decodes one message and runs its handler through the middleware chain.
func (r *WSRouter[C]) Dispatch(ctx context.Context, conn C, data []byte) error {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	handler, ok := r.routes[msg.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	return handler(context.WithValue(ctx, messageTypeKey, msg.Type), conn, msg.Payload)
}

package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/moveefy/server/pkg/ctxlogger"
	"github.com/moveefy/server/pkg/wsrouter"
)

func (c controller) wsRequestIdWSMw() wsrouter.Middleware[*wsConn] {
	return func(next wsrouter.HandlerFunc[*wsConn]) wsrouter.HandlerFunc[*wsConn] {
		return func(ctx context.Context, conn *wsConn, payload json.RawMessage) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("ws_request_id", c.generateTimeBasedId()))
			return next(ctx, conn, payload)
		}
	}
}

func (c controller) loggerWSMw() wsrouter.Middleware[*wsConn] {
	return func(next wsrouter.HandlerFunc[*wsConn]) wsrouter.HandlerFunc[*wsConn] {
		return func(ctx context.Context, conn *wsConn, payload json.RawMessage) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
			c.logger.DebugContext(ctx, "websocket message received", "payload", string(payload))

			start := time.Now()

			err := next(ctx, conn, payload)

			c.logger.DebugContext(ctx, "websocket message handled",
				"processing_time_us", time.Since(start).Microseconds(),
				"queued", len(conn.send),
			)

			return err
		}
	}
}

package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/moveefy/server/internal/service/room"
	"github.com/moveefy/server/pkg/ctxlogger"
	"github.com/moveefy/server/pkg/rest"
)

func (c controller) connect(w http.ResponseWriter, r *http.Request) {
	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	c.serveConn(r.Context(), ws, nil)
}

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	input := JoinRoomInput{
		RoomId:   chi.URLParam(r, "room-id"),
		Username: r.URL.Query().Get("username"),
	}
	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.logger.InfoContext(r.Context(), "invalid join request", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	c.serveConn(r.Context(), ws, &input)
}

// serveConn runs the connection until the client goes away. The calling
// goroutine becomes the read loop; disconnect cleanup runs when it returns.
func (c controller) serveConn(ctx context.Context, ws *websocket.Conn, join *JoinRoomInput) {
	conn := newWSConn(uuid.NewString(), ws, c.cfg.SendBuffer)
	ctx = context.WithValue(ctx, connIdCtxKey, conn.Id())
	ctx = ctxlogger.AppendCtx(ctx, slog.String("connection_id", conn.Id()))

	if err := c.roomService.ConnectMember(ctx, &room.ConnectMemberParams{Conn: conn}); err != nil {
		c.logger.WarnContext(ctx, "failed to connect member", "error", err)
		ws.Close()
		return
	}
	defer c.disconnect(ctx)

	go c.writePump(ctx, conn)

	if err := conn.write(&Output{
		Type:    "CONNECTED",
		Payload: connectedOutput{ConnectionId: conn.Id()},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to write connected", "error", err)
		conn.Close()
		return
	}

	if join != nil {
		if err := c.handleJoinRoom(ctx, conn, *join); err != nil {
			c.handleDispatchError(ctx, conn, err)
		}
	}

	c.logger.InfoContext(ctx, "connection attached")
	c.readPump(ctx, conn)
}

func (c controller) disconnect(ctx context.Context) {
	connId := c.getConnIdFromCtx(ctx)
	resp := c.roomService.DisconnectMember(ctx, &room.DisconnectMemberParams{ConnId: connId})
	c.logger.InfoContext(ctx, "connection detached", "room_id", resp.RoomId, "left", resp.Left)
}

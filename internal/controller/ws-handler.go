package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/moveefy/server/internal/domain"
	"github.com/moveefy/server/internal/service/room"
	"github.com/moveefy/server/pkg/validator"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type connectedOutput struct {
	ConnectionId string `json:"connection_id"`
}

type playbackOutput struct {
	From string `json:"from"`
}

type seekToOutput struct {
	Timestamp float64 `json:"timestamp"`
	From      string  `json:"from"`
}

type membershipChangedOutput struct {
	Members []string `json:"members"`
}

type pongOutput struct {
	Timestamp  float64 `json:"timestamp"`
	ServerTime int64   `json:"server_time"`
}

type errorOutput struct {
	Message string                      `json:"message"`
	Errors  []validator.ValidationError `json:"errors,omitempty"`
}

func outputFromEvent(ev domain.Event) *Output {
	var payload any
	switch ev.Kind {
	case domain.KindSeekTo:
		payload = seekToOutput{Timestamp: ev.Timestamp, From: ev.From}
	case domain.KindMembershipChanged:
		payload = membershipChangedOutput{Members: ev.Members}
	default:
		payload = playbackOutput{From: ev.From}
	}

	return &Output{
		Type:    string(ev.Kind),
		Payload: payload,
	}
}

// handleDispatchError answers invalid control messages with ERROR. Dropped
// playback actions are only logged.
func (c controller) handleDispatchError(ctx context.Context, conn *wsConn, err error) {
	if room.IsDropped(err) {
		c.logger.DebugContext(ctx, "action dropped", "error", err)
		return
	}

	c.logger.InfoContext(ctx, "failed to handle message", "error", err)
	if err := conn.write(&Output{
		Type: "ERROR",
		Payload: errorOutput{
			Message: err.Error(),
			Errors:  validationErrorsOf(err),
		},
	}); err != nil {
		c.logger.DebugContext(ctx, "failed to write error", "error", err)
	}
}

type JoinRoomInput struct {
	RoomId   string `json:"room_id" validate:"required,max=64"`
	Username string `json:"username" validate:"required,max=32"`
}

func (c controller) handleJoinRoom(ctx context.Context, conn *wsConn, input JoinRoomInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	if _, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		Conn:     conn,
		RoomId:   input.RoomId,
		Username: input.Username,
	}); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	return nil
}

type LeaveRoomInput struct {
	RoomId string `json:"room_id" validate:"required,max=64"`
}

func (c controller) handleLeaveRoom(ctx context.Context, conn *wsConn, input LeaveRoomInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	resp := c.roomService.LeaveRoom(ctx, &room.LeaveRoomParams{
		ConnId: conn.Id(),
		RoomId: input.RoomId,
	})
	if !resp.Left {
		c.logger.DebugContext(ctx, "not a member of the room", "room_id", input.RoomId)
	}

	return nil
}

type SendActionInput struct {
	RoomId string          `json:"room_id" validate:"required,max=64"`
	Action json.RawMessage `json:"action"`
}

func (c controller) handleSendAction(ctx context.Context, conn *wsConn, input SendActionInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	return c.roomService.SendAction(ctx, &room.SendActionParams{
		RoomId:   input.RoomId,
		SenderId: conn.Id(),
		Action:   input.Action,
	})
}

type PingInput struct {
	Timestamp float64 `json:"timestamp"`
}

func (c controller) handlePing(_ context.Context, conn *wsConn, input PingInput) error {
	if err := conn.write(&Output{
		Type: "PONG",
		Payload: pongOutput{
			Timestamp:  input.Timestamp,
			ServerTime: time.Now().UnixMilli(),
		},
	}); err != nil && !errors.Is(err, ErrConnClosed) {
		return fmt.Errorf("failed to write pong: %w", err)
	}

	return nil
}

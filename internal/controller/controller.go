package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/moveefy/server/internal/domain"
	"github.com/moveefy/server/internal/service/room"
	"github.com/moveefy/server/pkg/validator"
	"github.com/moveefy/server/pkg/wsrouter"
)

var (
	ErrValidationError = errors.New("validation error")
	ErrConnClosed      = domain.ErrConnClosed
	ErrSendBufferFull  = domain.ErrSendBufferFull
)

type iRoomService interface {
	ConnectMember(context.Context, *room.ConnectMemberParams) error
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(context.Context, *room.LeaveRoomParams) room.LeaveRoomResponse
	DisconnectMember(context.Context, *room.DisconnectMemberParams) room.DisconnectMemberResponse
	SendAction(context.Context, *room.SendActionParams) error
	MembersOf(ctx context.Context, roomId string) []string
	Stats() room.Stats
}

type Config struct {
	SendBuffer int
	ReadLimit  int64
	PongWait   time.Duration
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter[*wsConn]
	logger      *slog.Logger
	cfg         Config
}

func NewController(roomService iRoomService, logger *slog.Logger, cfg *Config) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		logger:      logger,
		cfg:         *cfg,
	}
	c.wsmux = c.getWSRouter()

	return c
}

package room

import (
	"encoding/json"

	"github.com/moveefy/server/internal/domain"
)

type ConnectMemberParams struct {
	Conn domain.Conn
}

type JoinRoomParams struct {
	Conn     domain.Conn
	RoomId   string
	Username string
}

type JoinRoomResponse struct {
	Members []string
	// PreviousRoomId is set when the connection was moved out of another room.
	PreviousRoomId string
}

type LeaveRoomParams struct {
	ConnId string
	RoomId string
}

type LeaveRoomResponse struct {
	Left bool
}

type DisconnectMemberParams struct {
	ConnId string
}

type DisconnectMemberResponse struct {
	RoomId string
	Left   bool
}

type RouteParams struct {
	RoomId   string
	SenderId string
	Event    domain.PlaybackEvent
}

type SendActionParams struct {
	RoomId   string
	SenderId string
	Action   json.RawMessage
}

type Stats struct {
	Rooms       int   `json:"rooms"`
	Members     int   `json:"members"`
	Connections int   `json:"connections"`
	Routed      int64 `json:"routed"`
	Dropped     int64 `json:"dropped"`
	Malformed   int64 `json:"malformed"`
	Evicted     int64 `json:"evicted"`
}

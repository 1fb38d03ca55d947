package controller

import (
	"github.com/moveefy/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter[*wsConn] {
	mux := wsrouter.New[*wsConn]()
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw())

	// membership
	wsrouter.Handle(mux, "JOIN_ROOM", c.handleJoinRoom)
	wsrouter.Handle(mux, "LEAVE_ROOM", c.handleLeaveRoom)

	// playback
	wsrouter.Handle(mux, "SEND_ACTION", c.handleSendAction)

	wsrouter.Handle(mux, "PING", c.handlePing)

	return mux
}

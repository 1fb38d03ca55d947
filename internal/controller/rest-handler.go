package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/moveefy/server/pkg/rest"
)

func (c controller) getStats(w http.ResponseWriter, r *http.Request) {
	if err := rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": c.roomService.Stats()}); err != nil {
		c.logger.InfoContext(r.Context(), "failed to write response", "error", err)
	}
}

type roomMembersResponse struct {
	RoomId  string   `json:"room_id"`
	Members []string `json:"members"`
}

func (c controller) getRoomMembers(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if err := rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": roomMembersResponse{
		RoomId:  roomId,
		Members: c.roomService.MembersOf(r.Context(), roomId),
	}}); err != nil {
		c.logger.InfoContext(r.Context(), "failed to write response", "error", err)
	}
}

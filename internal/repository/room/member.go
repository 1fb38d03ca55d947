package room

import "github.com/moveefy/server/internal/domain"

type Member struct {
	ConnId   string
	Username string
	Conn     domain.Conn
}

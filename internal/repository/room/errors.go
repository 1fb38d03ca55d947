package room

import "errors"

var ErrNotAMember = errors.New("connection is not a member of the room")

package presence

type Member struct {
	ConnId   string `json:"connection_id"`
	Username string `json:"username"`
}

type AddMemberParams struct {
	RoomId   string
	ConnId   string
	Username string
}

type RemoveMemberParams struct {
	RoomId string
	ConnId string
}

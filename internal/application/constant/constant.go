package constant

// Shared slog attribute keys.
const (
	Error  = "error"
	ConnID = "conn_id"
	RoomID = "room_id"
	Addr   = "addr"
	Type   = "type"
)

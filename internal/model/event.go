package model

// EventType identifies the internal, post-dispatch shape of a message. It is
// distinct from the wire eventType string (see internal/codec): several wire
// event types fan out into a chunk-bound and a client-bound internal event.
type EventType int

const (
	EventUnknown EventType = iota
	EventPingClient
	EventJoinCharacterChunk
	EventJoinCharacterClient
	EventGetConnectedCharactersChunk
	EventGetConnectedCharactersClient
	EventMoveCharacterChunk
	EventMoveCharacterClient
	EventSpawnMobsInZone
	EventDisconnectClient
	EventDisconnectClientChunk
)

func (t EventType) String() string {
	switch t {
	case EventPingClient:
		return "PING_CLIENT"
	case EventJoinCharacterChunk:
		return "JOIN_CHARACTER_CHUNK"
	case EventJoinCharacterClient:
		return "JOIN_CHARACTER_CLIENT"
	case EventGetConnectedCharactersChunk:
		return "GET_CONNECTED_CHARACTERS_CHUNK"
	case EventGetConnectedCharactersClient:
		return "GET_CONNECTED_CHARACTERS_CLIENT"
	case EventMoveCharacterChunk:
		return "MOVE_CHARACTER_CHUNK"
	case EventMoveCharacterClient:
		return "MOVE_CHARACTER_CLIENT"
	case EventSpawnMobsInZone:
		return "SPAWN_MOBS_IN_ZONE"
	case EventDisconnectClient:
		return "DISCONNECT_CLIENT"
	case EventDisconnectClientChunk:
		return "DISCONNECT_CLIENT_CHUNK"
	default:
		return "UNKNOWN"
	}
}

// Payload is the tagged union carried by an Event. Implementers match on the
// concrete type with a type switch; an unexpected type in a handler is a
// programming error — log and drop, never panic.
type Payload interface {
	isPayload()
}

// EmptyPayload carries no data (pings, disconnects with no extra body).
type EmptyPayload struct{}

func (EmptyPayload) isPayload() {}

// ClientDataPayload carries the fields parsed off a client frame's header and
// body: identity, the claimed session hash, and whatever character/position
// fields were present on the wire.
type ClientDataPayload struct {
	ClientID    int64
	SessionHash string
	CharacterID int64
	Position    Position
	Character   Character
}

func (ClientDataPayload) isPayload() {}

// PositionPayload carries a bare position update: the moveCharacter events
// in both directions need only the character and where it went.
type PositionPayload struct {
	CharacterID int64
	Position    Position
}

func (PositionPayload) isPayload() {}

// CharacterPayload carries a full character snapshot, the shape of the
// chunk server's joinGame echo back to the client.
type CharacterPayload struct {
	Character Character
}

func (CharacterPayload) isPayload() {}

// CharacterListPayload carries the roster of currently connected characters.
type CharacterListPayload struct {
	Characters []Character
}

func (CharacterListPayload) isPayload() {}

// Event is a single unit of routed work: a typed, queue-crossing copy of a
// parsed frame (or an internally synthesised disconnect) plus the Peer a
// handler should reply through.
type Event struct {
	Type     EventType
	ClientID int64
	Payload  Payload
	Peer     Peer
}

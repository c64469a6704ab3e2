// Package codec parses and builds the gateway's wire envelopes: framed JSON
// objects of the shape {"header": {...}, "body": {...}}. Every accessor is
// nullable by design — a missing field yields its zero value, never a
// parse error, since a single malformed field must not poison an otherwise
// well-formed frame.
package codec

import (
	"encoding/json"
	"time"

	"github.com/udisondev/mmogate/internal/model"
)

// Version is the envelope protocol version stamped on every outbound frame.
const Version = "1.0"

// Header is the envelope's routing and status metadata.
type Header struct {
	EventType string `json:"eventType"`
	ClientID  int64  `json:"clientId"`
	Hash      string `json:"hash"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Envelope is a raw, decoded frame: a typed header plus an undecoded body,
// so callers can run only the body parsers they need.
type Envelope struct {
	Header Header          `json:"header"`
	Body   json.RawMessage `json:"body"`
}

// Decode parses a single frame (with delimiter already stripped) into an
// Envelope. A frame that isn't valid JSON at all is the one case callers
// must treat as a ProtocolError — log and drop.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// body is the superset of body fields the wire vocabulary uses. Every field
// is optional and zero-values on absence; a field whose JSON type does not
// match makes Unmarshal report an error while the other fields still decode.
type body struct {
	CharacterID            int64              `json:"characterId"`
	CharacterLevel         int32              `json:"characterLevel"`
	CharacterName          string             `json:"characterName"`
	CharacterClass         string             `json:"characterClass"`
	CharacterRace          string             `json:"characterRace"`
	CharacterExp           int64              `json:"characterExp"`
	CharacterCurrentHealth int32              `json:"characterCurrentHealth"`
	CharacterCurrentMana   int32              `json:"characterCurrentMana"`
	PosX                   float32            `json:"posX"`
	PosY                   float32            `json:"posY"`
	PosZ                   float32            `json:"posZ"`
	RotZ                   float32            `json:"rotZ"`
	CharactersList         []characterListEnt `json:"charactersList"`
	ChunkIP                string             `json:"chunkIp"`
	ChunkPort              int                `json:"chunkPort"`
}

type characterListEnt struct {
	CharacterID    int64   `json:"characterId"`
	CharacterName  string  `json:"characterName"`
	CharacterLevel int32   `json:"characterLevel"`
	CharacterClass string  `json:"characterClass"`
	CharacterRace  string  `json:"characterRace"`
	PosX           float32 `json:"posX"`
	PosY           float32 `json:"posY"`
	PosZ           float32 `json:"posZ"`
	RotZ           float32 `json:"rotZ"`
}

func parseBody(env Envelope) body {
	var b body
	if len(env.Body) == 0 {
		return b
	}
	// Errors are swallowed by design: a malformed body field yields zero
	// values for that field, not a dropped frame.
	_ = json.Unmarshal(env.Body, &b)
	return b
}

// ParsePosition extracts the position fields from a frame's body.
func ParsePosition(env Envelope) model.Position {
	b := parseBody(env)
	return model.Position{X: b.PosX, Y: b.PosY, Z: b.PosZ, RotZ: b.RotZ}
}

// ParseCharacterData extracts a Character snapshot from a frame's body.
func ParseCharacterData(env Envelope) model.Character {
	b := parseBody(env)
	return model.Character{
		ID:    b.CharacterID,
		Level: b.CharacterLevel,
		Name:  b.CharacterName,
		Class: b.CharacterClass,
		Race:  b.CharacterRace,
		Exp:   b.CharacterExp,
		HP:    b.CharacterCurrentHealth,
		MP:    b.CharacterCurrentMana,
		Position: model.Position{
			X: b.PosX, Y: b.PosY, Z: b.PosZ, RotZ: b.RotZ,
		},
	}
}

// ParseClientData extracts the identity fields a handler needs to route a
// request: the header's clientId/hash plus whatever character fields rode
// along in the body.
func ParseClientData(env Envelope) model.ClientDataPayload {
	ch := ParseCharacterData(env)
	return model.ClientDataPayload{
		ClientID:    env.Header.ClientID,
		SessionHash: env.Header.Hash,
		CharacterID: ch.ID,
		Position:    ch.Position,
		Character:   ch,
	}
}

// MessageMeta is the response-side header subset: outcome status, free-text
// message and the responder's timestamp.
type MessageMeta struct {
	Status    string
	Message   string
	Timestamp string
}

// ParseMessageMeta extracts the response metadata from a frame's header.
func ParseMessageMeta(env Envelope) MessageMeta {
	return MessageMeta{
		Status:    env.Header.Status,
		Message:   env.Header.Message,
		Timestamp: env.Header.Timestamp,
	}
}

// ParseChunkHandshake extracts a chunk server's registration fields.
func ParseChunkHandshake(env Envelope) model.Chunk {
	b := parseBody(env)
	return model.Chunk{
		IP:   b.ChunkIP,
		Port: b.ChunkPort,
		Pos:  model.Position{X: b.PosX, Y: b.PosY, Z: b.PosZ},
	}
}

// ParseCharacterList extracts the roster carried in charactersList.
func ParseCharacterList(env Envelope) []model.Character {
	b := parseBody(env)
	out := make([]model.Character, 0, len(b.CharactersList))
	for _, c := range b.CharactersList {
		out = append(out, model.Character{
			ID:    c.CharacterID,
			Name:  c.CharacterName,
			Level: c.CharacterLevel,
			Class: c.CharacterClass,
			Race:  c.CharacterRace,
			Position: model.Position{
				X: c.PosX, Y: c.PosY, Z: c.PosZ, RotZ: c.RotZ,
			},
		})
	}
	return out
}

// Response builds an outbound envelope: eventType is echoed from the
// originating request, status/message describe the outcome, and fields
// holds the body dictionary to marshal.
func Response(eventType string, clientID int64, status, message string, fields map[string]any) ([]byte, error) {
	bodyJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	env := struct {
		Header Header          `json:"header"`
		Body   json.RawMessage `json:"body"`
	}{
		Header: Header{
			EventType: eventType,
			ClientID:  clientID,
			Status:    status,
			Message:   message,
			Timestamp: time.Now().Format("2006-01-02T15:04:05.000"),
			Version:   Version,
		},
		Body: bodyJSON,
	}
	return json.Marshal(env)
}

// CharacterListFields renders a roster into the body dictionary shape
// Response expects for a charactersList reply.
func CharacterListFields(chars []model.Character) map[string]any {
	list := make([]map[string]any, 0, len(chars))
	for _, c := range chars {
		list = append(list, map[string]any{
			"characterId":    c.ID,
			"characterName":  c.Name,
			"characterLevel": c.Level,
			"characterClass": c.Class,
			"characterRace":  c.Race,
			"posX":           c.Position.X,
			"posY":           c.Position.Y,
			"posZ":           c.Position.Z,
			"rotZ":           c.Position.RotZ,
		})
	}
	return map[string]any{"charactersList": list}
}

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/mmogate/internal/model"
)

// TestDecodeMissingFieldsZeroValue asserts the codec's nullable-field
// contract: a body missing every field decodes without error, yielding
// zero-valued fields rather than a parse failure.
func TestDecodeMissingFieldsZeroValue(t *testing.T) {
	frame := []byte(`{"header":{"eventType":"joinGame","clientId":42,"hash":"abc"}}`)
	env, err := Decode(frame)
	require.NoError(t, err)

	assert.Equal(t, "joinGame", env.Header.EventType)
	assert.Equal(t, int64(42), env.Header.ClientID)

	pos := ParsePosition(env)
	assert.Equal(t, model.Position{}, pos)

	data := ParseClientData(env)
	assert.Equal(t, int64(42), data.ClientID)
	assert.Equal(t, "abc", data.SessionHash)
	assert.Zero(t, data.CharacterID)
}

// TestDecodeMalformedJSONErrors asserts that an entirely malformed frame is
// the one case callers must treat as a ProtocolError.
func TestDecodeMalformedJSONErrors(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	assert.Error(t, err)
}

// TestDecodeMalformedBodyFieldDoesNotPoisonFrame asserts that a body field
// with the wrong JSON type doesn't fail the whole frame — it's swallowed by
// parseBody and other independently-parsed fields still resolve.
func TestDecodeMalformedBodyFieldDoesNotPoisonFrame(t *testing.T) {
	frame := []byte(`{"header":{"eventType":"moveCharacter","clientId":1},"body":{"posX":"not-a-number","characterId":7}}`)
	env, err := Decode(frame)
	require.NoError(t, err)

	data := ParseClientData(env)
	assert.Equal(t, int64(1), data.ClientID)
}

// TestResponseRoundTrip is the decoding round-trip: encoding
// a response and re-parsing it yields the originating fields.
func TestResponseRoundTrip(t *testing.T) {
	fields := map[string]any{
		"characterId":    float64(7),
		"characterName":  "Testolas",
		"characterLevel": float64(10),
		"posX":           float64(1),
		"posY":           float64(2),
		"posZ":           float64(3),
	}
	frame, err := Response("joinGame", 42, "success", "", fields)
	require.NoError(t, err)

	env, err := Decode(frame)
	require.NoError(t, err)

	assert.Equal(t, "joinGame", env.Header.EventType)
	assert.Equal(t, int64(42), env.Header.ClientID)
	assert.Equal(t, "success", env.Header.Status)
	assert.Equal(t, Version, env.Header.Version)
	assert.NotEmpty(t, env.Header.Timestamp)

	meta := ParseMessageMeta(env)
	assert.Equal(t, "success", meta.Status)
	assert.Equal(t, env.Header.Timestamp, meta.Timestamp)

	data := ParseClientData(env)
	assert.Equal(t, int64(7), data.CharacterID)
	assert.Equal(t, "Testolas", data.Character.Name)
	assert.Equal(t, int32(10), data.Character.Level)
	assert.Equal(t, float32(1), data.Position.X)
	assert.Equal(t, float32(2), data.Position.Y)
	assert.Equal(t, float32(3), data.Position.Z)
}

// TestCharacterListRoundTrip covers the charactersList array shape used by
// getConnectedCharacters responses.
func TestCharacterListRoundTrip(t *testing.T) {
	chars := []model.Character{
		{ID: 1, Name: "Alice", Level: 5, Class: "mage", Race: "elf", Position: model.Position{X: 1, Y: 2, Z: 3, RotZ: 45}},
		{ID: 2, Name: "Bob", Level: 8, Class: "warrior", Race: "human"},
	}
	frame, err := Response("getConnectedCharacters", 1, "success", "", CharacterListFields(chars))
	require.NoError(t, err)

	env, err := Decode(frame)
	require.NoError(t, err)

	got := ParseCharacterList(env)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "Alice", got[0].Name)
	assert.Equal(t, float32(45), got[0].Position.RotZ)
	assert.Equal(t, int64(2), got[1].ID)
	assert.Equal(t, "Bob", got[1].Name)
}

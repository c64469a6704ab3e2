package dispatch

import (
	"context"

	"github.com/udisondev/mmogate/internal/codec"
	"github.com/udisondev/mmogate/internal/model"
)

// handle is the reentrant handler matrix entry point. It recovers
// from and logs anything unexpected rather than letting a single bad event
// take down a worker-pool shard — nothing propagates across a handler
// boundary, per the error handling design.
func (d *Dispatcher) handle(ctx context.Context, ev model.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("handler panic recovered", "eventType", ev.Type.String(), "panic", r)
		}
	}()

	switch ev.Type {
	case model.EventPingClient:
		d.handlePing(ev)
	case model.EventJoinCharacterChunk:
		d.handleJoinCharacterChunk(ctx, ev)
	case model.EventJoinCharacterClient:
		d.handleJoinCharacterClient(ev)
	case model.EventGetConnectedCharactersChunk:
		d.handleForwardToChunk(wireGetConnectedCharacters, ev)
	case model.EventGetConnectedCharactersClient:
		d.handleGetConnectedCharactersClient(ev)
	case model.EventMoveCharacterChunk:
		d.handleMoveCharacterChunk(ev)
	case model.EventMoveCharacterClient:
		d.handleMoveCharacterClient(ev)
	case model.EventSpawnMobsInZone:
		d.handleSpawnMobsInZone(ev)
	case model.EventDisconnectClient:
		d.handleDisconnectClient(ctx, ev)
	case model.EventDisconnectClientChunk:
		d.handleForwardToChunk(wireDisconnectClient, ev)
	default:
		d.log.Error("unhandled event type in worker pool", "eventType", ev.Type.String())
	}
}

func (d *Dispatcher) handlePing(ev model.Event) {
	if ev.Peer == nil || ev.Peer.Closed() {
		return
	}
	frame, err := codec.Response(wirePingClient, ev.ClientID, "success", "pong", nil)
	if err != nil {
		d.log.Error("encoding pong failed", "error", err)
		return
	}
	d.sendClient(ev.Peer, frame)
}

// handleJoinCharacterChunk registers the Client under its socket, then
// forwards the joinGame request to the chunk server. Authentication
// (missing hash/clientId) fails closed with an error status to the client,
// keeping the socket open.
func (d *Dispatcher) handleJoinCharacterChunk(ctx context.Context, ev model.Event) {
	data, ok := ev.Payload.(model.ClientDataPayload)
	if !ok {
		d.log.Error("join event with wrong payload tag")
		return
	}
	if data.SessionHash == "" || data.ClientID == 0 {
		frame, _ := codec.Response(wireJoinGame, ev.ClientID, "error", "Authentication failed for user!", nil)
		d.sendClient(ev.Peer, frame)
		return
	}

	storedHash, err := d.refRepo.GetOrCreateUser(ctx, data.ClientID, data.SessionHash)
	if err != nil {
		d.log.Error("user lookup failed", "clientId", data.ClientID, "error", err)
		frame, _ := codec.Response(wireJoinGame, ev.ClientID, "error", "Authentication failed for user!", nil)
		d.sendClient(ev.Peer, frame)
		return
	}
	if storedHash != data.SessionHash {
		frame, _ := codec.Response(wireJoinGame, ev.ClientID, "error", "Authentication failed for user!", nil)
		d.sendClient(ev.Peer, frame)
		return
	}

	client := model.Client{ClientID: data.ClientID, SessionKey: data.SessionHash, Peer: ev.Peer}
	if loaded, err := d.charRepo.GetCharacter(ctx, data.ClientID); err != nil {
		d.log.Error("character load failed", "clientId", data.ClientID, "error", err)
	} else if !loaded.IsZero() {
		if attrs, err := d.charRepo.GetCharacterAttributes(ctx, loaded.ID); err != nil {
			d.log.Error("character attribute load failed", "characterId", loaded.ID, "error", err)
		} else {
			loaded.Attributes = attrs
		}
		if skills, err := d.charRepo.GetCharacterSkills(ctx, loaded.ID); err != nil {
			d.log.Error("character skill load failed", "characterId", loaded.ID, "error", err)
		} else {
			loaded.Skills = skills
		}
		if pos, err := d.charRepo.GetCharacterPosition(ctx, loaded.ID); err != nil {
			d.log.Error("character position load failed", "characterId", loaded.ID, "error", err)
		} else {
			loaded.Position = pos
		}
		d.caches.Characters.Upsert(loaded)
		client.Character = &loaded
	}
	d.caches.Clients.Upsert(client)
	d.handleForwardToChunk(wireJoinGame, ev)
}

func (d *Dispatcher) handleJoinCharacterClient(ev model.Event) {
	data, ok := ev.Payload.(model.CharacterPayload)
	if !ok {
		return
	}
	ch := data.Character
	d.caches.Characters.Upsert(ch)
	cl := d.caches.Clients.Get(ev.ClientID)
	if cl.IsZero() {
		return
	}
	cl.Character = &ch
	d.caches.Clients.Upsert(cl)
	fields := map[string]any{
		"characterId":    ch.ID,
		"characterName":  ch.Name,
		"characterLevel": ch.Level,
	}
	frame, err := codec.Response(wireJoinGame, ev.ClientID, "success", "", fields)
	if err != nil {
		d.log.Error("encoding joinGame response failed", "error", err)
		return
	}
	d.sendClient(cl.Peer, frame)
}

func (d *Dispatcher) handleGetConnectedCharactersClient(ev model.Event) {
	payload, ok := ev.Payload.(model.CharacterListPayload)
	if !ok {
		return
	}
	cl := d.caches.Clients.Get(ev.ClientID)
	if cl.IsZero() {
		return
	}
	frame, err := codec.Response(wireGetConnectedCharacters, ev.ClientID, "success", "", codec.CharacterListFields(payload.Characters))
	if err != nil {
		d.log.Error("encoding character list response failed", "error", err)
		return
	}
	d.sendClient(cl.Peer, frame)
}

// handleMoveCharacterChunk updates the cached position (dropping with a
// log when the character is not cached) and forwards the move to the
// chunk server.
func (d *Dispatcher) handleMoveCharacterChunk(ev model.Event) {
	data, ok := ev.Payload.(model.PositionPayload)
	if !ok {
		return
	}
	updated := d.caches.Characters.Mutate(data.CharacterID, func(c model.Character) model.Character {
		c.Position = data.Position
		return c
	})
	if !updated {
		d.log.Error("moveCharacter against uncached character, dropping", "characterId", data.CharacterID)
		return
	}
	d.handleForwardToChunk(wireMoveCharacter, ev)
}

// handleMoveCharacterClient applies the chunk-echoed authoritative position
// and sends it back to the origin client only; other connected clients are
// not notified.
func (d *Dispatcher) handleMoveCharacterClient(ev model.Event) {
	data, ok := ev.Payload.(model.PositionPayload)
	if !ok {
		return
	}
	d.caches.Characters.Mutate(data.CharacterID, func(c model.Character) model.Character {
		c.Position = data.Position
		return c
	})
	cl := d.caches.Clients.Get(ev.ClientID)
	if cl.IsZero() {
		return
	}
	fields := map[string]any{
		"characterId": data.CharacterID,
		"posX":        data.Position.X,
		"posY":        data.Position.Y,
		"posZ":        data.Position.Z,
		"rotZ":        data.Position.RotZ,
	}
	frame, err := codec.Response(wireMoveCharacter, ev.ClientID, "success", "", fields)
	if err != nil {
		d.log.Error("encoding move response failed", "error", err)
		return
	}
	d.sendClient(cl.Peer, frame)
}

// handleSpawnMobsInZone tops up every known zone, then replies to the
// origin with the full roster of spawned mobs across all zones.
func (d *Dispatcher) handleSpawnMobsInZone(ev model.Event) {
	zones := d.caches.SpawnZones.GetAll()
	for _, z := range zones {
		d.spawner.SpawnMobsInZone(z.ZoneID)
	}

	mobs := make([]map[string]any, 0)
	for _, z := range d.caches.SpawnZones.GetAll() {
		for _, m := range z.SpawnedMobs {
			mobs = append(mobs, map[string]any{
				"zoneId": z.ZoneID,
				"uid":    m.UID,
				"race":   m.Race,
				"level":  m.Level,
				"posX":   m.Position.X,
				"posY":   m.Position.Y,
				"posZ":   m.Position.Z,
			})
		}
	}
	frame, err := codec.Response(wireGetSpawnZones, ev.ClientID, "success", "", map[string]any{"mobs": mobs})
	if err != nil {
		d.log.Error("encoding spawn zone response failed", "error", err)
		return
	}
	d.sendClient(ev.Peer, frame)
}

// handleDisconnectClient removes the Client and runs a final Character
// flush. No reply is sent — the socket is already gone by the time this
// runs.
func (d *Dispatcher) handleDisconnectClient(ctx context.Context, ev model.Event) {
	if ev.ClientID == 0 {
		return
	}
	cl := d.caches.Clients.Get(ev.ClientID)
	d.caches.Clients.Remove(ev.ClientID)
	if !cl.IsZero() && cl.Character != nil {
		d.persist.FlushOne(ctx, cl.Character.ID)
		d.caches.Characters.Remove(cl.Character.ID)
	}
}

// handleForwardToChunk re-encodes an event's payload as the given wire
// event type and sends it to the chunk server. If the chunk link is down
// the frame is dropped and logged; the chunk socket reconnects
// independently.
func (d *Dispatcher) handleForwardToChunk(wireEventType string, ev model.Event) {
	if d.chunk == nil || d.chunk.Closed() {
		d.log.Error("chunk link unavailable, dropping forwarded event", "eventType", wireEventType)
		return
	}
	fields := map[string]any{}
	switch data := ev.Payload.(type) {
	case model.ClientDataPayload:
		fields["characterId"] = data.CharacterID
		fields["posX"] = data.Position.X
		fields["posY"] = data.Position.Y
		fields["posZ"] = data.Position.Z
		fields["rotZ"] = data.Position.RotZ
	case model.PositionPayload:
		fields["characterId"] = data.CharacterID
		fields["posX"] = data.Position.X
		fields["posY"] = data.Position.Y
		fields["posZ"] = data.Position.Z
		fields["rotZ"] = data.Position.RotZ
	}
	frame, err := codec.Response(wireEventType, ev.ClientID, "", "", fields)
	if err != nil {
		d.log.Error("encoding chunk forward failed", "eventType", wireEventType, "error", err)
		return
	}
	if err := d.chunk.Send(frame); err != nil {
		d.log.Error("sending to chunk server failed", "eventType", wireEventType, "error", err)
	}
}

func (d *Dispatcher) sendClient(peer model.Peer, frame []byte) {
	if peer == nil || peer.Closed() {
		return
	}
	if err := peer.Send(frame); err != nil {
		d.log.Error("client write failed, disconnecting", "error", err)
		peer.Close()
	}
}

// Package dispatch maps wire events to typed internal Events, routes them
// through three queue lanes, and runs the handler matrix that replies to
// clients, forwards to the chunk server, and mutates the domain caches.
package dispatch

import (
	"context"

	"github.com/udisondev/mmogate/internal/cache"
	"github.com/udisondev/mmogate/internal/codec"
	"github.com/udisondev/mmogate/internal/config"
	"github.com/udisondev/mmogate/internal/db"
	"github.com/udisondev/mmogate/internal/eventqueue"
	"github.com/udisondev/mmogate/internal/logging"
	"github.com/udisondev/mmogate/internal/model"
)

// Wire event type strings.
const (
	wireJoinGame               = "joinGame"
	wireGetConnectedCharacters = "getConnectedCharacters"
	wireMoveCharacter          = "moveCharacter"
	wireDisconnectClient       = "disconnectClient"
	wirePingClient             = "pingClient"
	wireGetSpawnZones          = "getSpawnZones"
)

// SpawnZoneService is the narrow interface the dispatcher needs from the
// spawn engine, injected at construction to break what would otherwise be
// a cyclic dependency between the dispatcher and the world-simulation
// package.
type SpawnZoneService interface {
	SpawnMobsInZone(zoneID int64)
}

// ChunkSender is the narrow interface the dispatcher needs to forward a
// frame to the chunk server, satisfied by chunkpeer.Peer.
type ChunkSender interface {
	Send(frame []byte) error
	Closed() bool
}

// Dispatcher owns the event lanes, the worker pool, and every handler. It
// implements frontend.Dispatcher and chunkpeer.Handler.
type Dispatcher struct {
	caches   *cache.Caches
	lanes    *eventqueue.Lanes
	pool     *WorkerPool
	spawner  SpawnZoneService
	persist  *db.PersistenceService
	charRepo *db.CharacterRepository
	refRepo  *db.ReferenceRepository
	chunk    ChunkSender
	cfg      config.EventDispatcherConfig
	log      *logging.Logger
}

// New constructs a Dispatcher. The chunk sender starts nil: the gateway
// builds the chunk peer after the dispatcher and then calls SetChunkSender,
// before the peer has connected.
func New(caches *cache.Caches, lanes *eventqueue.Lanes, pool *WorkerPool, spawner SpawnZoneService, persist *db.PersistenceService, charRepo *db.CharacterRepository, refRepo *db.ReferenceRepository, cfg config.EventDispatcherConfig, log *logging.Logger) *Dispatcher {
	return &Dispatcher{caches: caches, lanes: lanes, pool: pool, spawner: spawner, persist: persist, charRepo: charRepo, refRepo: refRepo, cfg: cfg, log: log}
}

// SetChunkSender wires the outbound chunk peer; its Closed state, not the
// call time, tells handlers whether the link is usable.
func (d *Dispatcher) SetChunkSender(s ChunkSender) {
	d.chunk = s
}

// Dispatch maps an inbound client envelope to a typed Event and pushes it
// onto the correct lane. Unknown event types are logged and dropped.
func (d *Dispatcher) Dispatch(env codec.Envelope, peer model.Peer) {
	switch env.Header.EventType {
	case wirePingClient:
		d.lanes.Ping.Push(model.Event{Type: model.EventPingClient, ClientID: env.Header.ClientID, Peer: peer, Payload: model.EmptyPayload{}})
	case wireJoinGame:
		d.lanes.ChunkBound.Push(model.Event{Type: model.EventJoinCharacterChunk, ClientID: env.Header.ClientID, Peer: peer, Payload: codec.ParseClientData(env)})
	case wireGetConnectedCharacters:
		d.lanes.ChunkBound.Push(model.Event{Type: model.EventGetConnectedCharactersChunk, ClientID: env.Header.ClientID, Peer: peer, Payload: model.EmptyPayload{}})
	case wireMoveCharacter:
		data := codec.ParseClientData(env)
		d.lanes.ChunkBound.Push(model.Event{Type: model.EventMoveCharacterChunk, ClientID: env.Header.ClientID, Peer: peer, Payload: model.PositionPayload{CharacterID: data.CharacterID, Position: data.Position}})
	case wireDisconnectClient:
		d.lanes.ChunkBound.Push(model.Event{Type: model.EventDisconnectClientChunk, ClientID: env.Header.ClientID, Peer: peer, Payload: model.EmptyPayload{}})
	case wireGetSpawnZones:
		d.lanes.ClientBound.Push(model.Event{Type: model.EventSpawnMobsInZone, ClientID: env.Header.ClientID, Peer: peer, Payload: codec.ParseClientData(env)})
	default:
		d.log.Error("unknown event type", "eventType", env.Header.EventType)
	}
}

// HandleChunkFrame maps a frame received from the chunk server to the
// matching *_CLIENT event and pushes it onto the client-bound lane.
func (d *Dispatcher) HandleChunkFrame(env codec.Envelope) {
	clientData := codec.ParseClientData(env)

	switch env.Header.EventType {
	case wireJoinGame:
		if clientData.SessionHash == "" || clientData.ClientID == 0 {
			return
		}
		d.lanes.ClientBound.Push(model.Event{Type: model.EventJoinCharacterClient, ClientID: clientData.ClientID, Payload: model.CharacterPayload{Character: clientData.Character}})
	case wireGetConnectedCharacters:
		if clientData.ClientID == 0 {
			return
		}
		d.lanes.ClientBound.Push(model.Event{Type: model.EventGetConnectedCharactersClient, ClientID: clientData.ClientID, Payload: model.CharacterListPayload{Characters: codec.ParseCharacterList(env)}})
	case wireMoveCharacter:
		if clientData.ClientID == 0 || clientData.CharacterID == 0 {
			return
		}
		d.lanes.ClientBound.Push(model.Event{Type: model.EventMoveCharacterClient, ClientID: clientData.ClientID, Payload: model.PositionPayload{CharacterID: clientData.CharacterID, Position: clientData.Position}})
	case wireDisconnectClient:
		if clientData.ClientID == 0 {
			return
		}
		d.lanes.ClientBound.Push(model.Event{Type: model.EventDisconnectClient, ClientID: clientData.ClientID, Payload: clientData})
	default:
		d.log.Error("unknown chunk event type", "eventType", env.Header.EventType)
	}
}

// HandleDisconnect enqueues the two-event disconnect sequence for a client
// session going away. A call for a client no longer in the cache (such as a
// second call after the first was handled) resolves to clientId 0: the
// client-bound handler no-ops on that CacheMiss, while the chunk-bound
// handler still forwards a disconnectClient frame carrying clientId 0.
func (d *Dispatcher) HandleDisconnect(peer model.Peer) {
	cl := d.caches.Clients.GetBySocket(peer.Key())
	payload := model.ClientDataPayload{ClientID: cl.ClientID}
	d.lanes.ClientBound.Push(model.Event{Type: model.EventDisconnectClient, ClientID: cl.ClientID, Peer: peer, Payload: payload})
	d.lanes.ChunkBound.Push(model.Event{Type: model.EventDisconnectClientChunk, ClientID: cl.ClientID, Peer: peer, Payload: payload})
}

// Run starts the three dispatch loops, each draining its lane in batches
// and submitting every event to the worker pool shard owned by its
// clientId.
func (d *Dispatcher) Run(ctx context.Context) {
	go d.drainLoop(ctx, d.lanes.Ping, d.pingBatchSize())
	go d.drainLoop(ctx, d.lanes.ChunkBound, d.batchSize())
	go d.drainLoop(ctx, d.lanes.ClientBound, d.batchSize())
}

func (d *Dispatcher) batchSize() int {
	if d.cfg.NormalBatchSize > 0 {
		return d.cfg.NormalBatchSize
	}
	return 10
}

func (d *Dispatcher) pingBatchSize() int {
	if d.cfg.PingBatchSize > 0 {
		return d.cfg.PingBatchSize
	}
	return 1
}

func (d *Dispatcher) drainLoop(ctx context.Context, q *eventqueue.Queue, batchSize int) {
	for {
		batch, ok := q.PopBatch(batchSize)
		if !ok {
			return
		}
		for _, e := range batch {
			ev := e
			d.pool.Submit(ev.ClientID, func(ctx context.Context) {
				d.handle(ctx, ev)
			})
		}
	}
}

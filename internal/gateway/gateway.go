// Package gateway wires every subsystem together and owns the order in
// which they start up and shut down.
package gateway

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/mmogate/internal/cache"
	"github.com/udisondev/mmogate/internal/chunkpeer"
	"github.com/udisondev/mmogate/internal/codec"
	"github.com/udisondev/mmogate/internal/config"
	"github.com/udisondev/mmogate/internal/db"
	"github.com/udisondev/mmogate/internal/dispatch"
	"github.com/udisondev/mmogate/internal/eventqueue"
	"github.com/udisondev/mmogate/internal/frontend"
	"github.com/udisondev/mmogate/internal/logging"
	"github.com/udisondev/mmogate/internal/model"
	"github.com/udisondev/mmogate/internal/scheduler"
	"github.com/udisondev/mmogate/internal/spawn"
)

const (
	flushInterval     = 5 * time.Second
	mobMoveInterval   = 300 * time.Millisecond
	telemetryInterval = 10 * time.Second

	// taskIDFlush, taskIDTelemetry and taskIDZoneOffset keep the scheduler's
	// task ids disjoint: fixed tasks take the low ids, each zone's wander task
	// is taskIDZoneOffset+zoneID, and its respawn task is the negation of that.
	taskIDFlush      = 0
	taskIDTelemetry  = 1
	taskIDZoneOffset = 1 << 32
)

// Gateway owns every long-running subsystem and the order in which they
// start up and shut down.
type Gateway struct {
	cfg config.Config
	log *logging.Logger

	database *db.DB
	caches   *cache.Caches
	sched    *scheduler.Scheduler
	lanes    *eventqueue.Lanes
	pool     *dispatch.WorkerPool
	engine   *spawn.Engine
	disp     *dispatch.Dispatcher
	persist  *db.PersistenceService

	frontendSrv *frontend.Server
	chunk       *chunkpeer.Peer
}

// New constructs every subsystem but starts nothing. Run starts the whole
// gateway and blocks until ctx is cancelled or a subsystem fails fatally.
func New(ctx context.Context, cfg config.Config, log *logging.Logger) (*Gateway, error) {
	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		database.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	caches := cache.New()
	refRepo := db.NewReferenceRepository(database.Pool())
	charRepo := db.NewCharacterRepository(database.Pool())

	mobTemplates, err := refRepo.LoadMobTemplates(ctx)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("loading mob templates: %w", err)
	}
	caches.MobTemplates.LoadAll(mobTemplates)

	npcs, err := refRepo.LoadNpcs(ctx)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("loading npcs: %w", err)
	}
	caches.Npcs.LoadAll(npcs)

	items, err := refRepo.LoadItems(ctx)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("loading items: %w", err)
	}
	caches.Items.LoadAll(items)

	zones, err := refRepo.LoadSpawnZones(ctx)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("loading spawn zones: %w", err)
	}
	caches.SpawnZones.LoadAll(zones)

	log.Info("reference data loaded",
		"mobTemplates", len(mobTemplates), "npcs", len(npcs), "items", len(items), "zones", len(zones))

	persist := db.NewPersistenceService(database.Pool(), charRepo, caches.Characters, log)
	engine := spawn.New(caches.SpawnZones, caches.MobTemplates, spawn.DefaultRNG{}, log)

	sched := scheduler.New(log)
	lanes := eventqueue.NewLanes()
	pool := dispatch.NewWorkerPool(ctx)

	disp := dispatch.New(caches, lanes, pool, engine, persist, charRepo, refRepo, cfg.Dispatcher, log)

	frontendSrv := frontend.New(cfg.GameServer.Addr(), cfg.GameServer.MaxClients, disp, log)
	chunk := chunkpeer.New(cfg.ChunkServer.Addr(), disp, log)
	disp.SetChunkSender(chunk)

	// The configured chunk server is registered up front: its cache entry
	// describes the peer the gateway is configured to reach, while the Peer's
	// own Closed() state tracks whether the link is currently up.
	caches.Chunks.Register(model.Chunk{
		IP:   cfg.ChunkServer.Host,
		Port: cfg.ChunkServer.Port,
		Peer: chunk,
	})

	return &Gateway{
		cfg: cfg, log: log,
		database: database, caches: caches, sched: sched, lanes: lanes, pool: pool,
		engine: engine, disp: disp, persist: persist,
		frontendSrv: frontendSrv, chunk: chunk,
	}, nil
}

// Run starts every subsystem and blocks until ctx is cancelled or a
// subsystem returns a fatal error: the outbound chunk link exhausting its
// reconnect budget, or the client acceptor failing to bind. On shutdown the
// client acceptor and chunk link close, then the scheduler is stopped and
// joined, then the queues close (which ends the dispatcher loops; Run does
// not wait for them), and the database pool closes last.
func (g *Gateway) Run(ctx context.Context) error {
	defer g.database.Close()
	defer g.lanes.Close()

	g.sched.Start(ctx)
	g.schedulePeriodicTasks()
	defer g.sched.Stop()

	g.disp.Run(ctx)

	gr, gctx := errgroup.WithContext(ctx)

	gr.Go(func() error {
		g.log.Info("starting client frontend", "addr", g.cfg.GameServer.Addr())
		if err := g.frontendSrv.Run(gctx); err != nil {
			return fmt.Errorf("client frontend: %w", err)
		}
		return nil
	})

	gr.Go(func() error {
		g.log.Info("starting chunk peer", "addr", g.cfg.ChunkServer.Addr())
		if err := g.chunk.Run(gctx); err != nil {
			return fmt.Errorf("chunk peer: %w", err)
		}
		return nil
	})

	err := gr.Wait()
	g.frontendSrv.Close()
	g.chunk.Close()
	return err
}

// schedulePeriodicTasks wires the recurring Scheduler tasks: one flush of
// dirty characters, and per spawn zone a wander tick plus a respawn-topup
// tick at the zone's own respawnTime cadence.
func (g *Gateway) schedulePeriodicTasks() {
	now := time.Now()

	g.sched.ScheduleTask(&scheduler.Task{
		ID:       taskIDFlush,
		Interval: flushInterval,
		Run: func(ctx context.Context) {
			g.persist.FlushDirty(ctx)
		},
	}, now.Add(flushInterval))

	g.sched.ScheduleTask(&scheduler.Task{
		ID:       taskIDTelemetry,
		Interval: telemetryInterval,
		Run: func(ctx context.Context) {
			g.reportTelemetry()
		},
	}, now.Add(telemetryInterval))

	for _, z := range g.caches.SpawnZones.GetAll() {
		zoneID := z.ZoneID

		g.sched.ScheduleTask(&scheduler.Task{
			ID:       taskIDZoneOffset + zoneID,
			Interval: mobMoveInterval,
			Run: func(ctx context.Context) {
				g.engine.MoveMobsInZone(zoneID)
			},
		}, now.Add(mobMoveInterval))

		respawn := z.RespawnTime
		if respawn <= 0 {
			respawn = 30 * time.Second
		}
		g.sched.ScheduleTask(&scheduler.Task{
			ID:       -(taskIDZoneOffset + zoneID),
			Interval: respawn,
			Run: func(ctx context.Context) {
				g.engine.SpawnMobsInZone(zoneID)
			},
		}, now)
	}
}

// reportTelemetry pushes a periodic status frame to the chunk server with
// the connected-client and standing-mob counts, and mirrors the same counts
// to the log. A down link just drops the frame; the next tick retries.
func (g *Gateway) reportTelemetry() {
	clients := g.caches.Clients.Count()
	mobs := 0
	for _, z := range g.caches.SpawnZones.GetAll() {
		mobs += z.SpawnedCount()
	}

	g.log.Info("gateway status", "connectedClients", clients, "spawnedMobs", mobs)

	if g.chunk.Closed() {
		return
	}
	frame, err := codec.Response("pingClient", 0, "", "", map[string]any{
		"connectedClients": clients,
		"spawnedMobs":      mobs,
	})
	if err != nil {
		g.log.Error("encoding telemetry frame failed", "error", err)
		return
	}
	if err := g.chunk.Send(frame); err != nil {
		g.log.Error("sending telemetry to chunk server failed", "error", err)
	}
}

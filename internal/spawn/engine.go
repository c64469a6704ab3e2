// Package spawn implements the zone-local mob spawning and wander engine:
// filling a zone up to its spawn count, stepping every mob's position on a
// cadence, and retiring mobs on death. The step-size, heading-bias and
// collision rules keep wandering mobs inside their zone box and apart from
// each other without pathfinding.
package spawn

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/udisondev/mmogate/internal/cache"
	"github.com/udisondev/mmogate/internal/logging"
	"github.com/udisondev/mmogate/internal/model"
)

const (
	minMoveDistance     = 120.0
	minSeparation       = 140.0
	baseSpeedMin        = 80.0
	baseSpeedMax        = 140.0
	stepMultiplierMin   = 1.2
	stepMultiplierMax   = 3.0
	jitterMin           = 0.85
	jitterMax           = 1.2
	borderAngleMin      = 30.0
	borderAngleMax      = 100.0
	blendFactorMin      = 0.2
	blendFactorMax      = 0.6
	rotationJitterDeg   = 5.0
	initialDelayMaxSec  = 5.0
	firstMoveDelayMinS  = 10.0
	firstMoveDelayMaxS  = 40.0
	nextMoveMinSec      = 12.0
	nextMoveMaxSec      = 28.0
	nextMoveFloorSec    = 7.0
	maxCandidateRetries = 4
)

// Engine runs the spawn/wander/death operations for every zone in a
// SpawnZoneCache. It holds no zone-specific state of its own: all mutable
// state lives in the cache, under its write lock.
type Engine struct {
	zones     *cache.SpawnZoneCache
	templates *cache.MobTemplateCache
	rng       WanderRNG
	log       *logging.Logger
	uidSeq    atomic.Int64
}

// New constructs a spawn Engine over the given caches.
func New(zones *cache.SpawnZoneCache, templates *cache.MobTemplateCache, rng WanderRNG, log *logging.Logger) *Engine {
	return &Engine{zones: zones, templates: templates, rng: rng, log: log}
}

func (e *Engine) nextUID(templateID, zoneID int64) string {
	seq := e.uidSeq.Add(1)
	return fmt.Sprintf("%d_%d%d%d", templateID, zoneID, time.Now().UnixNano(), seq)
}

// SpawnMobsInZone fills zoneId up to its SpawnCount. Runs entirely under the
// zone cache's write lock so concurrent callers cannot over-spawn.
func (e *Engine) SpawnMobsInZone(zoneID int64) {
	spawned := 0
	e.zones.Mutate(zoneID, func(z model.SpawnZone) model.SpawnZone {
		tmpl := e.templates.Get(z.MobTemplateID)
		if tmpl.TemplateID == 0 {
			e.log.Error("zone references unknown mob template", "zoneId", zoneID, "templateId", z.MobTemplateID)
			return z
		}
		for z.SpawnedCount() < z.SpawnCount {
			mob := model.FromTemplate(tmpl, zoneID)

			minX, minY := z.MinCorner()
			maxX, maxY := z.MaxCorner()
			mob.Position.X = float32(minX) + float32(e.rng.Float64())*float32(maxX-minX)
			mob.Position.Y = float32(minY) + float32(e.rng.Float64())*float32(maxY-minY)
			mob.Position.Z = 200
			mob.Position.RotZ = float32(e.rng.Uniform(0, 360))
			mob.UID = e.nextUID(tmpl.TemplateID, zoneID)

			z.SpawnedMobs = append(z.SpawnedMobs, mob)
			z.SpawnedMobsUIDs = append(z.SpawnedMobsUIDs, mob.UID)
			spawned++
		}
		return z
	})
	if spawned > 0 {
		e.log.Info("mobs spawned", "zoneId", zoneID, "count", spawned)
	}
}

// MobDied removes the mob with the given uid from its zone. SpawnedCount is
// derived from len(SpawnedMobs), so removing the slice entry is the whole
// operation.
func (e *Engine) MobDied(zoneID int64, uid string) {
	e.zones.Mutate(zoneID, func(z model.SpawnZone) model.SpawnZone {
		for i, m := range z.SpawnedMobs {
			if m.UID == uid {
				z.SpawnedMobs = append(z.SpawnedMobs[:i], z.SpawnedMobs[i+1:]...)
				break
			}
		}
		uids := z.SpawnedMobsUIDs[:0]
		for _, u := range z.SpawnedMobsUIDs {
			if u != uid {
				uids = append(uids, u)
			}
		}
		z.SpawnedMobsUIDs = uids
		return z
	})
}

// MoveMobsInZone advances every due mob in zoneId by one wander step. Must
// be called on a fixed cadence (a Scheduler task, typically every few
// hundred ms); a single call only moves mobs whose nextMoveTime has
// elapsed.
func (e *Engine) MoveMobsInZone(zoneID int64) {
	e.zones.Mutate(zoneID, func(z model.SpawnZone) model.SpawnZone {
		now := time.Now()
		minX, minY := z.MinCorner()
		maxX, maxY := z.MaxCorner()
		borderThreshold := 0.25 * math.Max(float64(z.Size.X), float64(z.Size.Y))
		maxStep := math.Min(0.08*float64(z.Size.X+z.Size.Y), 450)

		for i := range z.SpawnedMobs {
			e.stepMob(&z.SpawnedMobs[i], z, now, float64(minX), float64(minY), float64(maxX), float64(maxY), borderThreshold, maxStep)
		}
		return z
	})
}

func (e *Engine) stepMob(mob *model.Mob, z model.SpawnZone, now time.Time, minX, minY, maxX, maxY, borderThreshold, maxStep float64) {
	if mob.NextMoveTime.IsZero() {
		mob.NextMoveTime = now.Add(time.Duration((e.rng.Uniform(0, initialDelayMaxSec) + e.rng.Uniform(firstMoveDelayMinS, firstMoveDelayMaxS)) * float64(time.Second)))
		return
	}
	if now.Before(mob.NextMoveTime) {
		return
	}

	if mob.StepMultiplier == 0 {
		mob.StepMultiplier = e.rng.Uniform(stepMultiplierMin, stepMultiplierMax)
	}
	if mob.SpeedMultiplier == 0 {
		mob.SpeedMultiplier = 1
	}

	baseSpeed := e.rng.Uniform(baseSpeedMin, baseSpeedMax)
	jitter := e.rng.Uniform(jitterMin, jitterMax)
	stepSize := clamp(baseSpeed*mob.StepMultiplier*jitter, minMoveDistance, maxStep)

	mob.NextMoveTime = now.Add(time.Duration(math.Max(e.rng.Uniform(nextMoveMinSec, nextMoveMaxSec)/mob.SpeedMultiplier, nextMoveFloorSec) * float64(time.Second)))

	atBorder := mob.Position.X <= float32(minX)+float32(borderThreshold) ||
		mob.Position.X >= float32(maxX)-float32(borderThreshold) ||
		mob.Position.Y <= float32(minY)+float32(borderThreshold) ||
		mob.Position.Y >= float32(maxY)-float32(borderThreshold)

	var dirX, dirY, lastCandX, lastCandY float64
	found := false
	for try := 0; try < maxCandidateRetries; try++ {
		var headingRad float64
		if atBorder {
			angleToCenter := math.Atan2(float64(z.Center.Y)-float64(mob.Position.Y), float64(z.Center.X)-float64(mob.Position.X))
			headingRad = angleToCenter + e.rng.Uniform(borderAngleMin, borderAngleMax)*math.Pi/180
		} else {
			headingRad = e.rng.Uniform(0, 360) * math.Pi / 180
		}

		candX := math.Cos(headingRad)
		candY := math.Sin(headingRad)
		lastCandX, lastCandY = candX, candY
		testX := float64(mob.Position.X) + candX*stepSize
		testY := float64(mob.Position.Y) + candY*stepSize

		if testX < minX || testX > maxX || testY < minY || testY > maxY {
			continue
		}
		if e.tooClose(z, mob.UID, testX, testY) {
			continue
		}
		dirX, dirY = candX, candY
		found = true
		break
	}

	if !found {
		blend := e.rng.Uniform(blendFactorMin, blendFactorMax)
		curHeadingRad := mob.LastHeadingDeg * math.Pi / 180
		dirX = lastCandX*blend + math.Cos(curHeadingRad)*(1-blend)
		dirY = lastCandY*blend + math.Sin(curHeadingRad)*(1-blend)
	}

	newX := clamp(float64(mob.Position.X)+dirX*stepSize, minX, maxX)
	newY := clamp(float64(mob.Position.Y)+dirY*stepSize, minY, maxY)

	if e.tooClose(z, mob.UID, newX, newY) {
		return
	}

	mob.Position.X = float32(newX)
	mob.Position.Y = float32(newY)
	heading := math.Atan2(dirY, dirX) * 180 / math.Pi
	mob.LastHeadingDeg = heading
	mob.Position.RotZ = float32(heading + e.rng.Uniform(-rotationJitterDeg, rotationJitterDeg))
}

func (e *Engine) tooClose(z model.SpawnZone, selfUID string, x, y float64) bool {
	for _, other := range z.SpawnedMobs {
		if other.UID == selfUID {
			continue
		}
		dx := x - float64(other.Position.X)
		dy := y - float64(other.Position.Y)
		if math.Hypot(dx, dy) < minSeparation {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

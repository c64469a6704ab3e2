package model

import "time"

// MobTemplate is read-only reference data for a mob species, loaded once at
// startup (internal/db) and never mutated afterwards.
type MobTemplate struct {
	TemplateID int64
	Name       string
	Race       string
	Level      int32
	HP         int32
	MP         int32
	Aggressive bool
	Attributes []Attribute
}

// Mob is a single spawned, AI-controlled entity. It is owned exclusively by
// its SpawnZone and handed out by value (see SpawnZone.SpawnedMobs) so that a
// client or chunk peer can never hold a reference that outlives the zone's
// lock.
type Mob struct {
	UID        string
	TemplateID int64
	ZoneID     int64
	Level      int32
	Race       string
	HP         int32
	MP         int32
	Aggressive bool
	Dead       bool
	Position   Position
	Attributes []Attribute

	// Wander state (internal/spawn). NextMoveTime is zero until the mob's
	// first step is seeded.
	NextMoveTime    time.Time
	LastHeadingDeg  float64
	StepMultiplier  float64
	SpeedMultiplier float64
}

// FromTemplate materialises a Mob from its template. Position, UID and the
// wander parameters are filled in by the spawn engine.
func FromTemplate(t MobTemplate, zoneID int64) Mob {
	return Mob{
		TemplateID: t.TemplateID,
		ZoneID:     zoneID,
		Level:      t.Level,
		Race:       t.Race,
		HP:         t.HP,
		MP:         t.MP,
		Aggressive: t.Aggressive,
		Attributes: append([]Attribute(nil), t.Attributes...),
	}
}

package testutil

import "github.com/udisondev/mmogate/internal/model"

// Fixtures holds pre-built test data shared across packages, avoiding
// duplicated literal construction in every test file.
var Fixtures = struct {
	MobTemplate model.MobTemplate
	SpawnZone   model.SpawnZone
	Character   model.Character
}{
	MobTemplate: model.MobTemplate{
		TemplateID: 1001,
		Name:       "Test Wolf",
		Race:       "animal",
		Level:      5,
		HP:         120,
		MP:         0,
		Aggressive: true,
	},
	SpawnZone: model.SpawnZone{
		ZoneID:        1,
		Name:          "Test Meadow",
		Center:        model.Position{X: 0, Y: 0, Z: 200},
		Size:          model.Position{X: 1000, Y: 1000, Z: 0},
		MobTemplateID: 1001,
		SpawnCount:    5,
	},
	Character: model.Character{
		ID:      42,
		OwnerID: 7,
		Level:   10,
		Name:    "Testolas",
		Class:   "warrior",
		Race:    "human",
		HP:      500,
		MP:      100,
		MaxHP:   500,
		MaxMP:   100,
		Position: model.Position{X: 10, Y: 20, Z: 0, RotZ: 90},
	},
}

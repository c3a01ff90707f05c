package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/frontier-realms/world-server/internal/catalog"
	"github.com/frontier-realms/world-server/internal/combat"
	"github.com/frontier-realms/world-server/internal/model"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]model.TroopDefinition{
		{Type: "legionnaire", Attack: 40, DefenseVsInfantry: 35, DefenseVsCavalry: 50, IsCavalry: false},
		{Type: "equites_caesaris", Attack: 120, DefenseVsInfantry: 65, DefenseVsCavalry: 50, IsCavalry: true},
		{Type: "scout", Attack: 0, DefenseVsInfantry: 10, DefenseVsCavalry: 5, SpeedFieldsPerHour: 16, IsScout: true},
	})
}

func TestResolve_AttackerOverwhelms(t *testing.T) {
	cat := testCatalog()
	attacker := model.TroopCounts{"legionnaire": 1000}
	defender := model.TroopCounts{"legionnaire": 10}

	result := combat.Resolve(cat, attacker, defender, model.MissionAttack)

	assert.Equal(t, combat.WinnerAttacker, result.Winner)
	assert.Equal(t, int64(10), result.DefenderLosses["legionnaire"])
	assert.Less(t, result.AttackerLosses["legionnaire"], int64(1000))
}

func TestResolve_DefenderHolds(t *testing.T) {
	cat := testCatalog()
	attacker := model.TroopCounts{"legionnaire": 10}
	defender := model.TroopCounts{"legionnaire": 1000}

	result := combat.Resolve(cat, attacker, defender, model.MissionAttack)

	assert.Equal(t, combat.WinnerDefender, result.Winner)
	assert.Equal(t, int64(10), result.AttackerLosses["legionnaire"])
	assert.Less(t, result.DefenderLosses["legionnaire"], int64(1000))
}

func TestResolve_RaidAppliesFleeDiscount(t *testing.T) {
	cat := testCatalog()
	attacker := model.TroopCounts{"legionnaire": 10}
	defender := model.TroopCounts{"legionnaire": 1000}

	raid := combat.Resolve(cat, attacker, defender, model.MissionRaid)
	attack := combat.Resolve(cat, attacker, defender, model.MissionAttack)

	assert.Equal(t, combat.WinnerDefender, raid.Winner)
	assert.LessOrEqual(t, raid.AttackerLosses["legionnaire"], attack.AttackerLosses["legionnaire"])
}

func TestResolve_UndefendedVillageIsLossless(t *testing.T) {
	cat := testCatalog()
	attacker := model.TroopCounts{"legionnaire": 5}
	defender := model.TroopCounts{}

	result := combat.Resolve(cat, attacker, defender, model.MissionAttack)

	assert.Equal(t, combat.WinnerAttacker, result.Winner)
	assert.Empty(t, result.AttackerLosses)
	assert.Empty(t, result.DefenderLosses)
}

func TestSurvivors_DropsZeroedTypes(t *testing.T) {
	counts := model.TroopCounts{"legionnaire": 10, "scout": 2}
	losses := model.TroopCounts{"legionnaire": 10, "scout": 1}

	survivors := combat.Survivors(counts, losses)

	_, hasLegionnaire := survivors["legionnaire"]
	assert.False(t, hasLegionnaire)
	assert.Equal(t, int64(1), survivors["scout"])
}

func TestResolveScout_NoDefenderScoutsAlwaysSucceeds(t *testing.T) {
	cat := testCatalog()
	result := combat.ResolveScout(cat, model.TroopCounts{"scout": 1}, model.TroopCounts{"legionnaire": 500})

	assert.True(t, result.Success)
	assert.Empty(t, result.AttackerLosses)
	assert.Empty(t, result.DefenderLosses)
}

func TestResolveScout_OutnumberedAttackerFails(t *testing.T) {
	cat := testCatalog()
	result := combat.ResolveScout(cat, model.TroopCounts{"scout": 1}, model.TroopCounts{"scout": 100})

	assert.False(t, result.Success)
	assert.Greater(t, result.AttackerLosses["scout"], int64(0))
}

// Package combat implements the deterministic battle formula (§4.6). It
// is pure: no I/O, no clock, no randomness — same inputs always produce
// the same outputs, up to floating-point rounding.
package combat

import (
	"math"

	"github.com/frontier-realms/world-server/internal/catalog"
	"github.com/frontier-realms/world-server/internal/model"
)

// Winner tags who prevailed.
type Winner string

const (
	WinnerAttacker Winner = "attacker"
	WinnerDefender Winner = "defender"
	WinnerDraw     Winner = "draw"
)

// Result holds per-type losses for both sides and the resolved winner.
type Result struct {
	AttackerLosses model.TroopCounts
	DefenderLosses model.TroopCounts
	Winner         Winner
}

// Resolve runs the battle formula for attacker troops a against defender
// troops d, returning per-type losses for both sides. cat supplies troop
// definitions and the canonical iteration order sums must follow so
// floating-point accumulation is reproducible (§4.6, §9).
func Resolve(cat *catalog.Catalog, a, d model.TroopCounts, mission model.Mission) Result {
	attackerTypes := cat.SortByCanonicalOrder(a)
	defenderTypes := cat.SortByCanonicalOrder(d)

	var attackInfantry, attackCavalry float64
	for _, t := range attackerTypes {
		n := a[t]
		if n <= 0 {
			continue
		}
		def := cat.TroopDefinition(t)
		if def == nil {
			continue
		}
		power := float64(n) * float64(def.Attack)
		if def.IsCavalry {
			attackCavalry += power
		} else {
			attackInfantry += power
		}
	}
	totalAttack := attackInfantry + attackCavalry

	infantryRatio := 0.5
	if totalAttack > 0 {
		infantryRatio = attackInfantry / totalAttack
	}
	cavalryRatio := 1 - infantryRatio

	var defensePower float64
	for _, t := range defenderTypes {
		n := d[t]
		if n <= 0 {
			continue
		}
		def := cat.TroopDefinition(t)
		if def == nil {
			continue
		}
		defensePower += float64(n) * (float64(def.DefenseVsInfantry)*infantryRatio + float64(def.DefenseVsCavalry)*cavalryRatio)
	}

	var attackerLossFraction, defenderLossFraction float64
	var winner Winner

	switch {
	case defensePower == 0:
		attackerLossFraction = 0
		defenderLossFraction = 0
		winner = WinnerAttacker
	case totalAttack > defensePower:
		ratio := defensePower / totalAttack
		attackerLossFraction = math.Pow(ratio, 1.5)
		defenderLossFraction = 1.0
		winner = WinnerAttacker
	default:
		// defensePower >= totalAttack > 0, and the equal-power tie-break
		// also resolves here as a defender win (§4.6).
		ratio := totalAttack / defensePower
		defenderLossFraction = math.Pow(ratio, 1.5)
		if mission == model.MissionRaid {
			attackerLossFraction = math.Max(0.66, 1-ratio*0.5)
		} else {
			attackerLossFraction = 1.0
		}
		winner = WinnerDefender
	}

	return Result{
		AttackerLosses: applyLossFraction(a, attackerTypes, attackerLossFraction),
		DefenderLosses: applyLossFraction(d, defenderTypes, defenderLossFraction),
		Winner:         winner,
	}
}

func applyLossFraction(counts model.TroopCounts, order []string, fraction float64) model.TroopCounts {
	losses := make(model.TroopCounts, len(order))
	for _, t := range order {
		n := counts[t]
		if n <= 0 {
			continue
		}
		loss := int64(math.Floor(float64(n) * fraction))
		if loss > n {
			loss = n
		}
		if loss > 0 {
			losses[t] = loss
		}
	}
	return losses
}

// Survivors returns counts minus losses, per type, dropping any type that
// reaches zero.
func Survivors(counts, losses model.TroopCounts) model.TroopCounts {
	out := make(model.TroopCounts, len(counts))
	for t, n := range counts {
		remaining := n - losses[t]
		if remaining > 0 {
			out[t] = remaining
		}
	}
	return out
}

// ScoutResult holds the outcome of a scouting mission (§4.5.6).
type ScoutResult struct {
	Success        bool
	AttackerLosses model.TroopCounts
	DefenderLosses model.TroopCounts
}

// ResolveScout implements the scout-vs-scout power ratio and its loss
// curves. Defender troops with zero scouting presence make success
// automatic and lossless.
func ResolveScout(cat *catalog.Catalog, attacker, defender model.TroopCounts) ScoutResult {
	attackerTypes := cat.SortByCanonicalOrder(attacker)
	defenderTypes := cat.SortByCanonicalOrder(defender)

	var attackPower, defensePower float64
	for _, t := range attackerTypes {
		n := attacker[t]
		def := cat.TroopDefinition(t)
		if n <= 0 || def == nil {
			continue
		}
		attackPower += def.SpeedFieldsPerHour * float64(n)
	}
	hasDefenderScouts := false
	for _, t := range defenderTypes {
		n := defender[t]
		def := cat.TroopDefinition(t)
		if n <= 0 || def == nil {
			continue
		}
		if def.IsScout {
			hasDefenderScouts = true
		}
		defensePower += def.SpeedFieldsPerHour * float64(n)
	}

	if !hasDefenderScouts {
		return ScoutResult{Success: true}
	}

	ratio := 0.0
	if attackPower+defensePower > 0 {
		ratio = attackPower / (attackPower + defensePower)
	}
	success := ratio > 0.4

	var attackerFraction, defenderFraction float64
	if success {
		attackerFraction = (1 - ratio) * 0.8
		defenderFraction = ratio * 0.5
	} else {
		attackerFraction = 0.9 + (1-ratio)*0.1
		defenderFraction = 0.1
	}

	return ScoutResult{
		Success:        success,
		AttackerLosses: applyLossFractionCeil(attacker, attackerTypes, attackerFraction),
		DefenderLosses: applyLossFractionCeil(defender, defenderTypes, defenderFraction),
	}
}

// applyLossFractionCeil is applyLossFraction's rounding-up counterpart,
// used by scouting (§4.5.6 specifies ceiling rounding, unlike the main
// battle formula's floor in §4.6 step 5).
func applyLossFractionCeil(counts model.TroopCounts, order []string, fraction float64) model.TroopCounts {
	losses := make(model.TroopCounts, len(order))
	for _, t := range order {
		n := counts[t]
		if n <= 0 {
			continue
		}
		loss := int64(math.Ceil(float64(n) * fraction))
		if loss > n {
			loss = n
		}
		if loss > 0 {
			losses[t] = loss
		}
	}
	return losses
}

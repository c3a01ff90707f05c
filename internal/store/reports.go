package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/frontier-realms/world-server/internal/kind"
	"github.com/frontier-realms/world-server/internal/model"
)

// ReportStore is the durable home of battle and scout reports.
type ReportStore struct {
	db *sql.DB
}

func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

const battleReportColumns = `id, attacker_id, defender_id, village_id, mission,
	attacker_composition, defender_composition, attacker_losses, defender_losses,
	stolen_wood, stolen_clay, stolen_iron, stolen_crop, winner, created_at,
	read_by_attacker, read_by_defender`

func scanBattleReport(row interface{ Scan(...any) error }) (*model.BattleReport, error) {
	var r model.BattleReport
	var attackerComp, defenderComp, attackerLosses, defenderLosses troopCountsColumn
	err := row.Scan(
		&r.ID, &r.AttackerID, &r.DefenderID, &r.VillageID, &r.Mission,
		&attackerComp, &defenderComp, &attackerLosses, &defenderLosses,
		&r.Stolen.Wood, &r.Stolen.Clay, &r.Stolen.Iron, &r.Stolen.Crop, &r.Winner, &r.CreatedAt,
		&r.ReadByAttacker, &r.ReadByDefender,
	)
	if err != nil {
		return nil, err
	}
	r.AttackerComposition = model.TroopCounts(attackerComp)
	r.DefenderComposition = model.TroopCounts(defenderComp)
	r.AttackerLosses = model.TroopCounts(attackerLosses)
	r.DefenderLosses = model.TroopCounts(defenderLosses)
	return &r, nil
}

// CreateBattleReport inserts a newly-resolved combat record.
func (s *ReportStore) CreateBattleReport(ctx context.Context, tx *sql.Tx, r *model.BattleReport) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO battle_reports (id, attacker_id, defender_id, village_id, mission,
			attacker_composition, defender_composition, attacker_losses, defender_losses,
			stolen_wood, stolen_clay, stolen_iron, stolen_crop, winner, created_at,
			read_by_attacker, read_by_defender)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, r.ID, r.AttackerID, r.DefenderID, r.VillageID, r.Mission,
		troopCountsColumn(r.AttackerComposition), troopCountsColumn(r.DefenderComposition),
		troopCountsColumn(r.AttackerLosses), troopCountsColumn(r.DefenderLosses),
		r.Stolen.Wood, r.Stolen.Clay, r.Stolen.Iron, r.Stolen.Crop, r.Winner, r.CreatedAt,
		r.ReadByAttacker, r.ReadByDefender)
	if err != nil {
		return kind.Internalf(err, "create battle report")
	}
	return nil
}

// ListBattleReportsForUser returns every report visible to userID, either
// as attacker or defender, newest first.
func (s *ReportStore) ListBattleReportsForUser(ctx context.Context, userID string) ([]*model.BattleReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+battleReportColumns+` FROM battle_reports
		WHERE attacker_id = $1 OR defender_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, kind.Internalf(err, "list battle reports for user %s", userID)
	}
	defer rows.Close()

	var out []*model.BattleReport
	for rows.Next() {
		r, err := scanBattleReport(rows)
		if err != nil {
			return nil, kind.Internalf(err, "scan battle report row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetBattleReport fetches a single report by id, checking the requester
// is one of its two parties.
func (s *ReportStore) GetBattleReport(ctx context.Context, id, requesterID string) (*model.BattleReport, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+battleReportColumns+` FROM battle_reports WHERE id = $1`, id)
	r, err := scanBattleReport(row)
	if err == sql.ErrNoRows {
		return nil, kind.NotFoundf("battle report %s not found", id)
	}
	if err != nil {
		return nil, kind.Internalf(err, "get battle report %s", id)
	}
	if r.AttackerID != requesterID && r.DefenderID != requesterID {
		return nil, kind.Forbiddenf("report %s does not belong to this principal", id)
	}
	return r, nil
}

// MarkBattleReportRead flips the read flag for whichever side readerID is.
func (s *ReportStore) MarkBattleReportRead(ctx context.Context, id, readerID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE battle_reports SET
			read_by_attacker = read_by_attacker OR attacker_id = $2,
			read_by_defender = read_by_defender OR defender_id = $2
		WHERE id = $1
	`, id, readerID)
	if err != nil {
		return kind.Internalf(err, "mark battle report %s read", id)
	}
	return nil
}

const scoutReportColumns = `id, attacker_id, defender_id, village_id, success,
	attacker_losses, defender_losses, target_resources, target_garrison, created_at,
	read_by_attacker, read_by_defender`

func scanScoutReport(row interface{ Scan(...any) error }) (*model.ScoutReport, error) {
	var r model.ScoutReport
	var attackerLosses, defenderLosses, targetGarrison troopCountsColumn
	var targetResources resourcesColumn
	err := row.Scan(
		&r.ID, &r.AttackerID, &r.DefenderID, &r.VillageID, &r.Success,
		&attackerLosses, &defenderLosses, &targetResources, &targetGarrison, &r.CreatedAt,
		&r.ReadByAttacker, &r.ReadByDefender,
	)
	if err != nil {
		return nil, err
	}
	r.AttackerLosses = model.TroopCounts(attackerLosses)
	r.DefenderLosses = model.TroopCounts(defenderLosses)
	r.TargetGarrison = model.TroopCounts(targetGarrison)
	r.TargetResources = targetResources.R
	return &r, nil
}

// CreateScoutReport inserts a newly-resolved scouting record.
func (s *ReportStore) CreateScoutReport(ctx context.Context, tx *sql.Tx, r *model.ScoutReport) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO scout_reports (id, attacker_id, defender_id, village_id, success,
			attacker_losses, defender_losses, target_resources, target_garrison, created_at,
			read_by_attacker, read_by_defender)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, r.ID, r.AttackerID, r.DefenderID, r.VillageID, r.Success,
		troopCountsColumn(r.AttackerLosses), troopCountsColumn(r.DefenderLosses),
		resourcesColumn{R: r.TargetResources}, troopCountsColumn(r.TargetGarrison), r.CreatedAt,
		r.ReadByAttacker, r.ReadByDefender)
	if err != nil {
		return kind.Internalf(err, "create scout report")
	}
	return nil
}

// ListScoutReportsForUser returns every scout report visible to userID,
// newest first.
func (s *ReportStore) ListScoutReportsForUser(ctx context.Context, userID string) ([]*model.ScoutReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scoutReportColumns+` FROM scout_reports
		WHERE attacker_id = $1 OR defender_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, kind.Internalf(err, "list scout reports for user %s", userID)
	}
	defer rows.Close()

	var out []*model.ScoutReport
	for rows.Next() {
		r, err := scanScoutReport(rows)
		if err != nil {
			return nil, kind.Internalf(err, "scan scout report row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetScoutReport fetches a single scout report, checking the requester is
// one of its two parties. Only the attacker ever truly benefits from the
// detail, but the defender is allowed to see that they were scouted.
func (s *ReportStore) GetScoutReport(ctx context.Context, id, requesterID string) (*model.ScoutReport, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scoutReportColumns+` FROM scout_reports WHERE id = $1`, id)
	r, err := scanScoutReport(row)
	if err == sql.ErrNoRows {
		return nil, kind.NotFoundf("scout report %s not found", id)
	}
	if err != nil {
		return nil, kind.Internalf(err, "get scout report %s", id)
	}
	if r.AttackerID != requesterID && r.DefenderID != requesterID {
		return nil, kind.Forbiddenf("report %s does not belong to this principal", id)
	}
	return r, nil
}

// MarkScoutReportRead flips the read flag for whichever side readerID is.
func (s *ReportStore) MarkScoutReportRead(ctx context.Context, id, readerID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scout_reports SET
			read_by_attacker = read_by_attacker OR attacker_id = $2,
			read_by_defender = read_by_defender OR defender_id = $2
		WHERE id = $1
	`, id, readerID)
	if err != nil {
		return kind.Internalf(err, "mark scout report %s read", id)
	}
	return nil
}

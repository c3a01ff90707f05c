// Package dto holds the JSON request/response shapes the HTTP layer
// exchanges with clients, kept separate from the domain model so a wire
// format change never forces an engine or store signature to change.
package dto

import (
	"time"

	"github.com/frontier-realms/world-server/internal/model"
)

// ErrorPayload is the body of every non-2xx response (§7).
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ErrorEnvelope wraps ErrorPayload under "error", matching §6's
// {error:{message, code}} contract.
type ErrorEnvelope struct {
	Error ErrorPayload `json:"error"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by both register and login.
type TokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// CreateVillageRequest is the body of POST /villages.
type CreateVillageRequest struct {
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// VillageResponse mirrors model.Village for the wire, plus its buildings
// and garrison so a client can render a village in one round trip.
type VillageResponse struct {
	ID                 string             `json:"id"`
	OwnerID            string             `json:"owner_id"`
	Name               string             `json:"name"`
	X                  int                `json:"x"`
	Y                  int                `json:"y"`
	IsCapital          bool               `json:"is_capital"`
	Resources          model.Resources    `json:"resources"`
	StorageCaps        model.StorageCaps  `json:"storage_caps"`
	Population         int                `json:"population"`
	CulturePoints      int                `json:"culture_points"`
	Loyalty            int                `json:"loyalty"`
	ResourcesUpdatedAt time.Time          `json:"resources_updated_at"`
	Buildings          []*model.Building  `json:"buildings,omitempty"`
	Troops             []model.Troop      `json:"troops,omitempty"`
	TrainingQueue      []*model.TroopQueueEntry `json:"training_queue,omitempty"`
}

func VillageFromModel(v *model.Village) VillageResponse {
	return VillageResponse{
		ID: v.ID, OwnerID: v.OwnerID, Name: v.Name, X: v.X, Y: v.Y,
		IsCapital: v.IsCapital, Resources: v.Resources, StorageCaps: v.StorageCaps,
		Population: v.Population, CulturePoints: v.CulturePoints, Loyalty: v.Loyalty,
		ResourcesUpdatedAt: v.ResourcesUpdatedAt,
	}
}

// BuildRequest is the body of POST /villages/{id}/buildings/{slot} and
// its /upgrade variant — both route to the same unified build/upgrade
// engine call (buildqueue.Engine.Upgrade auto-creates an empty slot).
type BuildRequest struct {
	Type string `json:"type"`
}

// TrainRequest is the body of POST /villages/{id}/troops/train.
type TrainRequest struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// DispatchArmyRequest is the body of POST /villages/{id}/armies.
type DispatchArmyRequest struct {
	ToX     int                `json:"to_x"`
	ToY     int                `json:"to_y"`
	Mission string             `json:"mission"`
	Troops  model.TroopCounts `json:"troops"`
}

// ArmyResponse mirrors model.Army for the wire.
type ArmyResponse struct {
	ID               string            `json:"id"`
	OwnerID          string            `json:"owner_id"`
	FromVillageID    string            `json:"from_village_id"`
	ToX              int               `json:"to_x"`
	ToY              int               `json:"to_y"`
	ToVillageID      *string           `json:"to_village_id,omitempty"`
	Mission          model.Mission     `json:"mission"`
	Troops           model.TroopCounts `json:"troops"`
	CarriedResources model.Resources   `json:"carried_resources"`
	DepartedAt       time.Time         `json:"departed_at"`
	ArrivesAt        time.Time         `json:"arrives_at"`
	ReturnsAt        *time.Time        `json:"returns_at,omitempty"`
	IsReturning      bool              `json:"is_returning"`
	IsStationed      bool              `json:"is_stationed"`
}

func ArmyFromModel(a *model.Army) ArmyResponse {
	return ArmyResponse{
		ID: a.ID, OwnerID: a.OwnerID, FromVillageID: a.FromVillageID,
		ToX: a.ToX, ToY: a.ToY, ToVillageID: a.ToVillageID, Mission: a.Mission,
		Troops: a.Troops, CarriedResources: a.CarriedResources,
		DepartedAt: a.DepartedAt, ArrivesAt: a.ArrivesAt, ReturnsAt: a.ReturnsAt,
		IsReturning: a.IsReturning, IsStationed: a.IsStationed,
	}
}

// MapVillage is one entry of a GET /map response: public coordinates and
// ownership only, never a foreign village's resources or garrison.
type MapVillage struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	IsCapital bool   `json:"is_capital"`
}

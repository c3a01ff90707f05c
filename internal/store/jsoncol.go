package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/frontier-realms/world-server/internal/model"
)

// troopCountsColumn adapts model.TroopCounts to the jsonb columns armies
// and battle/scout reports persist troop maps in (§6: "army troop maps
// ... serialized as JSON-typed columns keyed by troop type").
type troopCountsColumn model.TroopCounts

func (c troopCountsColumn) Value() (driver.Value, error) {
	if c == nil {
		c = troopCountsColumn{}
	}
	return json.Marshal(model.TroopCounts(c))
}

func (c *troopCountsColumn) Scan(src any) error {
	if src == nil {
		*c = troopCountsColumn{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("troopCountsColumn: unsupported scan type %T", src)
	}
	var m model.TroopCounts
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*c = troopCountsColumn(m)
	return nil
}

// resourcesColumn adapts a *model.Resources to a nullable jsonb column
// (scout report target resources, absent on a failed scout).
type resourcesColumn struct {
	R *model.Resources
}

func (c resourcesColumn) Value() (driver.Value, error) {
	if c.R == nil {
		return nil, nil
	}
	return json.Marshal(c.R)
}

func (c *resourcesColumn) Scan(src any) error {
	if src == nil {
		c.R = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("resourcesColumn: unsupported scan type %T", src)
	}
	var r model.Resources
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	c.R = &r
	return nil
}

package domain

import "time"

type Building struct {
	ID        BuildingID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"type:text;not null" json:"name"`
	Address   string     `gorm:"type:text" json:"address"`
	CreatedAt time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"not null" json:"updatedAt"`
}

func (Building) TableName() string { return "buildings" }

// Intercom is a physical door panel. Every credential row hangs off exactly
// one intercom; access codes may additionally widen to the whole building.
type Intercom struct {
	ID           IntercomID `gorm:"type:uuid;primaryKey" json:"id"`
	BuildingID   BuildingID `gorm:"type:uuid;index:ix_intercoms_building;not null" json:"buildingId"`
	Name         string     `gorm:"type:text;not null" json:"name"`
	SerialNumber string     `gorm:"type:text;uniqueIndex:ux_intercoms_serial" json:"serialNumber"`
	Location     string     `gorm:"type:text" json:"location"`
	CreatedAt    time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updatedAt"`
}

func (Intercom) TableName() string { return "intercoms" }

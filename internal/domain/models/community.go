package models

// Community 小区
type Community struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Address     string `gorm:"type:varchar(200)" json:"address"`
	Description string `gorm:"type:text" json:"description"`

	Phases []Phase `gorm:"foreignKey:CommunityID" json:"phases,omitempty"`
}

// Phase 小区分期，如"一期"
type Phase struct {
	BaseModel
	CommunityID uint   `gorm:"not null;uniqueIndex:idx_phase_community_code" json:"community_id"`
	Name        string `gorm:"type:varchar(50);not null" json:"name"`
	Code        string `gorm:"type:varchar(20);not null;uniqueIndex:idx_phase_community_code" json:"code"`
	SortOrder   int    `gorm:"default:0" json:"sort_order"`

	Community  *Community `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	OwnerCount int64      `gorm:"-" json:"owner_count"`
}

package models

// Owner 业主，对应一个具体房间
type Owner struct {
	BaseModel
	PhaseID       uint    `gorm:"not null;uniqueIndex:idx_owner_phase_room;index:idx_owner_unit,priority:1" json:"phase_id"`
	SeqNo         int     `json:"seq_no"`
	Building      string  `gorm:"type:varchar(20);index:idx_owner_unit,priority:2" json:"building"`
	Unit          string  `gorm:"type:varchar(20);index:idx_owner_unit,priority:3" json:"unit"`
	Room          string  `gorm:"type:varchar(20)" json:"room"`
	RoomNumber    string  `gorm:"type:varchar(50);not null;uniqueIndex:idx_owner_phase_room" json:"room_number"`
	OwnerName     string  `gorm:"type:varchar(100)" json:"owner_name"`
	Area          float64 `gorm:"type:decimal(10,2);default:0" json:"area"`
	ParkingNo     string  `gorm:"type:varchar(50)" json:"parking_no"`
	ParkingArea   float64 `gorm:"type:decimal(10,2);default:0" json:"parking_area"`
	Phone1        string  `gorm:"type:varchar(30)" json:"phone1"`
	Phone2        string  `gorm:"type:varchar(30)" json:"phone2"`
	Phone3        string  `gorm:"type:varchar(30)" json:"phone3"`
	WechatStatus  string  `gorm:"type:varchar(50)" json:"wechat_status"`
	WechatContact string  `gorm:"type:varchar(50)" json:"wechat_contact"`
	HouseStatus   string  `gorm:"type:varchar(50)" json:"house_status"`
	Remark        string  `gorm:"type:text" json:"remark"`

	Phase *Phase `gorm:"foreignKey:PhaseID" json:"phase,omitempty"`
}

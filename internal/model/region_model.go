package model

type Region struct {
	Name       string `gorm:"type:varchar(50);primaryKey"`
	Code       string `gorm:"type:varchar(3);uniqueIndex;not null"`
	Capital    string `gorm:"type:varchar(100)"`
	Population int
}

func (Region) TableName() string {
	return "regions"
}

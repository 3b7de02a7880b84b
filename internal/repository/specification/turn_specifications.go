package specification

import (
	"gorm.io/gorm"
)

type ByUserID struct {
	UserID string
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByChannel struct {
	Channel string
}

func (s ByChannel) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("channel = ?", s.Channel)
}

type ByCorrelationID struct {
	CorrelationID string
}

func (s ByCorrelationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("correlation_id = ?", s.CorrelationID)
}

type ByServiceName struct {
	Name string
}

func (s ByServiceName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}

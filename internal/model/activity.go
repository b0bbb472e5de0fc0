package model

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog 已认证 HTTP 调用的审计记录，只追加
// swagger:model ActivityLog
type ActivityLog struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint           `gorm:"index;not null" json:"userId"`
	RequestID      string         `gorm:"size:36" json:"requestId"`
	ActionType     string         `gorm:"size:64;index;not null" json:"actionType"`
	Endpoint       string         `gorm:"size:255" json:"endpoint"`
	Method         string         `gorm:"size:10" json:"method"`
	RequestData    datatypes.JSON `json:"requestData"`
	ResponseStatus int            `json:"responseStatus"`
	IPAddress      string         `gorm:"size:64" json:"ipAddress"`
	UserAgent      string         `gorm:"size:255" json:"userAgent"`
	DurationMs     int64          `json:"durationMs"`
	CreatedAt      time.Time      `gorm:"index" json:"createdAt"`
}

func (ActivityLog) TableName() string {
	return "user_activity_log"
}

package model

import "time"

// 新作ドロップ通知の購読者。emailは小文字で一意。
type DropSubscriber struct {
	Email     string    `gorm:"type:varchar(255);primaryKey" json:"email"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// 放棄カート。1ユーザーにつき未回収（recovered=false）は1つ。削除はせずrecoveredにする。
type AbandonedCart struct {
	ID        string                        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string                        `gorm:"type:uuid;not null;index" json:"user_id"`
	Email     string                        `gorm:"type:varchar(255);not null" json:"email"`
	CartItems datatypes.JSONSlice[CartItem] `gorm:"type:jsonb;not null;default:'[]'" json:"cart_items"`
	CartTotal decimal.Decimal               `gorm:"type:numeric(10,2);not null" json:"cart_total"`
	Recovered bool                          `gorm:"not null;default:false;index" json:"recovered"`

	//回収メール（1h / 24h / 72h）
	Email1Sent   bool       `gorm:"column:email_1_sent;not null;default:false" json:"email_1_sent"`
	Email1SentAt *time.Time `gorm:"column:email_1_sent_at" json:"email_1_sent_at"`
	Email2Sent   bool       `gorm:"column:email_2_sent;not null;default:false" json:"email_2_sent"`
	Email2SentAt *time.Time `gorm:"column:email_2_sent_at" json:"email_2_sent_at"`
	Email3Sent   bool       `gorm:"column:email_3_sent;not null;default:false" json:"email_3_sent"`
	Email3SentAt *time.Time `gorm:"column:email_3_sent_at" json:"email_3_sent_at"`
	DiscountCode string     `gorm:"type:varchar(64)" json:"discount_code,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

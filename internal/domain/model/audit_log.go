package model

import "time"

// 管理者操作の種類
type AuditAction string

const (
	AuditActionUpdatePickupStatus  AuditAction = "UPDATE_PICKUP_STATUS"
	AuditActionUpdateTicketStatus  AuditAction = "UPDATE_TICKET_STATUS"
	AuditActionUpdateCardInventory AuditAction = "UPDATE_CARD_INVENTORY"
	AuditActionSyncMarketPrice     AuditAction = "SYNC_MARKET_PRICE"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionUpdatePickupStatus, AuditActionUpdateTicketStatus, AuditActionUpdateCardInventory, AuditActionSyncMarketPrice:
		return true
	}
	return false
}

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceOrder   AuditResourceType = "order"
	AuditResourceTicket  AuditResourceType = "ticket"
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceCard    AuditResourceType = "pokemon_card_detail"
)

func (t AuditResourceType) Valid() bool {
	switch t {
	case AuditResourceOrder, AuditResourceTicket, AuditResourceProduct, AuditResourceCard:
		return true
	}
	return false
}

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作した管理者のID
	ActorUserID string `gorm:"type:uuid;not null;index" json:"actor_user_id"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   string            `gorm:"type:varchar(64);not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

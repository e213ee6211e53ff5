package model

import "time"

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

type SenderType string

const (
	SenderCustomer SenderType = "customer"
	SenderAdmin    SenderType = "admin"
)

// サポートチケット
type Ticket struct {
	ID          string       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(255);not null" json:"name"`
	Email       string       `gorm:"type:varchar(255);not null;index" json:"email"`
	Category    string       `gorm:"type:varchar(64);not null" json:"category"`
	Subject     string       `gorm:"type:varchar(255);not null" json:"subject"`
	OrderNumber *string      `gorm:"type:varchar(32)" json:"order_number"`
	Status      TicketStatus `gorm:"type:varchar(32);not null;index" json:"status"`
	CreatedAt   time.Time    `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`

	Messages []TicketMessage `gorm:"foreignKey:TicketID" json:"messages"`
}

// チケットのメッセージ（追記のみ）
type TicketMessage struct {
	ID         string     `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID   string     `gorm:"type:uuid;not null;index" json:"ticket_id"`
	SenderType SenderType `gorm:"type:varchar(16);not null" json:"sender_type"`
	SenderName string     `gorm:"type:varchar(255)" json:"sender_name"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	CreatedAt  time.Time  `gorm:"not null;index" json:"created_at"`
}

type ContactMessage struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Subject   string    `gorm:"type:varchar(255)" json:"subject"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

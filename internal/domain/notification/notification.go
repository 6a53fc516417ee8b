package notification

import (
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TargetAll is the sentinel user id for broadcast notifications
const TargetAll = "all"

// NotificationType classifies what triggered a notification
type NotificationType string

const (
	TypePaymentApproval NotificationType = "payment_approval" // A step awaits the target's decision
	TypePaymentApproved NotificationType = "payment_approved" // The chain fully approved
	TypePaymentRejected NotificationType = "payment_rejected" // A step rejected the chain
	TypePaymentOverdue  NotificationType = "payment_overdue"  // A payment went past its due date
)

// IsValid checks if the notification type is valid
func (t NotificationType) IsValid() bool {
	switch t {
	case TypePaymentApproval, TypePaymentApproved, TypePaymentRejected, TypePaymentOverdue:
		return true
	}
	return false
}

// Notification is a message produced as a side effect of workflow
// transitions or ledger state changes requiring human attention.
// TargetUser is a user id or the "all" sentinel for broadcasts.
type Notification struct {
	shared.BaseEntity
	TargetUser string           `gorm:"type:varchar(50);not null;index"`
	Title      string           `gorm:"type:varchar(200);not null"`
	Message    string           `gorm:"type:varchar(1000);not null"`
	Type       NotificationType `gorm:"type:varchar(40);not null"`
	Read       bool             `gorm:"not null;default:false;index"`
	RelatedID  *uuid.UUID       `gorm:"type:uuid"` // Entity the notification is about
	ActionURL  string           `gorm:"type:varchar(300)"`
}

// TableName returns the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

// NewNotification creates a notification for a specific user
func NewNotification(targetUser string, notType NotificationType, title, message string, relatedID *uuid.UUID, actionURL string) (*Notification, error) {
	if targetUser == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Notification target cannot be empty")
	}
	if !notType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Notification type is not valid")
	}
	if title == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Notification title cannot be empty")
	}

	return &Notification{
		BaseEntity: shared.NewBaseEntity(),
		TargetUser: targetUser,
		Title:      title,
		Message:    message,
		Type:       notType,
		Read:       false,
		RelatedID:  relatedID,
		ActionURL:  actionURL,
	}, nil
}

// NewBroadcast creates a notification targeting all users
func NewBroadcast(notType NotificationType, title, message string, relatedID *uuid.UUID, actionURL string) (*Notification, error) {
	return NewNotification(TargetAll, notType, title, message, relatedID, actionURL)
}

// MarkRead flags the notification as read. Idempotent.
func (n *Notification) MarkRead(now time.Time) bool {
	if n.Read {
		return false
	}
	n.Read = true
	n.UpdatedAt = now
	return true
}

// IsBroadcast returns true if the notification targets all users
func (n *Notification) IsBroadcast() bool {
	return n.TargetUser == TargetAll
}

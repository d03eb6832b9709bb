package models

import "time"

// NotificationKind identifies a notification template and its preference flag.
type NotificationKind string

const (
	KindStatusChange   NotificationKind = "status_change"
	KindAssigneeChange NotificationKind = "assignee_change"
	KindComment        NotificationKind = "comment"
	KindMention        NotificationKind = "mention"
)

// Valid reports whether k names a known notification kind.
func (k NotificationKind) Valid() bool {
	switch k {
	case KindStatusChange, KindAssigneeChange, KindComment, KindMention:
		return true
	}
	return false
}

// NotificationPreference stores a user's opt-outs. A missing row means opted in to everything.
type NotificationPreference struct {
	UserID                 string    `gorm:"type:uuid;primaryKey" json:"user_id"`
	NotifyOnStatusChange   bool      `gorm:"not null" json:"notify_on_status_change"`
	NotifyOnAssigneeChange bool      `gorm:"not null" json:"notify_on_assignee_change"`
	NotifyOnComment        bool      `gorm:"not null" json:"notify_on_comment"`
	NotifyOnMention        bool      `gorm:"not null" json:"notify_on_mention"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// TableName keeps the historical table name.
func (NotificationPreference) TableName() string { return "user_preferences" }

// DefaultNotificationPreference is the implicit preference for users without a row.
func DefaultNotificationPreference(userID string) NotificationPreference {
	return NotificationPreference{
		UserID:                 userID,
		NotifyOnStatusChange:   true,
		NotifyOnAssigneeChange: true,
		NotifyOnComment:        true,
		NotifyOnMention:        true,
	}
}

// Allows reports whether the preference opts in to kind. Unknown kinds are allowed.
func (p NotificationPreference) Allows(kind NotificationKind) bool {
	switch kind {
	case KindStatusChange:
		return p.NotifyOnStatusChange
	case KindAssigneeChange:
		return p.NotifyOnAssigneeChange
	case KindComment:
		return p.NotifyOnComment
	case KindMention:
		return p.NotifyOnMention
	default:
		return true
	}
}

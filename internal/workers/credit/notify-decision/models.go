// internal/workers/credit/notify-decision/models.go
package notifydecision

type Input struct {
	RecordID string `json:"recordId"`
	Decision string `json:"decision"`
	Score    int    `json:"score"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "disabled"
	SentAt         string   `json:"sentAt"` // ISO 8601
	Channels       []string `json:"channels"`
}

// Statuses
const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

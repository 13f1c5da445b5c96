package sendscoresummary

type Input struct {
	TransitionID   string `json:"transitionId"`
	RecipientEmail string `json:"recipientEmail"`
	RecipientName  string `json:"recipientName,omitempty"`
}

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
	MessageID      string `json:"messageId,omitempty"`
	OverallScore   int    `json:"overallScore"`
}

package httpd

import "time"

type PayReq struct {
	Phone string `json:"phone" validate:"required,tzphone"`
}

type PayResp struct {
	MessageTitle     string `json:"message_title"`
	MessageBody      string `json:"message_body"`
	Status           string `json:"status"`
	Reference        string `json:"reference"`
	PaymentInitiated bool   `json:"payment_initiated"`
}

type MessageResp struct {
	MessageBody string `json:"message_body"`
}

type StatusResp struct {
	Status string `json:"status"`
}

// WebhookReq is the gateway's payment notification.
type WebhookReq struct {
	OrderID       string         `json:"order_id" validate:"required"`
	PaymentStatus string         `json:"payment_status" validate:"required"`
	Reference     string         `json:"reference"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type WebhookResp struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

type TxItem struct {
	Reference string     `json:"reference"`
	Phone     string     `json:"phone"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	SettledAt *time.Time `json:"settledAt,omitempty"`
}

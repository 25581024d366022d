package types

// UserID identifies a notification recipient (Telegram user/chat id)
type UserID int64

// Alert is a standing request to be notified once Asset trades at or above Target
type Alert struct {
	Asset  string  `json:"asset"`
	Target float64 `json:"target"`
}

// Quote is a point-in-time USD price for an asset
type Quote struct {
	Price     float64 `json:"price"`
	Change24h float64 `json:"percent_change_24h"`
}

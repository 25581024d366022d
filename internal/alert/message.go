package alert

import (
	"price-alert-bot/internal/types"
	"price-alert-bot/lib/translation"
	"strings"
)

// Notification renders the text sent when an alert triggers
func Notification(a types.Alert, price float64) string {
	return translation.Translate("%s reached $%.2f (target: $%.2f)", strings.ToUpper(a.Asset), price, a.Target)
}

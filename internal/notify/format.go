package notify

import (
	"fmt"
	"strings"

	"github.com/jonathan/listing-notifier/internal/types"
)

// NoNewListingsMessage is the summary of a run that found nothing new.
const NoNewListingsMessage = "No new ads found!"

// FormatMessage renders the chat message for one listing.
func FormatMessage(rec types.NotificationRecord) string {
	var sb strings.Builder
	field := func(label, value string) {
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(value)
		sb.WriteString("\n\n")
	}

	field("Title", rec.Title)
	field("Main Info", rec.MainInfo)
	field("Price", rec.Price)
	field("Car Body Type", rec.CarBodyType)
	field("Description", rec.Description)
	field("Ad Post Date", rec.DisplayDate)
	field("Ad URL", rec.AdURL)

	return sb.String()
}

// Summary renders the closing message for a run that delivered count listings.
func Summary(count int) string {
	if count > 0 {
		return fmt.Sprintf("Total new ads sent: %d", count)
	}
	return NoNewListingsMessage
}

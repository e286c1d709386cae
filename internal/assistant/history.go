package assistant

import (
	"fmt"
	"strings"

	"github.com/nakharin/nvc-bot/internal/models"
)

const (
	historyHeader = "---Chat History (Oldest to Newest)---"
	historyFooter = "---End Chat History---"
)

// FormatHistory renders turns as a tagged transcript block bounded by
// explicit markers so the model can delimit it from the rest of the
// prompt. Turns must already be ordered oldest-to-newest. No turns means
// no block at all.
func FormatHistory(turns []models.Turn) string {
	if len(turns) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(historyHeader)
	b.WriteString("\n")
	for _, turn := range turns {
		fmt.Fprintf(&b, "[%s]: %s\n", strings.ToUpper(string(turn.Speaker)), turn.Text)
	}
	b.WriteString(historyFooter)
	return b.String()
}

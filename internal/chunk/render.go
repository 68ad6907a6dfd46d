package chunk

import (
	"strings"

	"github.com/xxxsen/unmask/internal/model"
)

const DateLayout = "2006-01-02"

// Render formats chunk members as the embedding-ready conversation text.
func Render(msgs []model.Message) string {
	var sb strings.Builder
	sb.WriteString("Date: ")
	if len(msgs) > 0 {
		sb.WriteString(msgs[0].Timestamp.Format(DateLayout))
	}
	sb.WriteString("\nConversation:\n")
	for i := range msgs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(msgs[i].DisplaySender())
		sb.WriteString(": ")
		sb.WriteString(msgs[i].Text)
		if msgs[i].Attachment != "" {
			sb.WriteString(" [Attachment: ")
			sb.WriteString(msgs[i].Attachment)
			sb.WriteString("]")
		}
	}
	return sb.String()
}

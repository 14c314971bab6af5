package flow

import (
	"fmt"
	"strings"

	"github.com/futig/joke-flows/internal/entity"
)

const contextPreamble = "\n\nUse the following information to complete your task:\n\n"

// withContext appends retrieved documents to the last user message
func withContext(messages []entity.Message, docs []entity.Document) []entity.Message {
	if len(docs) == 0 {
		return messages
	}

	var sb strings.Builder
	sb.WriteString(contextPreamble)
	for i, d := range docs {
		fmt.Fprintf(&sb, "- [%d]: %s\n", i, d.Content)
	}

	out := make([]entity.Message, len(messages))
	copy(out, messages)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Role == entity.RoleUser {
			out[i].Content += sb.String()
			return out
		}
	}
	return append(out, entity.Message{Role: entity.RoleUser, Content: strings.TrimLeft(sb.String(), "\n")})
}

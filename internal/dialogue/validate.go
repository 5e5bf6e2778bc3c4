package dialogue

import (
	"fmt"
	"strings"
)

// ValidateStructure checks the structural rules every conversation must
// satisfy: at least two messages, an even count, strict user/assistant
// alternation starting with user, and no blank turns. It returns one
// message per violation, in order of discovery; an empty slice means the
// structure is valid.
//
// A conversation with fewer than two messages is reported as that single
// violation, since the remaining checks are meaningless on it.
func ValidateStructure(messages []Message) []string {
	var errs []string

	if len(messages) < 2 {
		errs = append(errs, "Must have at least 2 messages")
		return errs
	}
	if len(messages)%2 != 0 {
		errs = append(errs, "Must have even number of messages")
	}

	for i, msg := range messages {
		expected := RoleUser
		if i%2 != 0 {
			expected = RoleAssistant
		}
		if msg.Role != expected {
			errs = append(errs, fmt.Sprintf("Message %d should be %s, got %s", i, expected, msg.Role))
		}
		if strings.TrimSpace(msg.Content) == "" {
			errs = append(errs, fmt.Sprintf("Message %d has empty content", i))
		}
	}

	return errs
}

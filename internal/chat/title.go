package chat

import "strings"

const (
	titleBudget   = 30
	previewBudget = 80
)

// deriveTitle builds a short label from the leading words of a message,
// appending an ellipsis when the text had to be truncated. Words are kept
// whole within the character budget.
func deriveTitle(content string) string {
	words := strings.Fields(content)
	if len(words) == 0 {
		return "New Chat"
	}

	if len(strings.TrimSpace(content)) <= titleBudget {
		return strings.Join(words, " ")
	}

	title := words[0]
	if len(title) > titleBudget {
		title = title[:titleBudget]
	}
	for _, word := range words[1:] {
		if len(title)+1+len(word) > titleBudget {
			break
		}
		title += " " + word
	}
	return title + "..."
}

// derivePreview trims a message down to the snippet shown in list views.
func derivePreview(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= previewBudget {
		return content
	}
	return string(runes[:previewBudget])
}

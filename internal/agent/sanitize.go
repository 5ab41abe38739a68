package agent

import (
	"regexp"
	"strings"
)

// Small models leak their scratchpad and orchestration chatter into replies.
var (
	thinkBlock   = regexp.MustCompile(`(?s)<think>.*?</think>`)
	transferNote = regexp.MustCompile(`(?i)transferring back to (the )?supervisor[^\n]*`)
)

// SanitizeReply strips reasoning scratchpad blocks and supervisor-transfer
// noise from a model reply and trims surrounding whitespace.
func SanitizeReply(s string) string {
	s = thinkBlock.ReplaceAllString(s, "")
	s = transferNote.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

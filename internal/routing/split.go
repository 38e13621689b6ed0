package routing

import (
	"strings"
	"unicode/utf8"
)

// MaxChatBytes bounds the text of one outgoing PRIVMSG. Relayed lines gain a
// ":nick!user@host " prefix from the server, so this stays well under the
// 512 byte line limit.
const MaxChatBytes = 400

// SplitChat breaks a chat body into lines that are safe to send as separate
// PRIVMSGs. It splits on CR and LF, drops empty lines, and cuts lines longer
// than limit bytes at rune boundaries.
func SplitChat(body string, limit int) []string {
	if limit <= 0 {
		limit = MaxChatBytes
	}
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")

	var out []string
	for _, line := range strings.Split(body, "\n") {
		for len(line) > limit {
			end := limit
			for end > 0 && !utf8.RuneStart(line[end]) {
				end--
			}
			if end == 0 {
				end = limit
			}
			out = append(out, line[:end])
			line = line[end:]
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

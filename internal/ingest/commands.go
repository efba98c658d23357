package ingest

import "strings"

// Commands answered in chat.
const (
	CommandStart = "start"
	CommandStats = "stats"
)

// StartReply is the static status message sent for /start.
const StartReply = "Logger bot is running.\nUse /stats"

// parseCommand extracts the command name from a message. isCommand is true
// for any text starting with a slash; name is empty when the command is
// addressed to a different bot via the /cmd@botname form.
func parseCommand(text, botUsername string) (name string, isCommand bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	token := text[1:]
	if i := strings.IndexAny(token, " \t\n"); i >= 0 {
		token = token[:i]
	}
	if token == "" {
		return "", false
	}
	cmd, target, addressed := strings.Cut(token, "@")
	if addressed && botUsername != "" && !strings.EqualFold(target, strings.TrimPrefix(botUsername, "@")) {
		return "", true
	}
	return strings.ToLower(cmd), true
}

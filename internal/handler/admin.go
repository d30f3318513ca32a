package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
)

const (
	helpMessage = `Quizline admin commands: "help", "stats", "reset <number>".`

	adminErrorText = `There was a problem with your request. Try again!`
)

// command carries the parsed pieces of one inbound admin message.
type command struct {
	From string
	Args []string
}

type commandFunc func(h *Handler, c command) (string, error)

// adminCommands maps keywords to handlers. Unknown keywords fall back to help.
var adminCommands = map[string]commandFunc{
	"help":  cmdHelp,
	"stats": cmdStats,
	"reset": cmdReset,
}

func (h *Handler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	from := r.FormValue("From")
	if from == "" {
		http.Error(w, "missing From", http.StatusBadRequest)
		return
	}

	fields := strings.Fields(r.FormValue("Body"))
	keyword := "help"
	var args []string
	if len(fields) > 0 {
		keyword = strings.ToLower(fields[0])
		args = fields[1:]
	}

	cmd := command{From: NormalizeNumber(from), Args: args}

	fn, ok := adminCommands[keyword]
	if !ok {
		fn = cmdHelp
	}
	if keyword != "help" && !h.isAdmin(cmd.From) {
		slog.Warn("admin command from non-admin sender", "from", cmd.From, "keyword", keyword)
		fn = cmdHelp
	}

	reply, err := fn(h, cmd)
	if err != nil {
		slog.Error("admin command failed", "from", cmd.From, "keyword", keyword, "error", err)
		reply = adminErrorText
	}
	writeTwiML(w, reply)
}

func (h *Handler) isAdmin(number string) bool {
	return slices.Contains(h.config.AdminNumbers, number)
}

func cmdHelp(_ *Handler, _ command) (string, error) {
	return helpMessage, nil
}

func cmdStats(h *Handler, _ command) (string, error) {
	sessions, err := h.store.SessionCount()
	if err != nil {
		return "", err
	}
	runs, err := h.store.CompletedRunCount()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Sessions: %d. Completed runs: %d.", sessions, runs), nil
}

func cmdReset(h *Handler, c command) (string, error) {
	if len(c.Args) == 0 {
		return `Usage: reset <number>`, nil
	}
	key := NormalizeNumber(c.Args[0])
	if err := h.store.ResetSession(key); err != nil {
		return "", err
	}
	slog.Info("session reset by admin", "admin", c.From, "key", key)
	return fmt.Sprintf("Reset quiz for %s.", key), nil
}

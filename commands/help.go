package commands

import (
	"fmt"
	"strings"

	"EmberVale/internal/server"
)

var Help = Define(Definition{
	Name:        "help",
	Aliases:     []string{"?"},
	Usage:       "help",
	Description: "list the available commands",
}, func(ctx *Context) bool {
	lines := []string{server.Style("Commands:", server.AnsiBold, server.AnsiCyan)}
	for _, cmd := range All() {
		if cmd.AdminOnly && !ctx.Player.Admin {
			continue
		}
		lines = append(lines, "  "+server.Style(fmt.Sprintf("%-18s", cmd.Usage), server.AnsiGreen)+" "+cmd.Description)
	}
	ctx.Player.Output <- server.Ansi("\r\n" + strings.Join(lines, "\r\n"))
	return false
})

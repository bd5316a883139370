package commands

import (
	"fmt"
	"sort"
	"strings"

	"EmberVale/internal/server"
)

var Who = Define(Definition{
	Name:        "who",
	Usage:       "who",
	Description: "list everyone currently in the world",
}, func(ctx *Context) bool {
	players := ctx.Realm.PlayersOnline()
	sort.Slice(players, func(i, j int) bool {
		return players[i].Name < players[j].Name
	})

	lines := []string{server.Style(fmt.Sprintf("%d awake in the vale:", len(players)), server.AnsiBold, server.AnsiCyan)}
	for _, p := range players {
		entry := server.HighlightName(p.Name)
		if place, ok := ctx.Realm.CurrentPlace(p); ok {
			entry += server.Style(" in "+place.Name, server.AnsiDim)
		}
		if p.Admin {
			entry += server.Style(" (keeper)", server.AnsiMagenta)
		}
		lines = append(lines, entry)
	}
	ctx.Player.Output <- server.Ansi("\r\n" + strings.Join(lines, "\r\n"))
	return false
})

package commands

import (
	"fmt"
	"strings"

	"EmberVale/internal/server"
)

var Go = Define(Definition{
	Name:        "go",
	Aliases:     []string{"walk"},
	Usage:       "go <place>",
	Description: "travel to a linked place",
}, func(ctx *Context) bool {
	dest := strings.ToLower(ctx.Arg)
	if dest == "" {
		ctx.Player.Output <- server.Ansi(server.Style("\r\nGo where?", server.AnsiYellow))
		return false
	}
	place, ok := ctx.Realm.CurrentPlace(ctx.Player)
	if !ok {
		ctx.Player.Output <- server.Ansi(server.Style("\r\nYou seem to be nowhere.", server.AnsiYellow))
		return false
	}

	for _, linked := range place.LinkedPlaces() {
		if !strings.Contains(strings.ToLower(linked.Name), dest) {
			continue
		}
		ctx.Realm.BroadcastToPlace(place, server.Ansi(fmt.Sprintf("\r\n%s heads toward %s.", server.HighlightName(ctx.Player.Name), linked.Name)), ctx.Player)
		place.MoveFrom(ctx.Player.Persona)
		linked.MoveInto(ctx.Player.Persona)
		ctx.Realm.BroadcastToPlace(linked, server.Ansi(fmt.Sprintf("\r\n%s arrives.", server.HighlightName(ctx.Player.Name))), ctx.Player)
		ctx.Player.Output <- server.Ansi(renderPlace(linked, ctx.Player))
		return false
	}

	ctx.Player.Output <- server.Ansi(server.Style(fmt.Sprintf("\r\nNo path from here leads to %s.", ctx.Arg), server.AnsiYellow))
	return false
})

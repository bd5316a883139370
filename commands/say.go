package commands

import (
	"fmt"

	"EmberVale/internal/server"
)

var Say = Define(Definition{
	Name:        "say",
	Aliases:     []string{"'"},
	Usage:       "say <message>",
	Description: "speak aloud; the world listens and remembers",
}, func(ctx *Context) bool {
	msg := ctx.Arg
	if msg == "" {
		ctx.Player.Output <- server.Ansi(server.Style("\r\nSay what?", server.AnsiYellow))
		return false
	}
	place, ok := ctx.Realm.CurrentPlace(ctx.Player)
	if !ok {
		ctx.Player.Output <- server.Ansi(server.Style("\r\nYour words fall into the void.", server.AnsiYellow))
		return false
	}

	place.WriteTo(msg, ctx.Player.Persona, false)

	ctx.Realm.BroadcastToPlace(place, server.Ansi(fmt.Sprintf("\r\n%s says: %s", server.HighlightName(ctx.Player.Name), msg)), ctx.Player)
	ctx.Player.Output <- server.Ansi(fmt.Sprintf("\r\n%s %s", server.Style("You say:", server.AnsiBold, server.AnsiYellow), msg))
	return false
})

package commands

import (
	"fmt"

	"EmberVale/internal/server"
)

var Do = Define(Definition{
	Name:        "do",
	Aliases:     []string{"act"},
	Usage:       "do <action>",
	Description: "act on the world; what you describe takes shape",
}, func(ctx *Context) bool {
	action := ctx.Arg
	if action == "" {
		ctx.Player.Output <- server.Ansi(server.Style("\r\nDo what?", server.AnsiYellow))
		return false
	}
	place, ok := ctx.Realm.CurrentPlace(ctx.Player)
	if !ok {
		ctx.Player.Output <- server.Ansi(server.Style("\r\nThere is nowhere to act.", server.AnsiYellow))
		return false
	}

	place.WriteTo(action, ctx.Player.Persona, true)

	ctx.Realm.BroadcastToPlace(place, server.Ansi(fmt.Sprintf("\r\n%s %s", server.HighlightName(ctx.Player.Name), action)), ctx.Player)
	ctx.Player.Output <- server.Ansi(fmt.Sprintf("\r\n%s %s", server.Style("You", server.AnsiBold, server.AnsiYellow), action))
	return false
})

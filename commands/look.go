package commands

import (
	"fmt"
	"strings"

	"EmberVale/internal/interp"
	"EmberVale/internal/server"
	"EmberVale/internal/world"
)

var Look = Define(Definition{
	Name:        "look",
	Aliases:     []string{"l"},
	Usage:       "look [name]",
	Description: "take in your surroundings, or study one thing",
}, func(ctx *Context) bool {
	place, ok := ctx.Realm.CurrentPlace(ctx.Player)
	if !ok {
		ctx.Player.Output <- server.Ansi(server.Style("\r\nYou seem to be nowhere.", server.AnsiYellow))
		return false
	}

	if ctx.Arg != "" {
		lookAt(ctx, place, ctx.Arg)
		return false
	}

	ctx.Player.Output <- server.Ansi(renderPlace(place, ctx.Player))
	return false
})

// lookAt studies one named entity present in the place.
func lookAt(ctx *Context, place *world.Place, name string) {
	target := strings.ToLower(name)
	for _, thing := range place.GetThings() {
		if strings.Contains(strings.ToLower(thing.Name), target) {
			ctx.Player.Output <- server.Ansi("\r\n" + strings.Join(thing.RenderToLook(), "\r\n"))
			return
		}
	}
	for _, persona := range place.GetPersonas() {
		if strings.Contains(strings.ToLower(persona.Name), target) {
			ctx.Player.Output <- server.Ansi("\r\n" + strings.Join(persona.RenderToLook(), "\r\n"))
			return
		}
	}
	ctx.Player.Output <- server.Ansi(server.Style(fmt.Sprintf("\r\nYou see no %s here.", name), server.AnsiYellow))
}

// renderPlace builds the full room view: the place's own rendering, the
// things and personas present, and the linked paths.
func renderPlace(place *world.Place, viewer *server.Player) string {
	lines := place.RenderToLook()
	lines[0] = server.Style(lines[0], server.AnsiBold, server.AnsiCyan)

	for _, thing := range place.GetThings() {
		lines = append(lines, strings.Join(thing.RenderToLocation(), " "))
	}
	for _, persona := range place.GetPersonas() {
		if viewer != nil && persona == viewer.Persona {
			continue
		}
		lines = append(lines, server.HighlightName(persona.Name)+" is here")
	}

	if linked := place.LinkedPlaces(); len(linked) > 0 {
		names := make([]string, 0, len(linked))
		for _, l := range linked {
			names = append(names, l.Name)
		}
		lines = append(lines, server.Style("Paths lead to "+interp.CommaList(names, interp.OxfordComma)+".", server.AnsiGreen))
	}

	return "\r\n\r\n" + strings.Join(lines, "\r\n")
}

package commands

var Quit = Define(Definition{
	Name:        "quit",
	Aliases:     []string{"exit", "logout"},
	Usage:       "quit",
	Description: "leave the world",
}, func(ctx *Context) bool {
	return true
})

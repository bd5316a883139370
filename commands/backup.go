package commands

import (
	"EmberVale/internal/server"
)

var Backup = Define(Definition{
	Name:        "backup",
	Usage:       "backup",
	Description: "archive the previous snapshot and write a fresh one",
	AdminOnly:   true,
}, func(ctx *Context) bool {
	if err := ctx.Realm.Engine.WriteLiveBackup(); err != nil {
		ctx.Realm.Log.LogError(err)
		ctx.Player.Output <- server.Ansi(server.Style("\r\nThe backup did not complete cleanly.", server.AnsiYellow))
		return false
	}
	ctx.Player.Output <- server.Ansi(server.Style("\r\nThe world's state has been written down.", server.AnsiGreen))
	return false
})

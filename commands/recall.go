package commands

import (
	"fmt"
	"strconv"
	"strings"

	"EmberVale/internal/interp"
	"EmberVale/internal/server"
)

const defaultRecallDepth = 10

var Recall = Define(Definition{
	Name:        "recall",
	Aliases:     []string{"remember"},
	Usage:       "recall [count]",
	Description: "replay your most recent memories",
}, func(ctx *Context) bool {
	depth := defaultRecallDepth
	if ctx.Arg != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(ctx.Arg))
		if err != nil || parsed < 1 {
			ctx.Player.Output <- server.Ansi(server.Style("\r\nRecall how many memories?", server.AnsiYellow))
			return false
		}
		depth = parsed
	}

	record := ctx.Player.Persona.AkashicRecord
	if len(record) == 0 {
		ctx.Player.Output <- server.Ansi(server.Style("\r\nNothing has happened to you yet.", server.AnsiYellow))
		return false
	}
	if depth > len(record) {
		depth = len(record)
	}

	lines := []string{server.Style("You remember:", server.AnsiBold, server.AnsiCyan)}
	for _, memory := range record[len(record)-depth:] {
		prose := interp.ReconstructMemory(memory, ctx.Realm.Deps.Cache)
		stamp := server.Style(memory.Timestamp.Format("15:04"), server.AnsiDim)
		lines = append(lines, fmt.Sprintf("%s %s", stamp, prose))
	}
	ctx.Player.Output <- server.Ansi("\r\n" + strings.Join(lines, "\r\n"))
	return false
})

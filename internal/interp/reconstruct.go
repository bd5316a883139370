package interp

import (
	"fmt"
	"strings"

	"EmberVale/internal/cache"
	"EmberVale/internal/world"
)

// ReconstructMemory renders one akashic entry back into prose. Spoken
// memories are repeated verbatim; observed actions are rebuilt from their
// derived facts as "<actor> <verbs> the <descriptors> <nouns>".
func ReconstructMemory(memory world.AkashicEntry, c *cache.LiveCache) string {
	if memory.Spoken {
		return memory.Observance
	}

	var verbs, adjectives, nouns []string
	for _, fact := range memory.Context {
		switch fact.Kind {
		case world.VerbContext:
			name := fact.Name
			if !strings.HasSuffix(name, "s") {
				name += "s"
			}
			verbs = append(verbs, name)
		case world.DescriptorContext:
			adjectives = append(adjectives, fact.Name)
		case world.NounContext:
			nouns = append(nouns, strings.TrimPrefix(fact.Name, "the "))
		}
	}

	actorName := "someone"
	if actor, ok := memory.Actor(c); ok {
		actorName = actor.Name
	}

	subject := CommaList(nouns, OxfordComma)
	description := CommaList(adjectives, OxfordComma)
	if description != "" {
		subject = description + " " + subject
	}
	if subject != "" {
		subject = "the " + subject
	}

	return strings.TrimSpace(fmt.Sprintf("%s %s %s", actorName, CommaList(verbs, OxfordComma), subject))
}

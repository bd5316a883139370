package world

// ContextKind tags the variant of a context fact.
type ContextKind string

const (
	NounContext       ContextKind = "noun"
	VerbContext       ContextKind = "verb"
	DescriptorContext ContextKind = "descriptor"
)

// ActionKind names what a verb does to a target's context.
type ActionKind string

const (
	ActionApply  ActionKind = "apply"
	ActionRemove ActionKind = "remove"
)

// Affect is one recorded effect of a verb on a target word.
type Affect struct {
	Action ActionKind `json:"action"`
	Param  string     `json:"param"`
}

// Context is one learned unit of meaning attached to an entity. The Kind tag
// selects the variant: nouns carry nothing extra, descriptors carry an
// opposite word and an applied flag, verbs carry an affects map keyed by
// target word. Strength is the reinforcement counter that resolves naming
// conflicts between differently-kinded facts.
type Context struct {
	Kind     ContextKind         `json:"kind"`
	Name     string              `json:"name"`
	Strength int                 `json:"strength"`
	Opposite string              `json:"opposite,omitempty"`
	Applied  bool                `json:"applied,omitempty"`
	Affects  map[string][]Affect `json:"affects,omitempty"`
}

// NewNoun builds a fresh noun fact.
func NewNoun(name string) Context {
	return Context{Kind: NounContext, Name: name}
}

// NewVerb builds a fresh verb fact with an empty affects map.
func NewVerb(name string) Context {
	return Context{Kind: VerbContext, Name: name, Affects: make(map[string][]Affect)}
}

// NewDescriptor builds a fresh descriptor fact.
func NewDescriptor(name string) Context {
	return Context{Kind: DescriptorContext, Name: name}
}

// AddAffect records an effect under a target word with set semantics.
func (c *Context) AddAffect(target string, affect Affect) {
	if c.Kind != VerbContext {
		return
	}
	if c.Affects == nil {
		c.Affects = make(map[string][]Affect)
	}
	for _, have := range c.Affects[target] {
		if have == affect {
			return
		}
	}
	c.Affects[target] = append(c.Affects[target], affect)
}

// MergeContexts folds newly derived facts into an entity's accumulated
// context. Each incoming fact gains one strength. A same-name fact of the
// same kind absorbs the incoming strength and survives. A same-name fact of
// a different kind loses one strength per collision and is only replaced,
// with the newcomer reset to strength one, once its own strength reaches
// zero; classification therefore stabilizes over repeated usage instead of
// flipping on every mention.
func MergeContexts(existing []Context, incoming []Context) []Context {
	merged := append([]Context(nil), existing...)

	for _, novel := range incoming {
		novel.Strength++

		found := -1
		for i := range merged {
			if merged[i].Name == novel.Name {
				found = i
				break
			}
		}
		if found < 0 {
			merged = append(merged, novel)
			continue
		}

		current := &merged[found]
		if current.Kind == novel.Kind {
			current.Strength += novel.Strength
			if current.Kind == VerbContext {
				for target, affects := range novel.Affects {
					for _, affect := range affects {
						current.AddAffect(target, affect)
					}
				}
			}
			if current.Kind == DescriptorContext && novel.Applied {
				current.Applied = true
			}
			continue
		}

		current.Strength--
		if current.Strength <= 0 {
			novel.Strength = 1
			merged[found] = novel
		}
	}

	return merged
}

// FindContext locates a fact by exact name within a context list.
func FindContext(facts []Context, name string) (Context, bool) {
	for _, fact := range facts {
		if fact.Name == name {
			return fact, true
		}
	}
	return Context{}, false
}

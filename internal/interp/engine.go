// Package interp is the contextual parser: it converts observed text plus
// actor, observer and place context into structured context facts, and grows
// the world as a side effect when the observing entity is the place itself.
package interp

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"EmberVale/internal/cache"
	"EmberVale/internal/logging"
	"EmberVale/internal/world"
)

// stopwords carry no meaning on their own and are scrubbed before branding:
// articles, common prepositions and demonstratives.
var stopwords = map[string]bool{
	"the": true, "of": true, "to": true, "into": true, "in": true,
	"from": true, "inside": true, "at": true, "a": true, "an": true,
	"this": true, "that": true, "these": true, "those": true,
	"here": true, "there": true,
}

// List patterns, longest first. Order matters: a four-member list must not be
// half-eaten by the shorter comma pattern.
var listPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\w+), (\w+), (\w+), and (\w+)`),
	regexp.MustCompile(`(\w+), (\w+), and (\w+)`),
	regexp.MustCompile(`(\w+), (\w+) and (\w+)`),
	regexp.MustCompile(`(\w+) and (\w+) and (\w+)`),
}

var sentenceSplit = regexp.MustCompile(`[.!?;]`)

// Engine interprets observances. It satisfies world.Interpreter.
type Engine struct {
	deps *world.Deps
}

// New builds an engine over the shared collaborators.
func New(deps *world.Deps) *Engine {
	return &Engine{deps: deps}
}

// Experience turns one observance into context facts. Acting input derives a
// verb, a target noun and descriptors; speech derives descriptors from
// adjacency with known names. Text that resolves to nothing is not an error,
// it is ordinary input, and yields no facts.
func (e *Engine) Experience(observer, actor world.Entity, observance string, acting bool) []world.Context {
	place := e.currentPlace(observer)
	if place == nil {
		return nil
	}

	input := strings.ToLower(norm.NFC.String(observance))

	var facts []world.Context
	for _, sentence := range splitSentences(input) {
		tokens := e.tokenize(sentence, observer, actor, place)
		if len(tokens) == 0 {
			continue
		}
		e.brand(tokens, observer, actor, place)

		if acting {
			facts = append(facts, e.parseAction(observer, place, tokens)...)
		} else {
			facts = append(facts, e.parseSpeech(observer, place, tokens)...)
		}
	}
	return facts
}

// currentPlace resolves the place the observer occupies; the observer may be
// the place itself.
func (e *Engine) currentPlace(observer world.Entity) *world.Place {
	if place, ok := observer.(*world.Place); ok {
		return place
	}
	pos := observer.PositionID()
	if pos == nil {
		return nil
	}
	place, ok := cache.GetByID[*world.Place](e.deps.Cache, world.KindPlace, *pos)
	if !ok {
		return nil
	}
	return place
}

// splitSentences isolates sentences on terminal punctuation, falling back to
// the whole input when splitting yields no multi-word sentence.
func splitSentences(input string) []string {
	parts := sentenceSplit.Split(input, -1)
	var sentences []string
	multiWord := false
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.ContainsRune(part, ' ') {
			multiWord = true
		}
		sentences = append(sentences, part)
	}
	if !multiWord {
		if trimmed := strings.TrimSpace(input); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}
	return sentences
}

// token is one unit of parsed meaning. A list token carries members that
// share a single resolved meaning.
type token struct {
	text    string
	members []string
	meaning *world.Context
}

func (t token) isList() bool { return len(t.members) > 0 }

// tokenize runs the textual pipeline for one sentence: quote extraction,
// known-entity extraction, list extraction, splitting, placeholder
// resolution, stopword scrub and leading self-reference removal.
func (e *Engine) tokenize(sentence string, observer, actor world.Entity, place *world.Place) []token {
	held := newPlaceholders()

	sentence = extractQuotes(sentence, held)
	sentence = extractKnownNames(sentence, held, knownNames(observer, actor, place))
	sentence = extractLists(sentence, held)

	words := strings.FieldsFunc(sentence, func(r rune) bool {
		return r == ' ' || r == ',' || r == ';' || r == '?' || r == '.' || r == '!'
	})

	var tokens []token
	for _, word := range words {
		if resolved, ok := held.resolve(word); ok {
			tokens = append(tokens, resolved)
			continue
		}
		if stopwords[word] {
			continue
		}
		tokens = append(tokens, token{text: word})
	}

	// Imperative self-reference carries no information.
	if len(tokens) > 0 && !tokens[0].isList() && (tokens[0].text == "i" || tokens[0].text == "me") {
		tokens = tokens[1:]
	}
	return tokens
}

// placeholders maps %%n%% markers back to the text they shield from the
// tokenizer.
type placeholders struct {
	next   int
	tokens map[string]token
}

func newPlaceholders() *placeholders {
	return &placeholders{tokens: make(map[string]token)}
}

func (p *placeholders) hold(t token) string {
	marker := fmt.Sprintf("%%%%%d%%%%", p.next)
	p.next++
	p.tokens[marker] = t
	return marker
}

func (p *placeholders) resolve(word string) (token, bool) {
	t, ok := p.tokens[word]
	return t, ok
}

// extractQuotes shields quoted text behind placeholders. Exactly one stray
// quote is discarded rather than treated as an error.
func extractQuotes(sentence string, held *placeholders) string {
	for strings.Contains(sentence, `"`) {
		first := strings.IndexRune(sentence, '"')
		rest := strings.IndexRune(sentence[first+1:], '"')
		if rest < 0 {
			sentence = strings.Replace(sentence, `"`, "", 1)
			break
		}
		second := first + 1 + rest
		quoted := sentence[first+1 : second]
		marker := held.hold(token{text: quoted})
		sentence = sentence[:first] + marker + sentence[second+1:]
	}
	return sentence
}

// knownNames gathers every name the observer could recognize: its own, the
// actor's, the place's, and the names of everything present in the place.
// Longer names come first so a containing name is matched before a contained
// one.
func knownNames(observer, actor world.Entity, place *world.Place) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	add(place.EntityName())
	if observer != nil {
		add(observer.EntityName())
	}
	if actor != nil {
		add(actor.EntityName())
	}
	for _, thing := range place.GetThings() {
		add(thing.Name)
	}
	for _, persona := range place.GetPersonas() {
		add(persona.Name)
	}

	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if len(names[j]) > len(names[i]) {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	return names
}

// extractKnownNames shields known entity names behind placeholders so
// multi-word names survive tokenization intact.
func extractKnownNames(sentence string, held *placeholders, names []string) string {
	for _, name := range names {
		for strings.Contains(sentence, name) {
			marker := held.hold(token{text: name})
			sentence = strings.Replace(sentence, name, marker, 1)
		}
	}
	return sentence
}

// extractLists shields comma/conjunction lists behind placeholders, longest
// pattern first.
func extractLists(sentence string, held *placeholders) string {
	for _, pattern := range listPatterns {
		for {
			match := pattern.FindStringSubmatch(sentence)
			if match == nil {
				break
			}
			members := append([]string(nil), match[1:]...)
			marker := held.hold(token{text: strings.Join(members, " "), members: members})
			sentence = strings.Replace(sentence, match[0], marker, 1)
		}
	}
	return sentence
}

// brand assigns each token its provisional meaning by exact name lookup in
// accumulated context, actor first, then the place, then the observer. List
// members share the first meaning found among them.
func (e *Engine) brand(tokens []token, observer, actor world.Entity, place *world.Place) {
	sources := make([][]world.Context, 0, 3)
	if actor != nil {
		sources = append(sources, actor.Context())
	}
	sources = append(sources, place.Context())
	if observer != nil {
		sources = append(sources, observer.Context())
	}

	lookup := func(name string) *world.Context {
		for _, source := range sources {
			if fact, ok := world.FindContext(source, name); ok {
				found := fact
				return &found
			}
		}
		return nil
	}

	for i := range tokens {
		if tokens[i].isList() {
			for _, member := range tokens[i].members {
				if meaning := lookup(member); meaning != nil {
					tokens[i].meaning = meaning
					break
				}
			}
			continue
		}
		tokens[i].meaning = lookup(tokens[i].text)
	}
}

// parseAction derives a verb, a target noun and descriptors from acting
// input, and grows the world when the observer is the place itself.
func (e *Engine) parseAction(observer world.Entity, place *world.Place, tokens []token) []world.Context {
	verb, verbToken := electVerb(tokens)
	if verb == nil {
		return nil
	}
	target := electTarget(tokens, verbToken)
	if target == "" {
		return nil
	}

	var facts []world.Context
	for i := range tokens {
		if i == verbToken {
			continue
		}
		if !tokens[i].isList() && tokens[i].text == target {
			continue
		}
		meaning := tokens[i].meaning
		if meaning != nil && meaning.Kind != world.DescriptorContext {
			continue
		}
		for _, name := range tokenNames(tokens[i]) {
			if name == target {
				continue
			}
			descriptor := world.NewDescriptor(name)
			if meaning != nil && meaning.Kind == world.DescriptorContext {
				descriptor.Opposite = meaning.Opposite
			}
			descriptor.Applied = true
			verb.AddAffect(target, world.Affect{Action: world.ActionApply, Param: name})
			facts = append(facts, descriptor)
		}
	}

	facts = append(facts, *verb)
	facts = append(facts, world.NewNoun(target))

	if observer == world.Entity(place) {
		e.materializeThing(place, target, facts)
	}
	return facts
}

// electVerb finds the verb: an already-branded verb token wins, otherwise the
// first unmatched token is declared one. Input with neither yields no verb
// and the sentence produces nothing.
func electVerb(tokens []token) (*world.Context, int) {
	for i := range tokens {
		if tokens[i].meaning != nil && tokens[i].meaning.Kind == world.VerbContext {
			return tokens[i].meaning, i
		}
	}
	for i := range tokens {
		if tokens[i].meaning == nil && !tokens[i].isList() {
			verb := world.NewVerb(tokens[i].text)
			tokens[i].meaning = &verb
			return &verb, i
		}
	}
	return nil, -1
}

// electTarget picks the action's target: the last unmatched non-list token
// after the verb, falling back to the last token of any kind.
func electTarget(tokens []token, verbToken int) string {
	for i := len(tokens) - 1; i >= 0; i-- {
		if i == verbToken || tokens[i].isList() {
			continue
		}
		if tokens[i].meaning == nil || tokens[i].meaning.Kind == world.NounContext {
			return tokens[i].text
		}
	}
	for i := len(tokens) - 1; i >= 0; i-- {
		if i != verbToken && !tokens[i].isList() {
			return tokens[i].text
		}
	}
	return ""
}

func tokenNames(t token) []string {
	if t.isList() {
		return t.members
	}
	return []string{t.text}
}

// materializeThing creates or reinforces the thing an action targeted. The
// place itself and personas present are never shadowed by a new thing.
func (e *Engine) materializeThing(place *world.Place, target string, facts []world.Context) {
	if strings.EqualFold(place.Name, target) {
		return
	}
	for _, persona := range place.GetPersonas() {
		if strings.EqualFold(persona.Name, target) {
			return
		}
	}
	for _, thing := range place.GetThings() {
		if strings.EqualFold(thing.Name, target) {
			thing.ConveyMeaning(facts)
			if err := thing.Save(); err != nil {
				e.deps.Log.LogError(err)
			}
			return
		}
	}

	thing := world.NewThing(e.deps)
	thing.Name = target
	thing.ConveyMeaning(facts)
	if err := thing.Create(); err != nil {
		e.deps.Log.LogError(err)
		return
	}
	if !place.MoveInto(thing) {
		e.deps.Log.LogError(fmt.Errorf("could not place new thing %q", target))
		return
	}
	e.deps.Log.WriteToLog(fmt.Sprintf("materialized thing %q in %q", target, place.Name), logging.ChannelProcessingLoops)
}

// parseSpeech derives descriptors from adjacency: a token directly before
// something known to be present reads as describing it. Tokens naming known
// places are place references, not descriptors, and speech about an unknown
// last-named location can open a new linked place.
func (e *Engine) parseSpeech(observer world.Entity, place *world.Place, tokens []token) []world.Context {
	if len(tokens) < 2 {
		return nil
	}

	present := make(map[string]bool)
	present[strings.ToLower(place.Name)] = true
	for _, thing := range place.GetThings() {
		present[strings.ToLower(thing.Name)] = true
	}
	for _, persona := range place.GetPersonas() {
		present[strings.ToLower(persona.Name)] = true
	}

	placeNames := make(map[string]*world.Place)
	for _, known := range cache.GetAll[*world.Place](e.deps.Cache) {
		placeNames[strings.ToLower(known.Name)] = known
	}

	var facts []world.Context
	for i := 1; i < len(tokens); i++ {
		if tokens[i].isList() || tokens[i-1].isList() {
			continue
		}
		prev, curr := tokens[i-1].text, tokens[i].text
		if _, isPlace := placeNames[prev]; isPlace {
			continue
		}
		if present[curr] && !present[prev] {
			descriptor := world.NewDescriptor(prev)
			descriptor.Applied = true
			facts = append(facts, descriptor)
		}
	}

	if observer == world.Entity(place) {
		e.materializePlace(place, tokens, present, placeNames)
	}
	return facts
}

// materializePlace opens or links a place named in speech: the last token is
// read as the spoken-of location; an unknown name becomes a fresh linked
// place, a known unlinked one just gains the link.
func (e *Engine) materializePlace(place *world.Place, tokens []token, present map[string]bool, placeNames map[string]*world.Place) {
	last := tokens[len(tokens)-1]
	if last.isList() || last.text == "" {
		return
	}
	name := last.text
	if strings.EqualFold(place.Name, name) || present[name] {
		return
	}
	if last.meaning != nil && last.meaning.Kind != world.NounContext {
		return
	}
	if known, ok := placeNames[name]; ok {
		if !place.LinkedTo(known.ID) {
			place.LinkTo(known)
		}
		return
	}

	opened := world.NewPlace(e.deps)
	opened.Name = name
	if err := opened.Create(); err != nil {
		e.deps.Log.LogError(err)
		return
	}
	place.LinkTo(opened)
	e.deps.Log.WriteToLog(fmt.Sprintf("opened place %q from %q", name, place.Name), logging.ChannelProcessingLoops)
}

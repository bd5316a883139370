package server

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"EmberVale/internal/backup"
	"EmberVale/internal/cache"
	"EmberVale/internal/logging"
	"EmberVale/internal/world"
)

// Player is one live connection bound to a persona. Output is a buffered
// channel drained by a per-connection writer goroutine. The channel is never
// closed: command handlers may still hold the player mid-dispatch when the
// session is claimed from elsewhere, so the writer exits through done
// instead.
type Player struct {
	Name      string
	SessionID string
	Session   *TelnetSession
	Persona   *world.Persona
	Output    chan string
	Admin     bool
	Alive     bool

	done     chan struct{}
	doneOnce sync.Once
}

// Done signals the player's output writer to stop.
func (p *Player) Done() <-chan struct{} { return p.done }

// Finish releases the output writer. Safe to call more than once.
func (p *Player) Finish() {
	p.doneOnce.Do(func() {
		if p.done != nil {
			close(p.done)
		}
	})
}

// Realm ties the connected players to the live world: it resolves personas
// on login, tracks who is online, and fans messages out to co-located
// players.
type Realm struct {
	Deps     *world.Deps
	Engine   *backup.Engine
	Accounts *AccountManager
	Log      *logging.Logger

	mu      sync.RWMutex
	players map[string]*Player
}

func NewRealm(deps *world.Deps, engine *backup.Engine, accounts *AccountManager, log *logging.Logger) *Realm {
	return &Realm{
		Deps:     deps,
		Engine:   engine,
		Accounts: accounts,
		Log:      log,
		players:  make(map[string]*Player),
	}
}

// ActivePlayer reports whether a player of that name is currently connected.
func (r *Realm) ActivePlayer(name string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[strings.ToLower(name)]
	return p, ok
}

// PlayersOnline snapshots the connected players.
func (r *Realm) PlayersOnline() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	return out
}

// addPlayer binds a fresh connection to its persona, creating and spawning
// the persona on first login.
func (r *Realm) addPlayer(username string, session *TelnetSession, admin bool) (*Player, error) {
	key := strings.ToLower(username)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[key]; ok {
		return nil, fmt.Errorf("player %q is already connected", username)
	}

	persona, err := r.resolvePersona(username)
	if err != nil {
		return nil, err
	}

	p := &Player{
		Name:      persona.Name,
		SessionID: uuid.NewString(),
		Session:   session,
		Persona:   persona,
		Output:    make(chan string, 32),
		Admin:     admin,
		Alive:     true,
		done:      make(chan struct{}),
	}
	r.players[key] = p
	r.Log.WriteToLog(fmt.Sprintf("player %s joined (session %s)", p.Name, p.SessionID), logging.ChannelAccountActivity)
	return p, nil
}

// resolvePersona finds the persona matching the account name, ignoring case,
// or creates one and spawns it into the default location.
func (r *Realm) resolvePersona(username string) (*world.Persona, error) {
	if persona, ok := cache.GetByName[*world.Persona](r.Deps.Cache, username); ok {
		return persona, nil
	}
	persona := world.NewPersona(r.Deps)
	persona.Name = strings.ToLower(username)
	if err := persona.Create(); err != nil {
		return nil, fmt.Errorf("create persona for %s: %w", username, err)
	}
	if err := persona.SpawnNewInWorld(nil); err != nil {
		return nil, fmt.Errorf("spawn persona for %s: %w", username, err)
	}
	return persona, nil
}

// AddPlayerForTest registers an already constructed player, bypassing login.
func (r *Realm) AddPlayerForTest(p *Player) {
	if p.done == nil {
		p.done = make(chan struct{})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[strings.ToLower(p.Name)] = p
}

func (r *Realm) removePlayer(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, strings.ToLower(name))
}

// PrepareTakeover detaches an existing session for the name so the new
// connection can claim it. The caller notifies the detached player, finishes
// its writer and closes the returned session. The output channel stays open:
// a command handler may still be mid-dispatch on the old connection, and a
// late send must land in the buffer, not panic.
func (r *Realm) PrepareTakeover(name string) (*Player, *TelnetSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[strings.ToLower(name)]
	if !ok {
		return nil, nil, false
	}
	oldSession := p.Session
	p.Alive = false
	// Clearing the session keeps the detached handler from running its
	// farewell sequence against the claimed connection.
	p.Session = nil
	delete(r.players, strings.ToLower(name))
	return p, oldSession, true
}

// CurrentPlace resolves the place holding the player's persona.
func (r *Realm) CurrentPlace(p *Player) (*world.Place, bool) {
	if p == nil || p.Persona == nil || p.Persona.PositionID() == nil {
		return nil, false
	}
	return cache.GetByID[*world.Place](r.Deps.Cache, world.KindPlace, *p.Persona.PositionID())
}

// BroadcastToPlace sends a message to every connected player whose persona
// is in the place, excluding one.
func (r *Realm) BroadcastToPlace(place *world.Place, msg string, exclude *Player) {
	if place == nil {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.players {
		if p == exclude || !p.Alive {
			continue
		}
		pos := p.Persona.PositionID()
		if pos == nil || *pos != place.ID {
			continue
		}
		select {
		case p.Output <- msg:
		default:
		}
	}
}

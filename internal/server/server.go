package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"EmberVale/internal/logging"
)

// Dispatcher executes one command line for a connected player. Returning
// true terminates the connection.
type Dispatcher func(*Realm, *Player, string) bool

const (
	postLoginAtmosphere = "The embers of the vale glow a little brighter as you arrive."
	postLoginPrompt     = "Type 'help' for the essentials or 'look' to take in your surroundings."
	logoffAtmosphere    = "The embers dim behind you as you slip away."
)

var (
	netListenFunc = net.Listen
	acceptSleep   = time.Sleep
)

const (
	acceptBackoffStart = 50 * time.Millisecond
	acceptBackoffMax   = time.Second
)

// ListenAndServe accepts telnet connections on addr and runs each one
// through login, persona binding and the command loop until the listener
// fails.
func ListenAndServe(addr string, realm *Realm, dispatcher Dispatcher) error {
	if dispatcher == nil {
		return fmt.Errorf("dispatcher must not be nil")
	}
	ln, err := netListenFunc("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	defer ln.Close()
	realm.Log.WriteToLog(fmt.Sprintf("listening on %s (telnet + ANSI ready)", ln.Addr()), logging.ChannelSocketCommunication)

	return acceptConnections(ln, realm, func(conn net.Conn) {
		go handleConn(conn, realm, dispatcher)
	})
}

func acceptConnections(ln net.Listener, realm *Realm, handle func(net.Conn)) error {
	backoff := acceptBackoffStart
	for {
		conn, err := ln.Accept()
		if err != nil {
			if isTemporaryAcceptError(err) {
				realm.Log.WriteToLog(fmt.Sprintf("temporary accept error: %v; retrying in %s", err, backoff), logging.ChannelSocketCommunication)
				acceptSleep(backoff)
				backoff *= 2
				if backoff > acceptBackoffMax {
					backoff = acceptBackoffMax
				}
				continue
			}
			return err
		}
		backoff = acceptBackoffStart
		handle(conn)
	}
}

func isTemporaryAcceptError(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() || ne.Temporary() {
			return true
		}
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}

func handleConn(conn net.Conn, realm *Realm, dispatcher Dispatcher) {
	session := NewTelnetSession(conn)
	defer session.Close()

	username, isAdmin, err := login(session, realm.Accounts)
	if err != nil {
		return
	}

	if !negotiateTakeover(session, realm, username) {
		return
	}

	p, err := realm.addPlayer(username, session, isAdmin)
	if err != nil {
		_ = session.WriteString(Ansi(Style("\r\n"+err.Error()+"\r\n", AnsiYellow)))
		return
	}

	if err := realm.Accounts.RecordLogin(username, time.Now().UTC()); err != nil {
		realm.Log.LogError(fmt.Errorf("record login for %s: %w", username, err))
	}

	go func() {
		for {
			select {
			case out := <-p.Output:
				_ = session.WriteString(out)
			case <-p.Done():
				// Drain what was queued before the writer was released.
				for {
					select {
					case out := <-p.Output:
						_ = session.WriteString(out)
					default:
						return
					}
				}
			}
		}
	}()

	p.Output <- Ansi("\r\n" + Style(postLoginAtmosphere, AnsiMagenta, AnsiBold) + "\r\n")
	p.Output <- Ansi("Welcome, " + HighlightName(p.Name) + Style("!\r\n", AnsiMagenta))
	p.Output <- Ansi(Style(postLoginPrompt+"\r\n", AnsiGreen))
	if place, ok := realm.CurrentPlace(p); ok {
		realm.BroadcastToPlace(place, Ansi(fmt.Sprintf("\r\n%s arrives.", HighlightName(p.Name))), p)
	}

	_ = conn.SetReadDeadline(time.Time{})

	for {
		line, err := session.ReadLine()
		if err != nil {
			break
		}
		line = Trim(line)
		if line == "" {
			p.Output <- Prompt()
			continue
		}
		if !p.Alive {
			break
		}
		if quit := dispatcher(realm, p, line); quit {
			break
		}
		p.Output <- Prompt()
	}

	if p.Session != session {
		return
	}

	p.Output <- Ansi("\r\n" + Style(logoffAtmosphere, AnsiMagenta, AnsiBold) + "\r\n")
	p.Output <- Ansi("Until next time, " + HighlightName(p.Name) + Style(".\r\n", AnsiMagenta))
	p.Alive = false
	if place, ok := realm.CurrentPlace(p); ok {
		realm.BroadcastToPlace(place, Ansi(fmt.Sprintf("\r\n%s fades from view.", HighlightName(p.Name))), p)
	}
	if err := p.Persona.Save(); err != nil {
		realm.Log.LogError(err)
	}
	realm.removePlayer(p.Name)
	p.Finish()
}

// negotiateTakeover asks the new connection whether to claim an already
// active session for the same account. Returns false when the connection
// should end.
func negotiateTakeover(session *TelnetSession, realm *Realm, username string) bool {
	for {
		if _, ok := realm.ActivePlayer(username); !ok {
			return true
		}

		notice := "\r\n" + Style("Another session for "+HighlightName(username)+" is already active.", AnsiYellow)
		_ = session.WriteString(Ansi(notice))
		_ = session.WriteString(Ansi("\r\nTake over the existing session? (yes/no): "))
		response, err := session.ReadLine()
		if err != nil {
			return false
		}
		switch strings.ToLower(Trim(response)) {
		case "y", "yes":
			old, oldSession, ok := realm.PrepareTakeover(username)
			if !ok {
				continue
			}
			takeover := Ansi("\r\n" + Style("Your connection has been claimed from another location.", AnsiYellow) + "\r\n")
			select {
			case old.Output <- takeover:
			default:
			}
			old.Finish()
			if oldSession != nil {
				_ = oldSession.Close()
			}
			_ = session.WriteString(Ansi("\r\n" + Style("Previous connection released.\r\n", AnsiGreen)))
			return true
		case "n", "no":
			_ = session.WriteString(Ansi("\r\n" + Style("Maintaining the existing session.\r\n", AnsiYellow)))
			return false
		default:
			_ = session.WriteString(Ansi("\r\n" + Style("Please respond with 'yes' or 'no'.", AnsiYellow)))
		}
	}
}

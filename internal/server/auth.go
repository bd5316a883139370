package server

import (
	"fmt"
	"strings"
)

const (
	loginBanner = "╔══════════════════════════════════════╗\r\n" +
		"║              EMBERVALE               ║\r\n" +
		"║   A world that remembers your words  ║\r\n" +
		"╚══════════════════════════════════════╝"
	loginTagline = "Everything spoken here leaves a mark."

	maxNameAttempts     = 5
	maxPasswordAttempts = 3
	maxNameLength       = 24
	minPasswordLength   = 6
)

// checkName rejects names the vale cannot carry: blanks, whitespace, and
// anything too long to fit a place description.
func checkName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("the embers need a name to answer to")
	case strings.ContainsAny(name, " \t\r\n"):
		return fmt.Errorf("a name is a single word here")
	case len(name) > maxNameLength:
		return fmt.Errorf("keep your name to %d characters or fewer", maxNameLength)
	default:
		return nil
	}
}

func checkPassword(password string) error {
	switch {
	case password == "":
		return fmt.Errorf("a blank password guards nothing")
	case len(password) < minPasswordLength:
		return fmt.Errorf("use at least %d characters", minPasswordLength)
	default:
		return nil
	}
}

// promptLine writes a prompt and reads one trimmed line back.
func promptLine(session *TelnetSession, prompt string) (string, error) {
	_ = session.WriteString(Ansi(prompt))
	line, err := session.ReadLine()
	if err != nil {
		return "", err
	}
	return Trim(line), nil
}

func warn(session *TelnetSession, msg string) {
	_ = session.WriteString(Ansi(Style("\r\n"+msg, AnsiYellow)))
}

// login walks a fresh connection through the gate: greet, ask for a name,
// then either prove the returning account's password or claim the name with
// a new one. Returns the account name and whether it carries admin standing.
func login(session *TelnetSession, accounts *AccountManager) (string, bool, error) {
	_ = session.WriteString(Ansi("\r\n" + Style(loginBanner, AnsiCyan, AnsiBold) + "\r\n"))
	_ = session.WriteString(Ansi(Style("\r\n"+loginTagline+"\r\n", AnsiGreen)))
	_ = session.WriteString(Ansi(Style("\r\nWho approaches the vale?\r\n", AnsiMagenta, AnsiBold)))

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name, err := promptLine(session, "\r\nName: ")
		if err != nil {
			return "", false, err
		}
		if err := checkName(name); err != nil {
			warn(session, err.Error())
			continue
		}

		if accounts.Exists(name) {
			return proveIdentity(session, accounts, name)
		}
		claimed, err := claimName(session, accounts, name)
		if err != nil {
			return "", false, err
		}
		if claimed {
			return name, accounts.IsAdmin(name), nil
		}
		// Registration was refused; let the visitor pick another name.
	}

	_ = session.WriteString(Ansi("\r\nThe gate stays shut.\r\n"))
	return "", false, fmt.Errorf("login cancelled")
}

// proveIdentity gives a returning account a few tries at its password.
func proveIdentity(session *TelnetSession, accounts *AccountManager, name string) (string, bool, error) {
	for try := 0; try < maxPasswordAttempts; try++ {
		password, err := promptLine(session, "\r\nPassword: ")
		if err != nil {
			return "", false, err
		}
		if accounts.Authenticate(name, password) {
			_ = session.WriteString(Ansi(Style("\r\nThe vale remembers you, "+name+".", AnsiGreen)))
			return name, accounts.IsAdmin(name), nil
		}
		warn(session, "That is not the word the embers hold.")
	}
	_ = session.WriteString(Ansi("\r\nToo many failed attempts.\r\n"))
	return "", false, fmt.Errorf("authentication failed")
}

// claimName registers a new account under an unclaimed name. Returns false,
// without error, when the register call itself refuses the name.
func claimName(session *TelnetSession, accounts *AccountManager, name string) (bool, error) {
	_ = session.WriteString(Ansi(Style("\r\nNo one here answers to "+name+" yet.", AnsiMagenta)))
	for {
		password, err := promptLine(session, "\r\nSet a password: ")
		if err != nil {
			return false, err
		}
		if err := checkPassword(password); err != nil {
			warn(session, err.Error())
			continue
		}
		if err := accounts.Register(name, password); err != nil {
			warn(session, err.Error())
			return false, nil
		}
		_ = session.WriteString(Ansi(Style("\r\nThe name is yours. Welcome, "+name+".", AnsiGreen)))
		return true, nil
	}
}

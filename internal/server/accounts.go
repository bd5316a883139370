package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"EmberVale/internal/logging"
)

const defaultAdminAccount = "admin"

type accountRecord struct {
	Password    string    `json:"password"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	LastLogin   time.Time `json:"last_login,omitempty"`
	TotalLogins int       `json:"total_logins,omitempty"`
}

// AccountManager holds login credentials, hashed with bcrypt, in one JSON
// file rewritten atomically on every change.
type AccountManager struct {
	mu           sync.RWMutex
	accounts     map[string]accountRecord
	path         string
	adminAccount string
	log          *logging.Logger
}

func NewAccountManager(path string, log *logging.Logger) (*AccountManager, error) {
	manager := &AccountManager{
		accounts:     make(map[string]accountRecord),
		path:         path,
		adminAccount: defaultAdminAccount,
		log:          log,
	}
	if err := manager.load(); err != nil {
		return nil, err
	}
	return manager, nil
}

func (a *AccountManager) load() error {
	data, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read accounts file: %w", err)
	}
	if err := json.Unmarshal(data, &a.accounts); err != nil {
		return fmt.Errorf("decode accounts file: %w", err)
	}
	return nil
}

func (a *AccountManager) save() error {
	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create accounts directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "accounts-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp accounts file: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.accounts); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write accounts file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp accounts file: %w", err)
	}
	if err := os.Rename(tmp.Name(), a.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace accounts file: %w", err)
	}
	return nil
}

func (a *AccountManager) SetAdminAccount(name string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		trimmed = defaultAdminAccount
	}
	a.mu.Lock()
	a.adminAccount = trimmed
	a.mu.Unlock()
}

func (a *AccountManager) IsAdmin(name string) bool {
	a.mu.RLock()
	admin := a.adminAccount
	a.mu.RUnlock()
	return strings.EqualFold(name, admin)
}

func (a *AccountManager) Exists(name string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.accounts[strings.ToLower(name)]
	return ok
}

// Register creates a new account with a bcrypt-hashed password.
func (a *AccountManager) Register(name, password string) error {
	key := strings.ToLower(name)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.accounts[key]; ok {
		return fmt.Errorf("account %q already exists", name)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a.accounts[key] = accountRecord{
		Password:  string(hash),
		CreatedAt: time.Now().UTC(),
	}
	if err := a.save(); err != nil {
		delete(a.accounts, key)
		return err
	}
	a.log.WriteToLog("account created: "+key, logging.ChannelAccountActivity)
	return nil
}

// Authenticate verifies a password against the stored hash.
func (a *AccountManager) Authenticate(name, password string) bool {
	a.mu.RLock()
	record, ok := a.accounts[strings.ToLower(name)]
	a.mu.RUnlock()
	if !ok {
		return false
	}
	match := bcrypt.CompareHashAndPassword([]byte(record.Password), []byte(password)) == nil
	if match {
		a.log.WriteToLog("authenticated: "+strings.ToLower(name), logging.ChannelAuthentication)
	} else {
		a.log.WriteToLog("failed authentication: "+strings.ToLower(name), logging.ChannelAuthentication)
	}
	return match
}

// RecordLogin stamps the account's login bookkeeping.
func (a *AccountManager) RecordLogin(name string, at time.Time) error {
	key := strings.ToLower(name)
	a.mu.Lock()
	defer a.mu.Unlock()
	record, ok := a.accounts[key]
	if !ok {
		return fmt.Errorf("account %q not found", name)
	}
	record.LastLogin = at
	record.TotalLogins++
	a.accounts[key] = record
	return a.save()
}

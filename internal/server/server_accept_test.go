package server

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"EmberVale/internal/logging"
)

func TestAcceptConnectionsRetriesTemporaryErrors(t *testing.T) {
	fakeErr := &temporaryNetError{err: errors.New("temporary failure")}
	ln := &fakeListener{
		results: []acceptResult{
			{err: fakeErr},
			{conn: newScriptConn(nil)},
			{err: net.ErrClosed},
		},
	}

	var sleeps []time.Duration
	t.Cleanup(func() { acceptSleep = time.Sleep })
	acceptSleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	realm := &Realm{Log: logging.NewDiscard()}
	handled := 0
	err := acceptConnections(ln, realm, func(conn net.Conn) {
		handled++
	})

	if !errors.Is(err, net.ErrClosed) {
		t.Fatalf("expected net.ErrClosed, got %v", err)
	}
	if handled != 1 {
		t.Fatalf("expected handler to be invoked once, got %d", handled)
	}
	if len(sleeps) != 1 {
		t.Fatalf("expected exactly one backoff sleep, got %d", len(sleeps))
	}
	if sleeps[0] != acceptBackoffStart {
		t.Fatalf("expected backoff duration %v, got %v", acceptBackoffStart, sleeps[0])
	}
}

func TestAcceptConnectionsReturnsPermanentError(t *testing.T) {
	permanentErr := errors.New("boom")
	ln := &fakeListener{
		results: []acceptResult{{err: permanentErr}},
	}

	var sleeps []time.Duration
	t.Cleanup(func() { acceptSleep = time.Sleep })
	acceptSleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	realm := &Realm{Log: logging.NewDiscard()}
	handled := 0
	err := acceptConnections(ln, realm, func(conn net.Conn) {
		handled++
	})

	if !errors.Is(err, permanentErr) {
		t.Fatalf("expected error %v, got %v", permanentErr, err)
	}
	if handled != 0 {
		t.Fatalf("expected handler not to be invoked, got %d", handled)
	}
	if len(sleeps) != 0 {
		t.Fatalf("expected no sleeps on permanent error, got %d", len(sleeps))
	}
}

type acceptResult struct {
	conn net.Conn
	err  error
}

type fakeListener struct {
	mu      sync.Mutex
	results []acceptResult
}

func (f *fakeListener) Accept() (net.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.results) == 0 {
		return nil, net.ErrClosed
	}
	res := f.results[0]
	f.results = f.results[1:]
	return res.conn, res.err
}

func (f *fakeListener) Close() error {
	return nil
}

func (f *fakeListener) Addr() net.Addr {
	return scriptAddr("fake")
}

type temporaryNetError struct {
	err error
}

func (t *temporaryNetError) Error() string { return t.err.Error() }

func (t *temporaryNetError) Timeout() bool { return false }

func (t *temporaryNetError) Temporary() bool { return true }

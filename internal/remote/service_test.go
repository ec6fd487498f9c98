package remote

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeTransport struct {
	mu       sync.Mutex
	probeErr error
	result   *CommandResult
	runErr   error
	probes   int
	commands []string
	closes   int
}

func (f *fakeTransport) Run(command string) (*CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	if f.runErr != nil {
		return nil, f.runErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &CommandResult{Stdout: "ok\n"}, nil
}

func (f *fakeTransport) Probe(_ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return f.probeErr
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeTransport) setProbeErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeErr = err
}

func newFakeManager(t *fakeTransport) *Manager {
	m := NewManager()
	m.dial = func(_ *Credentials, _ time.Duration) (transport, error) {
		return t, nil
	}
	return m
}

func TestConnectWithPassword(t *testing.T) {
	ft := &fakeTransport{}
	m := newFakeManager(ft)

	err := m.Connect(&Credentials{Host: "10.0.0.5", Username: "ubuntu", Password: "x"})

	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	if !m.IsConnected() {
		t.Errorf("expected connected session after connect")
	}

	host, user := m.Endpoint()
	if host != "10.0.0.5" || user != "ubuntu" {
		t.Errorf("expected endpoint 10.0.0.5/ubuntu, got %s/%s", host, user)
	}
}

func TestConnectDefaultsPort(t *testing.T) {
	ft := &fakeTransport{}
	m := NewManager()

	var dialed *Credentials
	m.dial = func(creds *Credentials, _ time.Duration) (transport, error) {
		dialed = creds
		return ft, nil
	}

	if err := m.Connect(&Credentials{Host: "h", Username: "u", Password: "p"}); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	if dialed.Port != 22 {
		t.Errorf("expected default port 22, got %d", dialed.Port)
	}
}

func TestConnectMissingKeyFile(t *testing.T) {
	m := NewManager()

	dialCalled := false
	m.dial = func(_ *Credentials, _ time.Duration) (transport, error) {
		dialCalled = true
		return &fakeTransport{}, nil
	}

	missing := filepath.Join(t.TempDir(), "no_such_key")
	err := m.Connect(&Credentials{Host: "h", Username: "u", PrivateKeyPath: missing})

	if err == nil {
		t.Fatalf("expected error for missing key file")
	}

	if KindOf(err) != KindKeyNotFound {
		t.Errorf("expected KindKeyNotFound, got %v", KindOf(err))
	}

	if dialCalled {
		t.Errorf("no transport attempt should be made when key file is missing")
	}

	if m.IsConnected() {
		t.Errorf("session must stay disconnected after key resolution failure")
	}
}

func TestConnectKeyPathFallsBackToDefault(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "id_rsa")
	if err := os.WriteFile(keyPath, []byte("stub"), 0600); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	m.defaultKeyPath = keyPath

	var dialed *Credentials
	m.dial = func(creds *Credentials, _ time.Duration) (transport, error) {
		dialed = creds
		return &fakeTransport{}, nil
	}

	if err := m.Connect(&Credentials{Host: "h", Username: "u"}); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	if dialed.PrivateKeyPath != keyPath {
		t.Errorf("expected key path fallback to %s, got %s", keyPath, dialed.PrivateKeyPath)
	}
}

func TestConnectDialFailure(t *testing.T) {
	m := NewManager()
	m.dial = func(_ *Credentials, _ time.Duration) (transport, error) {
		return nil, errors.New("connection refused")
	}

	err := m.Connect(&Credentials{Host: "h", Username: "u", Password: "p"})

	if err == nil {
		t.Fatalf("expected dial error")
	}

	if KindOf(err) != KindConnection {
		t.Errorf("expected KindConnection, got %v", KindOf(err))
	}

	if m.IsConnected() {
		t.Errorf("session must stay disconnected after dial failure")
	}
}

func TestConnectReplacesPreviousSession(t *testing.T) {
	first := &fakeTransport{}
	second := &fakeTransport{}

	m := NewManager()
	transports := []transport{first, second}
	m.dial = func(_ *Credentials, _ time.Duration) (transport, error) {
		next := transports[0]
		transports = transports[1:]
		return next, nil
	}

	if err := m.Connect(&Credentials{Host: "a", Username: "u", Password: "p"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Connect(&Credentials{Host: "b", Username: "u", Password: "p"}); err != nil {
		t.Fatal(err)
	}

	if first.closes != 1 {
		t.Errorf("expected previous transport released once, got %d", first.closes)
	}

	host, _ := m.Endpoint()
	if host != "b" {
		t.Errorf("expected session replaced by host b, got %s", host)
	}
}

func TestExecuteWithoutSession(t *testing.T) {
	m := NewManager()

	_, err := m.Execute("echo hi")

	if err == nil {
		t.Fatalf("expected no-session fault")
	}

	if KindOf(err) != KindNoSession {
		t.Errorf("expected KindNoSession, got %v", KindOf(err))
	}

	if !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestLivenessFailureMarksSessionDead(t *testing.T) {
	ft := &fakeTransport{}
	m := newFakeManager(ft)

	if err := m.Connect(&Credentials{Host: "h", Username: "u", Password: "p"}); err != nil {
		t.Fatal(err)
	}

	if !m.IsConnected() {
		t.Fatalf("expected live session")
	}

	ft.setProbeErr(errors.New("broken pipe"))

	if m.IsConnected() {
		t.Errorf("expected dead session once probe fails")
	}

	// The dead flag sticks even if a later probe would succeed.
	ft.setProbeErr(nil)

	if m.IsConnected() {
		t.Errorf("dead session must not resurrect without reconnect")
	}

	_, err := m.Execute("echo hi")
	if KindOf(err) != KindNoSession {
		t.Errorf("expected KindNoSession after liveness failure, got %v", err)
	}
}

func TestExecuteRevalidatesBeforeEveryCommand(t *testing.T) {
	ft := &fakeTransport{}
	m := newFakeManager(ft)

	if err := m.Connect(&Credentials{Host: "h", Username: "u", Password: "p"}); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Execute("echo one"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Execute("echo two"); err != nil {
		t.Fatal(err)
	}

	if ft.probes != 2 {
		t.Errorf("expected one probe per execute, got %d", ft.probes)
	}
}

func TestExecuteReturnsBothStreams(t *testing.T) {
	ft := &fakeTransport{result: &CommandResult{Stdout: "partial\n", Stderr: "kaboom\n", ExitCode: 1}}
	m := newFakeManager(ft)

	if err := m.Connect(&Credentials{Host: "h", Username: "u", Password: "p"}); err != nil {
		t.Fatal(err)
	}

	result, err := m.Execute("boom")
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if result.Stdout != "partial\n" || result.Stderr != "kaboom\n" || result.ExitCode != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestExecuteTransportFaultDisconnects(t *testing.T) {
	ft := &fakeTransport{runErr: errors.New("session setup failed")}
	m := newFakeManager(ft)

	if err := m.Connect(&Credentials{Host: "h", Username: "u", Password: "p"}); err != nil {
		t.Fatal(err)
	}

	_, err := m.Execute("echo hi")

	if KindOf(err) != KindCommand {
		t.Fatalf("expected KindCommand, got %v", err)
	}

	if m.IsConnected() {
		t.Errorf("expected disconnected session after command fault")
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	ft := &fakeTransport{}
	m := newFakeManager(ft)

	if err := m.Connect(&Credentials{Host: "h", Username: "u", Password: "p"}); err != nil {
		t.Fatal(err)
	}

	m.Disconnect()
	if m.IsConnected() {
		t.Errorf("expected disconnected after first disconnect")
	}

	m.Disconnect()
	if m.IsConnected() {
		t.Errorf("expected disconnected after second disconnect")
	}

	if ft.closes != 1 {
		t.Errorf("expected transport closed exactly once, got %d", ft.closes)
	}
}

func TestConnectionInfo(t *testing.T) {
	ft := &fakeTransport{}
	m := newFakeManager(ft)

	if got := m.ConnectionInfo(); got != "Not connected" {
		t.Errorf("expected 'Not connected', got %q", got)
	}

	if err := m.Connect(&Credentials{Host: "10.0.0.5", Username: "ubuntu", Password: "x"}); err != nil {
		t.Fatal(err)
	}

	if got := m.ConnectionInfo(); got != "Connected to 10.0.0.5 as ubuntu" {
		t.Errorf("unexpected connection info: %q", got)
	}

	m.Disconnect()

	if got := m.ConnectionInfo(); got != "Not connected" {
		t.Errorf("expected 'Not connected' after disconnect, got %q", got)
	}
}

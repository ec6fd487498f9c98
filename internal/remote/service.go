// Package remote maintains zero-or-one live SSH session to a rented machine
// and provides liveness-checked command execution over it.
//
// The manager assumes sequential, non-overlapping invocation (it is driven by
// an agent loop that issues one action at a time). The internal mutex is a
// hardening measure around state transitions, not a concurrency contract.
package remote

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"hyperagent/cmd/agent/config"

	"github.com/melbahja/goph"
	"golang.org/x/crypto/ssh"
)

// probeCommand is the no-op command used to re-validate the transport
// before any command issuance. A cached connected flag is never trusted.
const probeCommand = "echo 1"

// transport is the opaque handle to the underlying secure-shell channel.
// It is exclusively owned by the Manager.
type transport interface {
	Run(command string) (*CommandResult, error)
	Probe(timeout time.Duration) error
	Close() error
}

type dialFunc func(creds *Credentials, timeout time.Duration) (transport, error)

// Manager is the single source of truth for remote session state.
type Manager struct {
	mu             sync.Mutex
	dial           dialFunc
	transport      transport
	creds          *Credentials
	connected      bool
	defaultKeyPath string
	dialTimeout    time.Duration
	probeTimeout   time.Duration
}

func NewManager() *Manager {
	return &Manager{
		dial:           dialSSH,
		defaultKeyPath: config.Config.DefaultSSHKeyPath,
		dialTimeout:    config.Config.SSHDialTimeout,
		probeTimeout:   config.Config.ProbeTimeout,
	}
}

// Connect replaces any existing session with a new one. The previous
// transport is released best-effort before the new dial; a failed dial
// leaves the manager disconnected.
func (m *Manager) Connect(creds *Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseLocked()

	if creds.Port == 0 {
		creds.Port = 22
	}

	if creds.Password == "" {
		keyPath := creds.PrivateKeyPath
		if keyPath == "" {
			keyPath = m.defaultKeyPath
		}
		if _, err := os.Stat(keyPath); err != nil {
			return &Fault{Kind: KindKeyNotFound, Err: fmt.Errorf("Key file not found at %s", keyPath)}
		}
		creds.PrivateKeyPath = keyPath
	}

	t, err := m.dial(creds, m.dialTimeout)

	if err != nil {
		return &Fault{Kind: KindConnection, Err: err}
	}

	m.transport = t
	m.creds = creds
	m.connected = true
	return nil
}

// IsConnected re-probes the transport on every call. Any probe fault marks
// the session dead.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probeLocked()
}

func (m *Manager) probeLocked() bool {
	if m.transport == nil || !m.connected {
		return false
	}

	if err := m.transport.Probe(m.probeTimeout); err != nil {
		m.connected = false
		return false
	}

	return true
}

// Execute runs command on the live session and captures both output streams
// fully, blocking until the command completes. The command reaches the
// remote principal's shell exactly as supplied; nothing is escaped,
// sandboxed or validated. A fault during issuance disconnects the session.
func (m *Manager) Execute(command string) (*CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.probeLocked() {
		return nil, &Fault{Kind: KindNoSession, Err: ErrNoActiveSession}
	}

	result, err := m.transport.Run(command)

	if err != nil {
		m.connected = false
		return nil, &Fault{Kind: KindCommand, Err: err}
	}

	return result, nil
}

// Disconnect closes the transport best-effort and clears session state.
// Safe to call with no active session.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
}

func (m *Manager) releaseLocked() {
	if m.transport != nil {
		_ = m.transport.Close()
	}
	m.transport = nil
	m.creds = nil
	m.connected = false
}

// ConnectionInfo re-probes liveness and reports the session endpoint.
func (m *Manager) ConnectionInfo() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.probeLocked() {
		return fmt.Sprintf("Connected to %s as %s", m.creds.Host, m.creds.Username)
	}

	return "Not connected"
}

// Endpoint returns the host and principal of the current session, empty
// strings when disconnected. It does not probe.
func (m *Manager) Endpoint() (string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.creds == nil {
		return "", ""
	}

	return m.creds.Host, m.creds.Username
}

func dialSSH(creds *Credentials, timeout time.Duration) (transport, error) {
	var authMethods []ssh.AuthMethod
	var err error

	if creds.Password != "" {
		authMethods = append(authMethods, ssh.Password(creds.Password))
	} else if creds.PrivateKeyPath != "" {
		var keyBytes []byte
		keyBytes, err = os.ReadFile(creds.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToCreateAuth, err)
		}

		var signer ssh.Signer
		if creds.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(keyBytes, []byte(creds.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(keyBytes)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToCreateAuth, err)
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	} else {
		return nil, ErrNoAuthMethodProvided
	}

	sshConfig := &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	hostPort := net.JoinHostPort(creds.Host, fmt.Sprintf("%d", creds.Port))

	conn, err := net.DialTimeout("tcp", hostPort, sshConfig.Timeout)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateSSHClient, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, hostPort, sshConfig)

	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateSSHClient, err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)

	session, err := client.NewSession()

	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrFailedToTestConnection, err)
	}

	err = session.Run("echo 'connection test'")
	session.Close()

	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrFailedToTestConnection, err)
	}

	return &gophTransport{client: &goph.Client{Client: client}}, nil
}

type gophTransport struct {
	client *goph.Client
}

func (t *gophTransport) Run(command string) (*CommandResult, error) {
	cmd, err := t.client.Command(command)
	if err != nil {
		return nil, fmt.Errorf("failed to create command: %w", err)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	result := &CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		// A nonzero exit status still yields captured output; anything
		// else means the transport itself failed.
		exitErr, ok := err.(*ssh.ExitError)
		if !ok {
			return nil, err
		}
		result.ExitCode = exitErr.ExitStatus()
	}

	return result, nil
}

func (t *gophTransport) Probe(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd, err := t.client.CommandContext(ctx, probeCommand)
	if err != nil {
		return err
	}

	return cmd.Run()
}

func (t *gophTransport) Close() error {
	return t.client.Close()
}

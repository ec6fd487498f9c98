package actions

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"hyperagent/internal/remote"
	"hyperagent/internal/testutil/sshtest"
)

func TestSSHAccessSuccessMessage(t *testing.T) {
	server, err := sshtest.Start()
	if err != nil {
		t.Fatalf("failed to start test server: %v", err)
	}
	t.Cleanup(server.Stop)

	sessions := remote.NewManager()
	t.Cleanup(sessions.Disconnect)

	action := NewSSHAccessAction(sessions)

	got := action.Run(Args{
		"host":     "127.0.0.1",
		"port":     int(server.Port()),
		"username": sshtest.User,
		"password": sshtest.Password,
	})

	want := fmt.Sprintf("Successfully connected to 127.0.0.1 as %s", sshtest.User)
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if !sessions.IsConnected() {
		t.Fatal("manager reports no session after a successful connect")
	}
}

func TestSSHAccessMissingKeyFile(t *testing.T) {
	sessions := remote.NewManager()
	action := NewSSHAccessAction(sessions)

	missing := filepath.Join(t.TempDir(), "id_rsa")

	got := action.Run(Args{
		"host":             "127.0.0.1",
		"username":         "nobody",
		"private_key_path": missing,
	})

	want := fmt.Sprintf("SSH Key Error: Key file not found at %s", missing)
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if sessions.IsConnected() {
		t.Fatal("manager reports a session after a failed connect")
	}
}

func TestSSHAccessConnectionErrorMessage(t *testing.T) {
	server, err := sshtest.Start()
	if err != nil {
		t.Fatalf("failed to start test server: %v", err)
	}
	t.Cleanup(server.Stop)

	sessions := remote.NewManager()
	action := NewSSHAccessAction(sessions)

	got := action.Run(Args{
		"host":     "127.0.0.1",
		"port":     int(server.Port()),
		"username": sshtest.User,
		"password": "wrong",
	})

	if !strings.HasPrefix(got, "SSH Connection Error: ") {
		t.Fatalf("unexpected reply: %q", got)
	}
	if sessions.IsConnected() {
		t.Fatal("manager reports a session after a failed connect")
	}
}

func TestSSHAccessPortDefaultsTo22(t *testing.T) {
	sessions := remote.NewManager()
	action := NewSSHAccessAction(sessions)

	// No server listens on 22 here; the point is that the reply is a
	// connection error rather than a key error or a panic.
	got := action.Run(Args{
		"host":     "127.0.0.1",
		"username": "nobody",
		"password": "pw",
	})

	if !strings.HasPrefix(got, "SSH Connection Error: ") {
		t.Fatalf("unexpected reply: %q", got)
	}
}

package actions

import (
	"fmt"
	"strings"
	"time"

	"hyperagent/internal/events"
	"hyperagent/internal/logger"
	"hyperagent/internal/remote"
)

// statusCommand is a built-in meta-command multiplexed onto remote_shell:
// it reports connection state instead of executing anything remotely.
const statusCommand = "ssh_status"

const (
	noActiveConnectionError = "Error: No active SSH connection. Please connect first."
	connectFirstGuidance    = "Error: No active SSH connection. Please connect to a remote server first using ssh_connect."
)

const remoteShellDescription = `Execute shell commands on the remote server via SSH.

Input parameters:
- command: The shell command to execute on the remote server

Important notes:
- Requires an active SSH connection (use ssh_connect first)
- Use 'ssh_status' to check current connection status
- Commands are executed in the connected SSH session
- Returns command output as a string
`

func NewRemoteShellAction(sessions *remote.Manager, audit events.Publisher) Action {
	return Action{
		Name:        "remote_shell",
		Description: remoteShellDescription,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{"type": "string", "description": "The shell command to execute on the remote server"},
			},
			"required": []string{"command"},
		},
		Run: func(args Args) string {
			return runRemoteCommand(sessions, audit, args.String("command"))
		},
	}
}

// ExecuteCommand is the string boundary over Manager.Execute: fault kinds
// become fixed, human-readable strings; a command with error-stream content
// yields a composite embedding both streams.
func ExecuteCommand(sessions *remote.Manager, command string) string {
	result, err := sessions.Execute(command)
	return formatExecuteResult(result, err)
}

func formatExecuteResult(result *remote.CommandResult, err error) string {
	if err != nil {
		if remote.KindOf(err) == remote.KindNoSession {
			return noActiveConnectionError
		}
		return fmt.Sprintf("SSH Command Error: %v", err)
	}

	if result.Stderr != "" {
		return fmt.Sprintf("Error: %s\nOutput: %s", result.Stderr, result.Stdout)
	}

	return result.Stdout
}

func runRemoteCommand(sessions *remote.Manager, audit events.Publisher, command string) string {
	if strings.EqualFold(strings.TrimSpace(command), statusCommand) {
		return sessions.ConnectionInfo()
	}

	if !sessions.IsConnected() {
		return connectFirstGuidance
	}

	started := time.Now()
	result, err := sessions.Execute(command)
	took := time.Since(started)

	host, username := sessions.Endpoint()
	ok := err == nil && (result == nil || result.Stderr == "")
	publishAudit(audit, host, username, command, ok, took)

	return formatExecuteResult(result, err)
}

func publishAudit(audit events.Publisher, host string, username string, command string, ok bool, took time.Duration) {
	if audit == nil {
		return
	}

	event := events.NewCommandEvent(host, username, command, ok, took)

	if err := audit.PublishCommand(event); err != nil {
		logger.Warn("Failed to publish command audit event: %v", err)
	}
}

package actions

import (
	"fmt"

	"hyperagent/internal/remote"
)

const sshAccessDescription = `Connect to a remote server via SSH. Once connected, all shell commands will automatically run on this server.

Input parameters:
- host: The hostname or IP address of the remote server
- username: SSH username for authentication
- password: SSH password for authentication (optional if using key)
- private_key_path: Path to private key file (optional, uses SSH_PRIVATE_KEY_PATH from environment if not provided)
- port: SSH port number (default: 22)

Important notes:
- After connecting, use the 'remote_shell' tool to execute commands on the server
- Use 'ssh_status' command to check connection status
- Connection remains active until explicitly disconnected or the process ends
`

func NewSSHAccessAction(sessions *remote.Manager) Action {
	return Action{
		Name:        "ssh_connect",
		Description: sshAccessDescription,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"host":             map[string]any{"type": "string", "description": "Hostname or IP address of the remote server"},
				"username":         map[string]any{"type": "string", "description": "SSH username"},
				"password":         map[string]any{"type": "string", "description": "SSH password"},
				"private_key_path": map[string]any{"type": "string", "description": "Path to the SSH private key file"},
				"port":             map[string]any{"type": "integer", "description": "SSH port", "default": 22},
			},
			"required": []string{"host", "username"},
		},
		Run: func(args Args) string {
			host := args.String("host")
			username := args.String("username")

			err := sessions.Connect(&remote.Credentials{
				Host:           host,
				Port:           uint(args.Int("port", 22)),
				Username:       username,
				Password:       args.String("password"),
				PrivateKeyPath: args.String("private_key_path"),
			})

			if err != nil {
				if remote.KindOf(err) == remote.KindKeyNotFound {
					return fmt.Sprintf("SSH Key Error: %v", err)
				}
				return fmt.Sprintf("SSH Connection Error: %v", err)
			}

			return fmt.Sprintf("Successfully connected to %s as %s", host, username)
		},
	}
}

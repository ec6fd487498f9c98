package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"

	"hyperagent/internal/remote"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func readPasswordSecurely(prompt string, stdOut io.Writer) (string, error) {
	// readPasswordSecurely reads a password from the terminal without echoing
	fmt.Fprintf(stdOut, "%s", prompt)

	bytePassword, err := term.ReadPassword(int(syscall.Stdin))

	fmt.Fprintf(stdOut, "\n")

	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}

// parseSSHURL parses an SSH URL in the format username@hostname:port or username@hostname
// Returns username, hostname, port, and any error
func parseSSHURL(sshURL string) (username, hostname string, port uint, err error) {
	// Default port
	port = 22

	// Check if URL contains port
	if strings.Contains(sshURL, ":") {
		parts := strings.Split(sshURL, ":")
		if len(parts) != 2 {
			return "", "", 0, fmt.Errorf("invalid SSH URL format: %s", sshURL)
		}

		// Parse port
		if portStr := parts[1]; portStr != "" {
			parsedPort, err := strconv.ParseUint(portStr, 10, 32)

			if err != nil {
				return "", "", 0, fmt.Errorf("invalid port number: %s", portStr)
			}

			if parsedPort > 65535 {
				return "", "", 0, fmt.Errorf("port number must be between 0 and 65535")
			}

			port = uint(parsedPort)
		}

		sshURL = parts[0]
	}

	// Parse username@hostname
	if strings.Contains(sshURL, "@") {
		parts := strings.Split(sshURL, "@")
		if len(parts) != 2 {
			return "", "", 0, fmt.Errorf("invalid SSH URL format: %s", sshURL)
		}
		username = parts[0]
		hostname = parts[1]
	} else {
		return "", "", 0, fmt.Errorf("username is required in SSH URL format: username@hostname[:port]")
	}

	if username == "" {
		return "", "", 0, fmt.Errorf("username cannot be empty")
	}
	if hostname == "" {
		return "", "", 0, fmt.Errorf("hostname cannot be empty")
	}

	return username, hostname, port, nil
}

// buildSSHCredentials builds SSH credentials from the positional
// username@hostname[:port] argument plus the --ssh-key-path flag. With no
// key path the user is prompted for a password.
func buildSSHCredentials(cmd *cobra.Command, args []string) (*remote.Credentials, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("wrong arguments; use positional argument to specify the SSH credentials (username@hostname[:port])")
	}

	username, hostname, port, err := parseSSHURL(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH URL '%s': %v", args[0], err)
	}

	creds := &remote.Credentials{
		Username: username,
		Host:     hostname,
		Port:     port,
	}

	if keyPath := cmd.Flag("ssh-key-path").Value.String(); keyPath != "" {
		creds.PrivateKeyPath = keyPath

		if passphrase, err := readPasswordSecurely("Enter SSH key passphrase (leave empty if none): ", cmd.OutOrStdout()); err == nil && passphrase != "" {
			creds.Passphrase = passphrase
		}
	} else {
		password, err := readPasswordSecurely("Enter SSH password: ", cmd.OutOrStdout())
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %v", err)
		}
		creds.Password = password
	}

	return creds, nil
}

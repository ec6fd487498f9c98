package commands

import (
	"strings"

	"hyperagent/internal/actions"

	"github.com/spf13/cobra"
)

var SSHKeyPath = ""

var SSHCmd = &cobra.Command{
	Use:   "ssh",
	Short: "hyperagent SSH session commands",
	Long:  `Manage the SSH session to a remote server and run commands on it.`,
}

var ConnectSSHCmd = &cobra.Command{
	Use:   "connect username@hostname[:port]",
	Short: "Connect to a remote server over SSH",
	Long:  `Establish an SSH session to a remote server and verify it with a test command. Replaces any previously active session.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		creds, err := buildSSHCredentials(cmd, args)

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		reply := actionRegistry.Dispatch("ssh_connect", actions.Args{
			"host":             creds.Host,
			"port":             int(creds.Port),
			"username":         creds.Username,
			"password":         creds.Password,
			"private_key_path": creds.PrivateKeyPath,
		})

		cmd.Printf("%s\n", reply)
	},
}

var RunSSHCmd = &cobra.Command{
	Use:   "run username@hostname[:port] command...",
	Short: "Run a shell command on a remote server",
	Long:  `Connect to a remote server over SSH and run a single shell command on it. Prints the command output, or the error and output streams when the command fails.`,
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		creds, err := buildSSHCredentials(cmd, args)

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		if err := sessions.Connect(creds); err != nil {
			cmd.PrintErrf("SSH Connection Error: %v\n", err)
			return
		}
		defer sessions.Disconnect()

		command := strings.Join(args[1:], " ")

		reply := actionRegistry.Dispatch("remote_shell", actions.Args{
			"command": command,
		})

		cmd.Printf("%s\n", reply)
	},
}

var StatusSSHCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the SSH session status",
	Long:  `Show whether an SSH session is currently active and which endpoint it is bound to.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("%s\n", sessions.ConnectionInfo())
	},
}

func init() {
	SSHCmd.AddCommand(ConnectSSHCmd)
	SSHCmd.AddCommand(RunSSHCmd)
	SSHCmd.AddCommand(StatusSSHCmd)

	ConnectSSHCmd.Flags().StringVar(&SSHKeyPath, "ssh-key-path", "", "Path to the SSH private key file")
	RunSSHCmd.Flags().StringVar(&SSHKeyPath, "ssh-key-path", "", "Path to the SSH private key file")
}

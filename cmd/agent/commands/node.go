package commands

import (
	"hyperagent/cmd/agent/config"
	"hyperagent/internal/actions"
	"hyperagent/internal/instances"
	"hyperagent/internal/provision"

	"github.com/spf13/cobra"
)

var NodeStopOnError = false

var NodeCmd = &cobra.Command{
	Use:   "node",
	Short: "hyperagent Ethereum node commands",
	Long:  `Provision Ethereum snap-sync nodes on remote servers.`,
}

var UpNodeCmd = &cobra.Command{
	Use:   "up username@hostname[:port]",
	Short: "Provision an Ethereum snap node",
	Long: `Provision an Ethereum snap-sync node on a remote server: install Geth and Lighthouse, generate a JWT secret, launch both clients and validate them.

By default each failed step is reported and the sequence continues with the next step. Use --stop-on-error to abort at the first failure instead.`,
	Args: cobra.ExactArgs(1),
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

		runner := provision.NewRunner(func(command string) string {
			return actions.ExecuteCommand(sessions, command)
		}, cmd.OutOrStdout())
		runner.StopOnError = NodeStopOnError

		failures := runner.Run()

		recordNodeDeployment(cmd, creds.Host, creds.Username, len(failures) == 0)

		if len(failures) == 0 {
			cmd.Printf("\nEthereum node setup completed. Geth is syncing in snap mode and Lighthouse is tracking the beacon chain.\n")
			return
		}

		cmd.PrintErrf("\nEthereum node setup finished with %d failed step(s):\n", len(failures))
		for _, failure := range failures {
			cmd.PrintErrf("- %s: %s\n", failure.Step, failure.Message)
		}
	},
}

func recordNodeDeployment(cmd *cobra.Command, host string, username string, healthy bool) {
	deployment, err := instancesRepository.SaveDeployment(host, username, config.Config.JWTSecretPath)

	if err != nil {
		cmd.PrintErrf("Warning: failed to record node deployment: %v\n", err)
		return
	}

	status := instances.DeploymentStatusRunning
	if !healthy {
		status = instances.DeploymentStatusDegraded
	}

	if err := instancesRepository.UpdateDeploymentStatus(deployment.ID, status); err != nil {
		cmd.PrintErrf("Warning: failed to update node deployment status: %v\n", err)
	}
}

func init() {
	NodeCmd.AddCommand(UpNodeCmd)

	UpNodeCmd.Flags().BoolVar(&NodeStopOnError, "stop-on-error", false, "Abort the provisioning sequence at the first failed step")
	UpNodeCmd.Flags().StringVar(&SSHKeyPath, "ssh-key-path", "", "Path to the SSH private key file")
}

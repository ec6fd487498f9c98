package actions

import (
	"bytes"
	"fmt"

	"hyperagent/cmd/agent/config"
	"hyperagent/internal/instances"
	"hyperagent/internal/logger"
	"hyperagent/internal/provision"
	"hyperagent/internal/remote"
)

const spinUpSnapNodeDescription = `This tool will spin up an Ethereum snap-sync node on the connected remote server.

It does not take any inputs.

Important notes:
- Requires an active SSH connection (use ssh_connect first)
- Installs Geth and Lighthouse, generates a JWT secret and launches both clients
- Each step reports its own failure and the sequence continues to the next step
- Expect the full setup to take several minutes on a fresh machine
`

func NewSpinUpSnapNodeAction(sessions *remote.Manager, store *instances.Repository) Action {
	return Action{
		Name:        "spin_up_snap_node",
		Description: spinUpSnapNodeDescription,
		Parameters:  NoParams(),
		Run: func(_ Args) string {
			return spinUpSnapNode(sessions, store)
		},
	}
}

func spinUpSnapNode(sessions *remote.Manager, store *instances.Repository) string {
	if !sessions.IsConnected() {
		return connectFirstGuidance
	}

	var narrative bytes.Buffer

	runner := provision.NewRunner(func(command string) string {
		return ExecuteCommand(sessions, command)
	}, &narrative)

	failures := runner.Run()

	recordDeployment(sessions, store, failures)

	if len(failures) == 0 {
		narrative.WriteString("\nEthereum node setup completed. Geth is syncing in snap mode and Lighthouse is tracking the beacon chain.\n")
	} else {
		fmt.Fprintf(&narrative, "\nEthereum node setup finished with %d failed step(s). Review the messages above.\n", len(failures))
	}

	return narrative.String()
}

func recordDeployment(sessions *remote.Manager, store *instances.Repository, failures []provision.StepFailure) {
	if store == nil {
		return
	}

	host, username := sessions.Endpoint()

	deployment, err := store.SaveDeployment(host, username, config.Config.JWTSecretPath)
	if err != nil {
		logger.Warn("Failed to record node deployment: %v", err)
		return
	}

	status := instances.DeploymentStatusRunning
	if len(failures) > 0 {
		status = instances.DeploymentStatusDegraded
	}

	if err := store.UpdateDeploymentStatus(deployment.ID, status); err != nil {
		logger.Warn("Failed to update node deployment status: %v", err)
	}
}

package main

import (
	"fmt"
	"hyperagent/cmd/agent/commands"
	"hyperagent/cmd/agent/config"
	"hyperagent/internal/instances"
	"hyperagent/version"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hyperagent",
	Short: "Agent for renting GPU compute and provisioning Ethereum nodes on remote servers",
	Long: `hyperagent rents GPU machines on the Hyperbolic marketplace, manages SSH sessions to them and provisions Ethereum snap-sync nodes on them. It can be driven directly from the command line or by an LLM through the built-in chat mode.

Typical flow:

1. List available GPUs:

hyperagent gpu list

2. Rent a node:

hyperagent gpu rent --cluster extra-purple-monkey --node antalpha-super-server --gpus 1

3. Provision an Ethereum snap node on it:

hyperagent node up ubuntu@140.120.110.10:22

(replace ubuntu with the SSH username from 'hyperagent gpu status', 140.120.110.10 with the machine address)

4. Or let the agent do it all:

hyperagent chat

Environment:

- HYPERBOLIC_API_KEY - API key for the Hyperbolic marketplace
- OPENAI_API_KEY     - API key for the chat mode LLM endpoint
- SSH_PRIVATE_KEY_PATH - default SSH private key (falls back to ~/.ssh/id_rsa)
`,
	Version: fmt.Sprintf("%s (commit: %s, date: %s); db path: %s; profile: %s", version.Version, version.Commit, version.Date, config.DatabasePath, config.Profile),
}

func main() {
	db, err := instances.InitDB(config.Config.DatabasePath)

	if err != nil {
		rootCmd.PrintErrf("Failed to initialize database at %s: %v\n", config.Config.DatabasePath, err)
	}

	commands.RegisterCommands(rootCmd, db)

	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrf("%v\n", err)
	}

	defer func() {
		if err := instances.CloseDB(db); err != nil {
			rootCmd.PrintErrf("Failed to close database: %v\n", err)
		}
	}()
}

package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hyperagent/cmd/agent/config"

	"github.com/spf13/cobra"
)

const autoPrompt = "Be creative and do something interesting with the infrastructure you manage. Choose an action or set of actions and execute it."

var AutoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Run the agent autonomously",
	Long:  `Run the agent in autonomous mode: it picks and executes actions on a fixed interval until interrupted.`,
	Run: func(cmd *cobra.Command, _ []string) {
		a, err := buildAgent(cmd)

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cmd.Printf("Starting autonomous mode. Press Ctrl+C to stop.\n")

		ticker := time.NewTicker(config.Config.AutoInterval)
		defer ticker.Stop()

		for {
			answer, err := a.Run(ctx, autoPrompt)

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				cmd.PrintErrf("Error: %v\n", err)
			} else {
				cmd.Printf("\n%s\n", answer)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	},
}

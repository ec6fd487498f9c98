package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"hyperagent/cmd/agent/config"
	"hyperagent/internal/agent"

	"github.com/spf13/cobra"
)

var ChatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the agent",
	Long: `Start an interactive chat session with the agent. The agent can rent GPUs, connect to remote servers over SSH, run shell commands on them and provision Ethereum nodes.

Type 'exit' or 'quit' to leave, '/clear' to reset the conversation.`,
	Run: func(cmd *cobra.Command, _ []string) {
		a, err := buildAgent(cmd)

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cmd.Printf("hyperagent chat. Type 'exit' to quit, '/clear' to reset the conversation.\n")

		scanner := bufio.NewScanner(cmd.InOrStdin())

		for {
			cmd.Printf("\n> ")

			if !scanner.Scan() {
				return
			}

			input := strings.TrimSpace(scanner.Text())

			switch {
			case input == "":
				continue
			case input == "exit" || input == "quit":
				return
			case input == "/clear":
				a.ClearSession()
				cmd.Printf("Conversation cleared.\n")
				continue
			}

			answer, err := a.Run(ctx, input)

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				cmd.PrintErrf("Error: %v\n", err)
				continue
			}

			cmd.Printf("\n%s\n", answer)
		}
	},
}

func buildAgent(cmd *cobra.Command) (*agent.Agent, error) {
	if config.Config.LLMAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	provider := agent.NewHTTPProvider(config.Config.LLMAPIBase, config.Config.LLMAPIKey, config.Config.Model)

	return agent.New(provider, actionRegistry, config.Config.SessionWindow, config.Config.MaxIterations, cmd.OutOrStdout()), nil
}

package commands

import (
	"hyperagent/cmd/agent/config"
	"hyperagent/internal/actions"
	"hyperagent/internal/events"
	"hyperagent/internal/instances"
	"hyperagent/internal/marketplace"
	"hyperagent/internal/remote"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	sessions            *remote.Manager
	marketplaceClient   *marketplace.Client
	instancesRepository *instances.Repository
	auditPublisher      events.Publisher
	actionRegistry      *actions.Registry
)

func RegisterCommands(rootCmd *cobra.Command, db *gorm.DB) {
	sessions = remote.NewManager()
	instancesRepository = instances.NewRepository(db)
	auditPublisher = events.ForQueue(config.Config.AMQPURL, config.Config.AuditQueue)

	if config.Config.HyperbolicAPIKey != "" {
		marketplaceClient = marketplace.NewClient(config.Config.HyperbolicAPIKey, config.Config.HyperbolicAPIURL)
	}

	actionRegistry = actions.NewRegistry(actions.Deps{
		Sessions:    sessions,
		Marketplace: marketplaceClient,
		Store:       instancesRepository,
		Audit:       auditPublisher,
	})

	rootCmd.AddCommand(SSHCmd)
	rootCmd.AddCommand(GPUCmd)
	rootCmd.AddCommand(NodeCmd)
	rootCmd.AddCommand(InstancesCmd)
	rootCmd.AddCommand(ChatCmd)
	rootCmd.AddCommand(AutoCmd)
}

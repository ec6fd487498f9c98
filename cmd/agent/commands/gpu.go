package commands

import (
	"hyperagent/internal/marketplace"

	"github.com/spf13/cobra"
)

var (
	RentClusterName = ""
	RentNodeName    = ""
	RentGPUCount    = "1"
)

var GPUCmd = &cobra.Command{
	Use:   "gpu",
	Short: "hyperagent GPU marketplace commands",
	Long:  `Browse and rent GPU compute on the Hyperbolic marketplace.`,
}

var ListGPUCmd = &cobra.Command{
	Use:   "list",
	Short: "List available GPUs",
	Long:  `List the GPUs currently available for rent on the Hyperbolic marketplace. Prices are in USD cents per hour.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if marketplaceClient == nil {
			cmd.PrintErrf("Error: %v\n", marketplace.ErrAPIKeyNotSet)
			return
		}

		out, err := marketplaceClient.AvailableGPUs()

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		cmd.Printf("%s\n", out)
	},
}

var StatusGPUCmd = &cobra.Command{
	Use:   "status",
	Short: "Show rented GPU instances",
	Long:  `Show the status and SSH commands of the GPU instances currently rented on the Hyperbolic marketplace.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if marketplaceClient == nil {
			cmd.PrintErrf("Error: %v\n", marketplace.ErrAPIKeyNotSet)
			return
		}

		out, err := marketplaceClient.Instances()

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		cmd.Printf("%s\n", out)
	},
}

var RentGPUCmd = &cobra.Command{
	Use:   "rent",
	Short: "Rent GPU compute",
	Long:  `Rent a node on the Hyperbolic marketplace. The cluster and node names come from 'hyperagent gpu list'.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if marketplaceClient == nil {
			cmd.PrintErrf("Error: %v\n", marketplace.ErrAPIKeyNotSet)
			return
		}

		out, err := marketplaceClient.Rent(RentClusterName, RentNodeName, RentGPUCount)

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		if _, err := instancesRepository.SaveInstance(RentClusterName, RentNodeName, RentGPUCount); err != nil {
			cmd.PrintErrf("Warning: failed to record rented instance: %v\n", err)
		}

		cmd.Printf("%s\n", out)
	},
}

func init() {
	GPUCmd.AddCommand(ListGPUCmd)
	GPUCmd.AddCommand(StatusGPUCmd)
	GPUCmd.AddCommand(RentGPUCmd)

	RentGPUCmd.Flags().StringVar(&RentClusterName, "cluster", "", "Which cluster the node is on")
	RentGPUCmd.Flags().StringVar(&RentNodeName, "node", "", "Which node to rent")
	RentGPUCmd.Flags().StringVar(&RentGPUCount, "gpus", "1", "How many GPUs to rent")

	_ = RentGPUCmd.MarkFlagRequired("cluster")
	_ = RentGPUCmd.MarkFlagRequired("node")
}

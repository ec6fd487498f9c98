package commands

import (
	"github.com/spf13/cobra"
)

var InstancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "hyperagent local inventory commands",
	Long:  `Show the GPU instances rented and the nodes provisioned from this machine.`,
}

var ListInstancesCmd = &cobra.Command{
	Use:   "list",
	Short: "List rented instances",
	Long:  `List the GPU instances rented from this machine, newest first.`,
	Run: func(cmd *cobra.Command, _ []string) {
		all, err := instancesRepository.AllInstances()

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		if len(all) == 0 {
			cmd.Printf("No rented instances recorded\n")
			return
		}

		for _, instance := range all {
			cmd.Printf("%s  cluster=%s node=%s gpus=%s rented=%s\n",
				instance.ID, instance.ClusterName, instance.NodeName, instance.GPUCount,
				instance.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	},
}

var ListDeploymentsCmd = &cobra.Command{
	Use:   "deployments",
	Short: "List node deployments",
	Long:  `List the Ethereum node deployments provisioned from this machine, newest first.`,
	Run: func(cmd *cobra.Command, _ []string) {
		all, err := instancesRepository.AllDeployments()

		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			return
		}

		if len(all) == 0 {
			cmd.Printf("No node deployments recorded\n")
			return
		}

		for _, deployment := range all {
			cmd.Printf("%s  host=%s user=%s status=%s provisioned=%s\n",
				deployment.ID, deployment.Host, deployment.Username, deployment.Status,
				deployment.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	},
}

func init() {
	InstancesCmd.AddCommand(ListInstancesCmd)
	InstancesCmd.AddCommand(ListDeploymentsCmd)
}

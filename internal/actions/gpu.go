package actions

import (
	"fmt"

	"hyperagent/internal/instances"
	"hyperagent/internal/logger"
	"hyperagent/internal/marketplace"
)

const getAvailableGPUsDescription = `This tool will get all the available GPUs on the Hyperbolic platform.

It does not take any inputs.

Important notes:
- Authorization key is required for this operation
- The GPU prices are in USD cents per hour
`

const getGPUStatusDescription = `This tool will get the status and SSH commands of the currently rented GPUs on the Hyperbolic platform.

It does not take any inputs.

Important notes:
- Authorization key is required for this operation
`

const rentComputeDescription = `This tool will rent compute on the Hyperbolic platform.

It takes the following inputs:
- cluster_name: Which cluster the node is on
- node_name: Which node to rent
- gpu_count: How many GPUs to rent

Important notes:
- All inputs must be recognized in order to process the rental
`

func NewGetAvailableGPUsAction(market *marketplace.Client) Action {
	return Action{
		Name:        "get_available_gpus",
		Description: getAvailableGPUsDescription,
		Parameters:  NoParams(),
		Run: func(_ Args) string {
			out, err := market.AvailableGPUs()
			if err != nil {
				return fmt.Sprintf("Error retrieving available GPUs: %v", err)
			}
			return out
		},
	}
}

func NewGetGPUStatusAction(market *marketplace.Client) Action {
	return Action{
		Name:        "get_gpu_status",
		Description: getGPUStatusDescription,
		Parameters:  NoParams(),
		Run: func(_ Args) string {
			out, err := market.Instances()
			if err != nil {
				return fmt.Sprintf("Error retrieving GPU status: %v", err)
			}
			return out
		},
	}
}

func NewRentComputeAction(market *marketplace.Client, store *instances.Repository) Action {
	return Action{
		Name:        "rent_compute",
		Description: rentComputeDescription,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"cluster_name": map[string]any{"type": "string", "description": "Which cluster the node is on"},
				"node_name":    map[string]any{"type": "string", "description": "Which node to rent"},
				"gpu_count":    map[string]any{"type": "string", "description": "How many GPUs to rent"},
			},
			"required": []string{"cluster_name", "node_name", "gpu_count"},
		},
		Run: func(args Args) string {
			clusterName := args.String("cluster_name")
			nodeName := args.String("node_name")
			gpuCount := args.String("gpu_count")

			out, err := market.Rent(clusterName, nodeName, gpuCount)
			if err != nil {
				return fmt.Sprintf("Error renting compute from the marketplace: %v", err)
			}

			if store != nil {
				if _, err := store.SaveInstance(clusterName, nodeName, gpuCount); err != nil {
					logger.Warn("Failed to record rented instance: %v", err)
				}
			}

			return out
		},
	}
}

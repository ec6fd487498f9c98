package marketplace

import "errors"

var (
	ErrAPIKeyNotSet      = errors.New("HYPERBOLIC_API_KEY environment variable is not set")
	ErrMissingRentParams = errors.New("cluster_name and node_name are required")
	ErrRequestFailed     = errors.New("marketplace request failed")
)

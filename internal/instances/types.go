package instances

import "time"

// Instance is a GPU instance rented on the marketplace.
type Instance struct {
	ID          string `gorm:"primaryKey"`
	ClusterName string
	NodeName    string
	GPUCount    string
	CreatedAt   time.Time
}

// Deployment statuses
const (
	DeploymentStatusProvisioning = "provisioning"
	DeploymentStatusRunning      = "running"
	DeploymentStatusDegraded     = "degraded"
)

// Deployment is a snap node provisioned on a rented machine.
type Deployment struct {
	ID            string `gorm:"primaryKey"`
	Host          string
	Username      string
	JWTSecretPath string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

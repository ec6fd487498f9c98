package instances

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) SaveInstance(clusterName string, nodeName string, gpuCount string) (*Instance, error) {
	instance := &Instance{
		ID:          uuid.New().String(),
		ClusterName: clusterName,
		NodeName:    nodeName,
		GPUCount:    gpuCount,
	}

	if err := r.db.Create(instance).Error; err != nil {
		return nil, err
	}

	return instance, nil
}

func (r *Repository) AllInstances() ([]Instance, error) {
	var all []Instance

	if err := r.db.Order("created_at desc").Find(&all).Error; err != nil {
		return nil, err
	}

	return all, nil
}

func (r *Repository) SaveDeployment(host string, username string, jwtSecretPath string) (*Deployment, error) {
	deployment := &Deployment{
		ID:            uuid.New().String(),
		Host:          host,
		Username:      username,
		JWTSecretPath: jwtSecretPath,
		Status:        DeploymentStatusProvisioning,
	}

	if err := r.db.Create(deployment).Error; err != nil {
		return nil, err
	}

	return deployment, nil
}

func (r *Repository) UpdateDeploymentStatus(id string, status string) error {
	return r.db.Model(&Deployment{}).Where("id = ?", id).Update("status", status).Error
}

func (r *Repository) AllDeployments() ([]Deployment, error) {
	var all []Deployment

	if err := r.db.Order("created_at desc").Find(&all).Error; err != nil {
		return nil, err
	}

	return all, nil
}

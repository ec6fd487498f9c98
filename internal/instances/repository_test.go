package instances

import (
	"path/filepath"
	"testing"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := InitDB(filepath.Join(t.TempDir(), "hyperagent.db"))
	if err != nil {
		t.Fatalf("failed to init database: %v", err)
	}

	t.Cleanup(func() {
		if err := CloseDB(db); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})

	return NewRepository(db)
}

func TestSaveAndListInstances(t *testing.T) {
	repo := newTestRepository(t)

	saved, err := repo.SaveInstance("cluster-a", "node-1", "2")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if saved.ID == "" {
		t.Errorf("expected generated instance ID")
	}

	all, err := repo.AllInstances()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(all) != 1 {
		t.Fatalf("expected 1 instance, got %d", len(all))
	}

	if all[0].ClusterName != "cluster-a" || all[0].NodeName != "node-1" || all[0].GPUCount != "2" {
		t.Errorf("unexpected instance: %+v", all[0])
	}
}

func TestDeploymentStatusTransitions(t *testing.T) {
	repo := newTestRepository(t)

	deployment, err := repo.SaveDeployment("10.0.0.5", "ubuntu", "./.secrets/jwt.hex")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if deployment.Status != DeploymentStatusProvisioning {
		t.Errorf("expected provisioning status, got %s", deployment.Status)
	}

	if err := repo.UpdateDeploymentStatus(deployment.ID, DeploymentStatusRunning); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	all, err := repo.AllDeployments()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(all) != 1 {
		t.Fatalf("expected 1 deployment, got %d", len(all))
	}

	if all[0].Status != DeploymentStatusRunning {
		t.Errorf("expected running status, got %s", all[0].Status)
	}
}

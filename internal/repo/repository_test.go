package repo_test

import (
	"testing"

	"github.com/hamed0406/uptimewatch/internal/repo"
	"github.com/hamed0406/uptimewatch/internal/repo/file"
	"github.com/hamed0406/uptimewatch/internal/repo/memory"
	pg "github.com/hamed0406/uptimewatch/internal/repo/postgres"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.EndpointStore = memory.New()
	var _ repo.SnapshotStore = memory.New()
	var _ repo.SnapshotStore = (*file.Store)(nil)
	var _ repo.SnapshotStore = (*pg.Store)(nil)
}

package surrealdb

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nivesh/internal/common"
	tcommon "github.com/bobmcallan/nivesh/tests/common"
)

// testConfig points at the shared container, on a database unique to the
// test so tables never leak between tests.
func testConfig(t *testing.T) common.StorageConfig {
	t.Helper()
	sc := tcommon.StartSurrealDB(t)

	// database names reject "/"
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return common.StorageConfig{
		Backend:   "surrealdb",
		Address:   sc.Address(),
		Namespace: "nivesh_test",
		Database:  fmt.Sprintf("t_%s_%d", name, time.Now().UnixNano()%100000),
		Username:  "root",
		Password:  "root",
	}
}

func testManager(t *testing.T, cfg common.StorageConfig) *Manager {
	t.Helper()
	m, err := NewManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func testStore(t *testing.T) *CacheStore {
	t.Helper()
	return testManager(t, testConfig(t)).cache
}

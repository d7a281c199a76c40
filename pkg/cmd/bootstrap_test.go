package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	logaction "github.com/dukex/ruleflow/pkg/actions/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v3"
)

const testCatalog = `
action_types:
  - key: LOG
    name: Log
    handler_name: log.Handler
    active: true
collections:
  - tenant_id: tenant-1
    id: col-1
    name: orders
`

func runBootstrap(t *testing.T, args ...string) (*Runtime, error) {
	t.Helper()

	var (
		rt  *Runtime
		err error
	)

	command := &cli.Command{
		Name:  "test",
		Flags: CommonFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, err = Bootstrap(ctx, command, "ruleflow-test", slog.New(slog.DiscardHandler))

			return nil
		},
	}

	require.NoError(t, command.Run(t.Context(), append([]string{"test"}, args...)))

	return rt, err
}

func TestBootstrap_FileAndGoChannel(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(testCatalog), 0o600))

	rt, err := runBootstrap(t,
		"--database-url", filepath.Join(dir, "data"),
		"--event-bus", "gochannel",
		"--plugins-path", "",
		"--action-types-file", catalogPath,
	)
	require.NoError(t, err)
	require.NotNil(t, rt)

	t.Cleanup(func() { rt.Close(context.Background()) })

	assert.NotNil(t, rt.Engine)
	assert.NotNil(t, rt.EventBus)
	assert.True(t, rt.Registry.HasHandler(logaction.TypeKey))

	collectionID, err := rt.Collections.ResolveCollectionID(t.Context(), "tenant-1", "orders")
	require.NoError(t, err)
	assert.Equal(t, "col-1", collectionID)

	definitions, err := rt.Persistence.ActionTypeRepository().ActionTypes(t.Context())
	require.NoError(t, err)
	require.Len(t, definitions, 1)
	assert.Equal(t, logaction.TypeKey, definitions[0].Key)
}

func TestBootstrap_UnsupportedEventBus(t *testing.T) {
	rt, err := runBootstrap(t,
		"--database-url", t.TempDir(),
		"--event-bus", "nats",
	)
	require.ErrorIs(t, err, ErrUnsupportedEventBus)
	assert.Nil(t, rt)
}

func TestBootstrap_MissingCatalog(t *testing.T) {
	dir := t.TempDir()

	_, err := runBootstrap(t,
		"--database-url", dir,
		"--event-bus", "gochannel",
		"--action-types-file", filepath.Join(dir, "missing.yaml"),
	)
	require.Error(t, err)
}

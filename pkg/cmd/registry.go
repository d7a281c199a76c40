package cmd

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukex/ruleflow/pkg/actions/fieldupdate"
	"github.com/dukex/ruleflow/pkg/actions/httprequest"
	logaction "github.com/dukex/ruleflow/pkg/actions/log"
	"github.com/dukex/ruleflow/pkg/actions/publish"
	"github.com/dukex/ruleflow/pkg/eventbus"
	"github.com/dukex/ruleflow/pkg/registry"
)

func registerNativeActions(reg *registry.Registry, publisher eventbus.EventPublisher) {
	reg.Register(
		logaction.NewHandler(),
		fieldupdate.NewHandler(),
		httprequest.NewHandler(http.DefaultClient),
	)

	if publisher != nil {
		reg.Register(publish.NewHandler(publisher))
	}
}

// NewRegistry registers the native handlers, then any plugins found under
// pluginsPath, and initializes the registry. Plugins registered later win on
// duplicate keys.
func NewRegistry(
	ctx context.Context,
	log *slog.Logger,
	catalog registry.ActionTypeCatalog,
	publisher eventbus.EventPublisher,
	pluginsPath string,
) (*registry.Registry, error) {
	reg := registry.NewRegistry(log, catalog)

	registerNativeActions(reg, publisher)

	if pluginsPath != "" {
		err := reg.LoadPlugins(ctx, pluginsPath)
		if err != nil {
			return nil, err
		}
	}

	reg.Initialize(ctx)

	return reg, nil
}

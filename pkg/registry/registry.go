// Package registry maps action type keys to their handlers.
package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/protocol"
)

// ActionTypeCatalog lists the action types declared in persistent configuration.
type ActionTypeCatalog interface {
	ActiveActionTypes(ctx context.Context) ([]*models.ActionTypeDefinition, error)
}

type handlerMap map[string]protocol.ActionHandler

// Registry resolves action handlers by key. Lookups read an immutable map
// that Initialize and Refresh replace as a whole.
type Registry struct {
	logger  *slog.Logger
	catalog ActionTypeCatalog

	mu         sync.Mutex
	discovered []protocol.ActionHandler

	handlers atomic.Pointer[handlerMap]
}

func NewRegistry(log *slog.Logger, catalog ActionTypeCatalog) *Registry {
	r := &Registry{
		logger:  log.With("module", "action_registry"),
		catalog: catalog,
	}

	empty := handlerMap{}
	r.handlers.Store(&empty)

	return r
}

// Register records discovered handlers in discovery order. They become
// visible to lookups on the next Initialize or Refresh.
func (r *Registry) Register(handlers ...protocol.ActionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.discovered = append(r.discovered, handlers...)
}

// LoadPlugins opens every Go plugin under <pluginsPath>/actions and
// registers the ActionHandler symbol each one exports.
func (r *Registry) LoadPlugins(ctx context.Context, pluginsPath string) error {
	handlers, err := loadPlugin[protocol.ActionHandler](ctx, r.logger, pluginsPath, "ActionHandler", "actions")
	if err != nil {
		return err
	}

	r.Register(handlers...)

	return nil
}

// Initialize builds a fresh key to handler map from the discovered handlers,
// checks it against the persisted catalogue and publishes it.
func (r *Registry) Initialize(ctx context.Context) {
	r.mu.Lock()
	discovered := slices.Clone(r.discovered)
	r.mu.Unlock()

	next := make(handlerMap, len(discovered))

	for _, handler := range discovered {
		key := handler.ActionTypeKey()

		if previous, exists := next[key]; exists {
			r.logger.WarnContext(ctx, "Duplicate action handler key, later registration wins",
				"action_type", key,
				"replaced", handlerName(previous),
				"handler", handlerName(handler),
			)
		}

		next[key] = handler
	}

	r.crossCheck(ctx, next)

	r.handlers.Store(&next)

	r.logger.InfoContext(ctx, "Action handler registry initialized", "handlers", len(next))
}

// Refresh rebuilds the registry after the action type configuration changed.
func (r *Registry) Refresh(ctx context.Context) {
	r.logger.InfoContext(ctx, "Refreshing action handler registry")
	r.Initialize(ctx)
}

func (r *Registry) crossCheck(ctx context.Context, handlers handlerMap) {
	if r.catalog == nil {
		return
	}

	definitions, err := r.catalog.ActiveActionTypes(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "Could not read persisted action types, skipping consistency check", "error", err)

		return
	}

	declared := make(map[string]struct{}, len(definitions))

	for _, definition := range definitions {
		declared[definition.Key] = struct{}{}

		if _, ok := handlers[definition.Key]; !ok {
			r.logger.WarnContext(ctx, "Persisted action type has no registered handler",
				"action_type", definition.Key,
				"expected_handler", definition.HandlerName,
			)
		}
	}

	for key, handler := range handlers {
		if _, ok := declared[key]; !ok {
			r.logger.WarnContext(ctx, "Registered action handler is not declared in persisted action types",
				"action_type", key,
				"handler", handlerName(handler),
			)
		}
	}
}

func (r *Registry) current() handlerMap {
	return *r.handlers.Load()
}

func (r *Registry) Handler(key string) (protocol.ActionHandler, bool) {
	handler, ok := r.current()[key]

	return handler, ok
}

func (r *Registry) HasHandler(key string) bool {
	_, ok := r.current()[key]

	return ok
}

// RegisteredKeys returns a sorted copy of the registered keys.
func (r *Registry) RegisteredKeys() []string {
	handlers := r.current()

	keys := make([]string, 0, len(handlers))
	for key := range handlers {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

func (r *Registry) Size() int {
	return len(r.current())
}

func (r *Registry) HealthCheck() (string, bool) {
	size := r.Size()
	if size == 0 {
		return "no action handlers registered", false
	}

	return fmt.Sprintf("%d action handlers registered", size), true
}

func handlerName(handler protocol.ActionHandler) string {
	return reflect.TypeOf(handler).String()
}

func loadPlugin[T any](ctx context.Context, logger *slog.Logger, pluginsPath, symbolName, kind string) ([]T, error) {
	rootPath := strings.TrimSuffix(pluginsPath, "/") + "/" + kind
	if _, err := os.Stat(rootPath); os.IsNotExist(err) {
		return nil, nil
	}

	root := os.DirFS(rootPath)

	pluginPathList, err := fs.Glob(root, "*/*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", pluginsPath), slog.String("type", symbolName))
	l.InfoContext(ctx, "Loading plugins")

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("plugin %s does not export %s: %w", p, symbolName, err)
		}

		switch symbol := v.(type) {
		case T:
			pluginList = append(pluginList, symbol)
		case *T:
			pluginList = append(pluginList, *symbol)
		default:
			return nil, fmt.Errorf("plugin %s: symbol %s has unexpected type %T", p, symbolName, v)
		}

		l.InfoContext(ctx, "Loaded plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}

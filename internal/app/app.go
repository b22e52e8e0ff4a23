// Package app wires configuration, storage, the Takaro client, and the tool
// pipeline into a running application.
package app

import (
	"context"
	"encoding/json"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/gettakaro/MCP/internal/client"
	"github.com/gettakaro/MCP/internal/common"
	"github.com/gettakaro/MCP/internal/config"
	"github.com/gettakaro/MCP/internal/mcp"
	"github.com/gettakaro/MCP/internal/openapi"
	"github.com/gettakaro/MCP/internal/storage"
	"github.com/gettakaro/MCP/internal/storage/badger"
	"github.com/gettakaro/MCP/internal/tools"
)

// ServerName identifies this implementation to protocol clients.
const ServerName = "takaro-mcp"

// App holds all application components and dependencies.
type App struct {
	Config     *config.Config
	Logger     *common.Logger
	Storage    storage.Manager
	Client     *client.Client
	Registry   *tools.Registry
	Dispatcher *mcp.Dispatcher
}

// New initializes the application: it opens storage, authenticates against
// the Takaro API, loads the OpenAPI description, and builds the tool
// registry. Authentication failure is fatal. A failed spec load is not: the
// server starts with an empty search-tool set so the protocol surface stays
// available.
func New(ctx context.Context, cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	manager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a.Storage = manager

	a.Client = client.New(cfg.Takaro.URL, cfg.Takaro.Username, cfg.Takaro.Password, logger)
	if err := a.Client.Login(ctx); err != nil {
		manager.Close()
		return nil, fmt.Errorf("takaro login failed: %w", err)
	}

	a.Registry = tools.NewRegistry(logger)
	a.loadSearchTools(ctx)
	a.Registry.Register(a.serverInfoTool())

	a.Dispatcher = mcp.NewDispatcher(a.Registry, a.Client, logger, ServerName, config.GetVersion())

	logger.Info().Int("tools", a.Registry.Size()).Msg("application initialization complete")

	return a, nil
}

// loadSearchTools fetches the OpenAPI description and registers the derived
// search tools.
func (a *App) loadSearchTools(ctx context.Context) {
	fetcher := openapi.NewFetcher(a.Config.Takaro.URL, a.Storage.KeyValueStorage(), a.Config.Spec, a.Logger)
	doc, err := fetcher.Load(ctx)
	if err != nil {
		a.Logger.Warn().Str("error", err.Error()).Msg("openapi description unavailable, starting without search tools")
		return
	}

	generator := tools.NewGenerator(doc, a.Logger)
	generated := generator.SearchTools()
	a.Registry.RegisterAll(generated)
	a.Logger.Info().Str("api", doc.Title()).Int("tools", len(generated)).Msg("search tools generated")
}

// serverInfoTool reports server identity and tool inventory.
func (a *App) serverInfoTool() tools.Tool {
	return tools.NewCustom(
		"serverInfo",
		"Get server name, version, and the number of available tools.",
		nil,
		func(ctx context.Context, args map[string]any, call *tools.CallContext) (*mcptypes.CallToolResult, error) {
			info := map[string]any{
				"name":      ServerName,
				"version":   config.GetVersion(),
				"build":     config.GetBuild(),
				"toolCount": a.Registry.Size(),
				"takaroUrl": a.Client.BaseURL(),
			}
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal server info: %w", err)
			}
			return mcptypes.NewToolResultText(string(out)), nil
		},
	)
}

// Shutdown releases application resources.
func (a *App) Shutdown() error {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			return fmt.Errorf("storage close failed: %w", err)
		}
	}
	a.Logger.Info().Msg("application shutdown complete")
	return nil
}

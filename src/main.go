package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"streamvault/src/features/config"
	"streamvault/src/features/credentials"
	"streamvault/src/features/hosting"
	"streamvault/src/features/logging"
	"streamvault/src/features/metrics"
	"streamvault/src/features/resolving"
	"streamvault/src/infra/amazon"
	"streamvault/src/infra/database"
	"streamvault/src/infra/deezer"
	"streamvault/src/infra/extract"
	"streamvault/src/infra/httpx"
	"streamvault/src/infra/spotify"
)

const configPath = "config.yaml"

func main() {
	// Load configuration
	cfgManager, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := cfgManager.Get()

	// Setup default logger with slog
	logger := logging.SetupLogger(cfgManager)
	slog.SetDefault(logger)

	// Shared outbound HTTP client
	httpClient := httpx.New(httpx.Options{
		Timeout:           time.Duration(cfg.Resolver.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Resolver.RequestsPerSecond,
		BrowserTLSHosts:   cfg.Resolver.BrowserTLSHosts,
	})
	extractor := extract.New()

	// Credential sources, one per configured scope
	sources := map[credentials.Scope]credentials.Source{}

	// deezerMu guards the fetcher/session pair: the config watcher may install
	// them after boot while request goroutines read them.
	var deezerMu sync.Mutex
	var arlFetcher *deezer.ARLFetcher
	var sessionClient *deezer.SessionClient
	if cfg.Services.Deezer.ARL != "" {
		arlFetcher, err = deezer.NewARLFetcher(httpClient, cfg.Services.Deezer.ARL)
		if err != nil {
			log.Fatalf("failed to set up arl fetcher: %v", err)
		}
		sessionClient = deezer.NewSessionClient(deezer.DefaultUserDataEndpoint, arlFetcher.Get, extractor)
		sources[credentials.ScopeRemote] = credentials.SourceFunc(arlFetcher.Refresh)
		sources[credentials.ScopeSession] = credentials.SourceFunc(sessionClient.RefreshCredential)
	}

	deriver := spotify.NewDeriver(httpClient, extractor)
	tokens := spotify.NewTokenTracker(deriver, httpClient, extractor,
		cfg.Services.Spotify.SpDC, cfg.Services.Spotify.ClientID, cfg.Services.Spotify.ClientSecret)
	sources[credentials.ScopeAnonymous] = credentials.SourceFunc(tokens.RefreshAnonymous)
	if cfg.Services.Spotify.SpDC != "" {
		sources[credentials.ScopeAccount] = credentials.SourceFunc(tokens.RefreshAccount)
	}
	if cfg.Services.Spotify.ClientID != "" && cfg.Services.Spotify.ClientSecret != "" {
		sources[credentials.ScopeClient] = credentials.SourceFunc(tokens.RefreshClient)
	}

	credentialService := credentials.NewService(sources)
	if arlFetcher != nil {
		credentialService.SetRotator(arlFetcher)
	}

	// Catalog client over the configured API
	apiKey := func(ctx context.Context) (string, error) {
		return cfgManager.Get().Resolver.APIKey, nil
	}
	catalog := amazon.New(cfg.Resolver.APIURL, apiKey, httpClient, extractor)

	// Resolution engine; a 403 from the catalog triggers one credential
	// rotation before the retry
	onForbidden := func(ctx context.Context) {
		deezerMu.Lock()
		fetcher, session := arlFetcher, sessionClient
		deezerMu.Unlock()
		if fetcher != nil {
			if _, err := credentialService.RotateRemote(ctx, true); err != nil {
				slog.Warn("Remote credential rotation failed", "error", err)
			}
			session.Invalidate()
			return
		}
		if err := credentialService.Invalidate(credentials.ScopeAnonymous); err != nil {
			slog.Warn("Credential invalidation failed", "error", err)
		}
	}
	engine := resolving.NewEngine(catalog, extractor, onForbidden)

	// Resolution history store
	history, err := database.NewSqliteHistory(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to open history database: %v", err)
	}
	defer history.Close()

	resolvingService := resolving.NewService(catalog, engine, history)

	// Propagate config file changes to the live credential sources. A scope
	// that first appears in the new config is registered here via SetOverride.
	onReload := func(newCfg *config.Config) {
		if arl := newCfg.Services.Deezer.ARL; arl != "" {
			deezerMu.Lock()
			fetcher, session := arlFetcher, sessionClient
			deezerMu.Unlock()
			switch {
			case fetcher != nil && fetcher.Source() != arl:
				if err := fetcher.SetSource(arl); err != nil {
					slog.Warn("Failed to apply new arl source", "error", err)
				} else {
					credentialService.Invalidate(credentials.ScopeRemote)
					credentialService.Invalidate(credentials.ScopeSession)
					session.Invalidate()
				}
			case fetcher == nil:
				fetcher, err := deezer.NewARLFetcher(httpClient, arl)
				if err != nil {
					slog.Warn("Failed to set up arl fetcher", "error", err)
					break
				}
				session := deezer.NewSessionClient(deezer.DefaultUserDataEndpoint, fetcher.Get, extractor)
				deezerMu.Lock()
				arlFetcher, sessionClient = fetcher, session
				deezerMu.Unlock()
				credentialService.SetOverride(credentials.ScopeRemote, credentials.SourceFunc(fetcher.Refresh))
				credentialService.SetOverride(credentials.ScopeSession, credentials.SourceFunc(session.RefreshCredential))
				credentialService.SetRotator(fetcher)
				slog.Info("Remote credential scopes enabled by config reload")
			}
		}

		tokens.SetSpDC(newCfg.Services.Spotify.SpDC)
		tokens.SetClientIDs(newCfg.Services.Spotify.ClientID, newCfg.Services.Spotify.ClientSecret)
		credentialService.Invalidate(credentials.ScopeAnonymous)
		if newCfg.Services.Spotify.SpDC != "" {
			credentialService.SetOverride(credentials.ScopeAccount, credentials.SourceFunc(tokens.RefreshAccount))
		} else {
			credentialService.Invalidate(credentials.ScopeAccount)
		}
		if newCfg.Services.Spotify.ClientID != "" && newCfg.Services.Spotify.ClientSecret != "" {
			credentialService.SetOverride(credentials.ScopeClient, credentials.SourceFunc(tokens.RefreshClient))
		} else {
			credentialService.Invalidate(credentials.ScopeClient)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	watcher, err := config.NewWatcher(cfgManager, configPath, onReload)
	if err != nil {
		slog.Error("Failed to create config watcher", "error", err)
	} else if err := watcher.Start(ctx); err != nil {
		slog.Error("Failed to start config watcher", "error", err)
	} else {
		defer watcher.Stop()
	}

	// Prometheus exposition on its own listener
	var metricsServer interface{ Shutdown(context.Context) error }
	if cfg.Metrics.Enabled {
		metricsServer = metrics.Serve(cfg.Metrics.Port)
	}

	// Create and start the HTTP server
	server := hosting.NewServer(cfgManager, configPath, resolvingService, credentialService)
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("Server stopped", "error", err)
			stop()
		}
	}()
	slog.Info("Server started. Press Ctrl+C to shut down.", "port", cfg.Server.Port)

	// Wait for a shutdown signal
	<-ctx.Done()
	slog.Info("Shutting down server...")

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown metrics server", "error", err)
		}
		cancel()
	}

	if err := server.Shutdown(); err != nil {
		log.Fatalf("failed to shutdown server: %v", err)
	}
	slog.Info("Server gracefully shut down.")
}

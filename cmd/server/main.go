// Command server runs the strom streaming bridge.
//
// Configuration is layered: built-in defaults, then a YAML file (explicit
// -config flag, STROM_CONFIG, ./config.yaml, or /etc/strom/config.yaml),
// then STROM_* environment overrides. The common ones:
//
//	STROM_ENGINE_URL  - Chat Completions backend URL (required)
//	STROM_MODEL       - Default model name (optional)
//	STROM_PORT        - Listen port (default: 8080)
//	STROM_MEDIA_DIR   - Artifact directory (default: ./generated_images)
//	STROM_COOKIES_DIR - HAR and cookie directory (default: ./har_and_cookies)
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/rhuss/strom/pkg/auth"
	"github.com/rhuss/strom/pkg/auth/apikey"
	authjwt "github.com/rhuss/strom/pkg/auth/jwt"
	"github.com/rhuss/strom/pkg/bridge"
	"github.com/rhuss/strom/pkg/config"
	"github.com/rhuss/strom/pkg/conversation"
	"github.com/rhuss/strom/pkg/cookies"
	"github.com/rhuss/strom/pkg/diag"
	"github.com/rhuss/strom/pkg/engine/chatcompat"
	"github.com/rhuss/strom/pkg/media"
	transporthttp "github.com/rhuss/strom/pkg/transport/http"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	diag.Init(cfg.Logging.Level, cfg.Logging.Format)

	eng := chatcompat.New(chatcompat.Config{
		BaseURL: cfg.Engine.BaseURL,
		APIKey:  cfg.Engine.APIKey,
		Timeout: cfg.Engine.Timeout,
	})
	defer eng.Close()

	registry := conversation.New(cfg.Conversations.MaxEntries)

	materializer := media.New(media.Config{
		Dir:           cfg.Media.Dir,
		MaxConcurrent: cfg.Media.MaxConcurrent,
		MaxBytes:      cfg.Media.MaxBytes,
		FetchTimeout:  cfg.Media.FetchTimeout,
	})

	cookieStore := cookies.New(cookies.Config{Aliases: cfg.Cookies.Aliases})
	if err := cookieStore.LoadDir(cfg.Cookies.Dir); err != nil {
		return fmt.Errorf("loading cookies from %s: %w", cfg.Cookies.Dir, err)
	}
	slog.Info("cookie store loaded", "dir", cfg.Cookies.Dir, "domains", len(cookieStore.Domains()))

	b, err := bridge.New(eng, registry, materializer, cookieStore, bridge.Config{
		DefaultModel: cfg.Engine.DefaultModel,
		Diagnostics:  cfg.Diagnostics.StreamLogs,
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithReadTimeout(cfg.Server.ReadTimeout),
		transporthttp.WithWriteTimeout(cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithMediaDir(cfg.Media.Dir),
		transporthttp.WithCookieDir(cfg.Cookies.Dir),
		transporthttp.WithVersion(version),
	}
	if cfg.Observability.Metrics.Enabled {
		opts = append(opts, transporthttp.WithMetricsPath(cfg.Observability.Metrics.Path))
	} else {
		opts = append(opts, transporthttp.WithMetricsPath(""))
	}

	authMW, err := authMiddleware(cfg.Auth)
	if err != nil {
		return err
	}
	if authMW != nil {
		opts = append(opts, transporthttp.WithAuth(authMW))
	}

	srv := transporthttp.NewServer(b, eng, cookieStore, opts...)

	slog.Info("strom starting",
		"version", version,
		"port", cfg.Server.Port,
		"engine", cfg.Engine.BaseURL,
		"model", cfg.Engine.DefaultModel,
		"auth", cfg.Auth.Type,
	)
	return srv.ListenAndServe()
}

// authMiddleware builds the HTTP authentication layer from config. A nil
// return with nil error means the surface runs open.
func authMiddleware(cfg config.AuthConfig) (func(http.Handler) http.Handler, error) {
	chain := &auth.AuthChain{DefaultDecision: auth.No}

	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "apikey":
		entries := make([]apikey.Entry, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			entries = append(entries, apikey.Entry{Key: k.Key, Subject: k.Subject})
		}
		chain.Authenticators = []auth.Authenticator{apikey.New(entries)}
	case "jwt":
		chain.Authenticators = []auth.Authenticator{authjwt.New(authjwt.Config{
			Secret:   cfg.JWT.Secret,
			Issuer:   cfg.JWT.Issuer,
			Audience: cfg.JWT.Audience,
		})}
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}

	return auth.Middleware(chain, auth.DefaultBypassEndpoints), nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	slogecho "github.com/samber/slog-echo"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	oauth "github.com/weshareshare/oauth-pkce-golang"
)

func main() {
	app := &cli.App{
		Name:    "weshare-web",
		Usage:   "web client for the weshare media backend",
		Version: versioninfo.Short(),
		Action:  run,
	}

	app.RunAndExitOnError()
}

func run(cmd *cli.Context) error {
	godotenv.Load()

	cfg, err := configFromEnv()
	if err != nil {
		return err
	}

	db, err := gorm.Open(sqlite.Open(cfg.DbPath), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("could not open token database: %w", err)
	}

	kv, err := oauth.NewKVStore(db)
	if err != nil {
		return err
	}

	client, err := oauth.NewClient(oauth.ClientArgs{
		ClientId:    cfg.ClientId,
		RedirectUri: cfg.RedirectUri,
		Scope:       cfg.Scope,
		Domain:      cfg.Domain,
	})
	if err != nil {
		return err
	}

	if cfg.Issuer != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		meta, err := client.FetchProviderMetadata(ctx, cfg.Issuer)
		if err != nil {
			return fmt.Errorf("provider discovery failed: %w", err)
		}

		client.UseProviderMetadata(meta)
	}

	srv := &WebServer{
		cfg:    cfg,
		client: client,
		kv:     kv,
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(slogecho.New(slog.Default()))
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(cfg.SessionSecret))))

	e.GET("/", srv.handleHome)
	e.GET("/login", srv.handleLogin)
	e.POST("/login", srv.handleLoginSubmit)
	e.GET("/callback", srv.handleCallback)
	e.GET("/logout", srv.handleLogout)
	e.GET("/upload", srv.handleUploadForm)
	e.POST("/upload", srv.handleUploadSubmit)

	httpd := http.Server{
		Addr:    cfg.Bind,
		Handler: e,
	}

	slog.Info("starting http server", "bind", cfg.Bind)

	if err := httpd.ListenAndServe(); err != nil {
		return err
	}

	return nil
}

type Config struct {
	Domain        string
	Issuer        string
	ClientId      string
	RedirectUri   string
	Scope         string
	SignOutUri    string
	BackendUrl    string
	SessionSecret string
	DbPath        string
	Bind          string
}

func configFromEnv() (*Config, error) {
	cfg := &Config{
		Domain:        os.Getenv("OAUTH_DOMAIN"),
		Issuer:        os.Getenv("OAUTH_ISSUER"),
		ClientId:      os.Getenv("OAUTH_CLIENT_ID"),
		RedirectUri:   os.Getenv("OAUTH_REDIRECT_URI"),
		Scope:         os.Getenv("OAUTH_SCOPE"),
		SignOutUri:    os.Getenv("OAUTH_SIGNOUT_URI"),
		BackendUrl:    os.Getenv("BACKEND_URL"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DbPath:        os.Getenv("DB_PATH"),
		Bind:          os.Getenv("BIND"),
	}

	if cfg.Domain == "" && cfg.Issuer == "" {
		return nil, fmt.Errorf("one of OAUTH_DOMAIN or OAUTH_ISSUER must be set")
	}

	if cfg.ClientId == "" {
		return nil, fmt.Errorf("OAUTH_CLIENT_ID must be set")
	}

	if cfg.RedirectUri == "" {
		return nil, fmt.Errorf("OAUTH_REDIRECT_URI must be set")
	}

	if cfg.BackendUrl == "" {
		return nil, fmt.Errorf("BACKEND_URL must be set")
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET must be set")
	}

	if cfg.SignOutUri == "" {
		cfg.SignOutUri = "http://localhost:7070/"
	}

	if cfg.DbPath == "" {
		cfg.DbPath = "weshare-web.db"
	}

	if cfg.Bind == "" {
		cfg.Bind = ":7070"
	}

	return cfg, nil
}

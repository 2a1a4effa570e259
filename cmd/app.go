package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/natefinch/lumberjack"
	"github.com/omeid/uconfig"
	"github.com/realiefan/note-exte/drafts"
	"github.com/realiefan/note-exte/nostr"
	"github.com/realiefan/note-exte/profile"
	"github.com/realiefan/note-exte/publisher"
	"github.com/realiefan/note-exte/session"
	"github.com/realiefan/note-exte/types"
	"github.com/robfig/cron/v3"
)

type Application struct {
	config    *types.Config
	store     *drafts.Store
	client    *nostr.Client
	resolver  *profile.Resolver
	session   *session.Session
	publisher *publisher.Publisher
}

type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

func NewApplication() *Application {
	// load config and init logger
	config := loadConfig()
	initLogger(config)
	log.Debug("Loaded configuration", "config", config)

	store, err := drafts.Open(config.Drafts.Path)
	if err != nil {
		log.Crit("Failed to open drafts store", "path", config.Drafts.Path, "err", err)
	}

	client, err := nostr.NewClient(context.Background(), config.Relays.Uris)
	if err != nil {
		log.Crit("Failed to connect to relays", "err", err)
	}

	// a missing key disables publishing but not the feed
	var signer nostr.Signer
	keySigner, err := nostr.NewKeySigner(config.Signer.SK)
	if err != nil {
		log.Warn("Publishing disabled", "err", err)
	} else {
		signer = keySigner
	}

	resolver := profile.NewResolver(client)
	sess := session.New(client, resolver, config.Debounce(), config.Feed.MaxItems)
	pub := publisher.New(client, signer)

	return &Application{
		config:    config,
		store:     store,
		client:    client,
		resolver:  resolver,
		session:   sess,
		publisher: pub,
	}
}

func (app *Application) Run() {
	defer app.store.Close()
	defer app.client.Close()
	defer app.session.Close()

	err := app.session.SetTags(app.config.Feed.Tags)
	if err != nil {
		log.Crit("Failed to subscribe", "tags", app.config.Feed.Tags, "err", err)
	}

	// periodic resubscribe, same cadence as a relay reconnect
	cr := cron.New()
	cr.AddFunc("0 * * * *", func() {
		log.Info("Refreshing relay subscription")
		if err := app.session.Refresh(); err != nil {
			log.Error("Failed to refresh subscription", "err", err)
		}
	})
	cr.Start()
	defer cr.Stop()

	app.listenAndServe()
}

func (app *Application) listenAndServe() {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", app.handleFeed)
	mux.HandleFunc("/tags", app.handleTags)
	mux.HandleFunc("/publish", app.handlePublish)
	mux.HandleFunc("/profiles", app.handleProfiles)
	mux.HandleFunc("/drafts", app.handleDrafts)
	mux.HandleFunc("/drafts/", app.handleDraftByID)
	mux.HandleFunc("/drafts/export", app.handleExport)
	mux.HandleFunc("/drafts/import", app.handleImport)

	log.Info("Server started", "listen", app.config.Server.Listen)
	err := http.ListenAndServe(app.config.Server.Listen, mux)
	if errors.Is(err, http.ErrServerClosed) {
		log.Info("Server closed")
	} else {
		log.Error("Server error", "err", err)
	}
}

func doResponse(w http.ResponseWriter, status int, success bool, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := response{
		Success: success,
		Data:    body,
	}

	err := json.NewEncoder(w).Encode(resp)
	if err != nil {
		log.Error("Failed to encode response body", "body", body, "err", err)
	}
}

func loadConfig() *types.Config {
	config := &types.Config{}
	files := uconfig.Files{
		{"config.json", json.Unmarshal},
	}
	_, err := uconfig.Classic(&config, files)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return config
}

func initLogger(config *types.Config) {
	var handler log.Handler

	path := config.Log.Path
	if path == "console" {
		handler = log.StreamHandler(os.Stdout, log.TerminalFormat(false))
	} else {
		rotated := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
		}
		handler = log.StreamHandler(rotated, log.TerminalFormat(false))
	}

	level, _ := log.LvlFromString(config.Log.Level)
	handler = log.LvlFilterHandler(level, handler)
	log.Root().SetHandler(handler)
}

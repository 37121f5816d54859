package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fitstack/coach-web-ui/internal/chat"
	"github.com/fitstack/coach-web-ui/internal/handlers"
	"github.com/fitstack/coach-web-ui/internal/services"
	"gopkg.in/yaml.v3"
)

const defaultSystemPrompt = "You are a knowledgeable, encouraging fitness coach. " +
	"Give practical, specific advice on training, nutrition, and recovery."

func main() {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatal(fmt.Errorf("error getting user config dir: %w", err))
	}
	cfgPath := filepath.Join(cfgDir, "coachwebui")
	if err := os.MkdirAll(cfgPath, 0755); err != nil {
		log.Fatal(fmt.Errorf("error creating config directory: %w", err))
	}

	cfg := config{}
	cfgFilePath := filepath.Join(cfgPath, "config.yaml")
	cfgFile, err := os.Open(cfgFilePath)
	switch {
	case err == nil:
		defer cfgFile.Close()
		if err := yaml.NewDecoder(cfgFile).Decode(&cfg); err != nil {
			log.Fatal(fmt.Errorf("error decoding config file: %w", err))
		}
	case errors.Is(err, fs.ErrNotExist):
		// No config file means the canned generator and defaults below
		cfg.Generator = &cannedConfig{}
	default:
		log.Fatal(fmt.Errorf("error opening config file: %w", err))
	}

	if cfg.Port == "" {
		cfg.Port = "8181"
	}
	if cfg.Model == "" {
		cfg.Model = "coach-pro"
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	gen, err := cfg.Generator.generator(cfg.SystemPrompt, logger)
	if err != nil {
		log.Fatal(fmt.Errorf("error creating generator: %w", err))
	}

	dbPath := filepath.Join(cfgPath, "store.db")
	boltDB, err := services.NewBoltDB(dbPath)
	if err != nil {
		log.Fatal(fmt.Errorf("error opening store db: %w", err))
	}
	defer boltDB.Close()

	store := chat.NewStore(logger,
		chat.WithModel(cfg.Model),
		chat.WithSnapshotter(boltDB),
	)
	if err := store.Restore(context.Background()); err != nil {
		log.Fatal(fmt.Errorf("error restoring conversations: %w", err))
	}

	m := handlers.NewMain(store, gen, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/history", m.HandleHistory)
	mux.HandleFunc("POST /api/conversations", m.HandleCreateConversation)
	mux.HandleFunc("DELETE /api/conversations", m.HandleClearConversations)
	mux.HandleFunc("GET /api/conversations/{id}", m.HandleGetConversation)
	mux.HandleFunc("DELETE /api/conversations/{id}", m.HandleDeleteConversation)
	mux.HandleFunc("POST /api/conversations/{id}/rename", m.HandleRenameConversation)
	mux.HandleFunc("POST /api/conversations/{id}/pin", m.HandlePinConversation)
	mux.HandleFunc("POST /api/conversations/{id}/activate", m.HandleActivateConversation)
	mux.HandleFunc("POST /api/conversations/{id}/messages", m.HandleSendMessage)
	mux.HandleFunc("POST /api/conversations/{id}/messages/{messageID}/reaction", m.HandleReactToMessage)
	mux.HandleFunc("PATCH /api/conversations/{id}/messages/{messageID}", m.HandleEditMessage)
	mux.HandleFunc("DELETE /api/conversations/{id}/messages/{messageID}", m.HandleDeleteMessage)
	mux.HandleFunc("PUT /api/model", m.HandleSetModel)
	mux.HandleFunc("GET /sse", m.HandleSSE)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv.RegisterOnShutdown(func() {
		if err := m.Shutdown(context.Background()); err != nil {
			log.Printf("Failed to shutdown sse server: %v", err)
		}
	})

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		log.Println("Server starting on :" + cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt/terminate signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking select waiting for either interrupt or server error
	select {
	case err := <-serverErrors:
		log.Printf("Server error: %v", err)

	case sig := <-shutdown:
		log.Printf("Start shutdown, signal: %v", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
			if err := srv.Close(); err != nil {
				log.Printf("Forcing server close: %v", err)
			}
		}
	}
}

package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/auth"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/config"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fmt.Println("Starting Bonfire signaling server...")

	// Optional local overrides; absence is not an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Skipping .env: %v", err)
	}

	cfg := config.FromEnv()

	// Profile and channel stores are external collaborators; the local
	// directory stands in when the server runs on its own.
	directory := auth.NewLocalDirectory()
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	srv := server.New(cfg, verifier, directory, directory)
	srv.Start()

	httpServer := server.CreateServer(cfg.Port, srv.Routes())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}

	if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
		log.Printf("HTTP shutdown did not complete cleanly: %v", err)
	}
	if err := srv.Shutdown(shutdownTimeout); err != nil {
		log.Printf("Signaling shutdown did not complete cleanly: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/studyforge/studyforge/auth"
	"github.com/studyforge/studyforge/csrf"
	"github.com/studyforge/studyforge/document"
	"github.com/studyforge/studyforge/gemini"
	"github.com/studyforge/studyforge/googleauth"
	"github.com/studyforge/studyforge/internal/config"
	"github.com/studyforge/studyforge/server"
	"github.com/studyforge/studyforge/session"
	"github.com/studyforge/studyforge/token"
	"github.com/studyforge/studyforge/workflow"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	sessions, closeSessions, err := newSessionRepo(c)
	if err != nil {
		return fmt.Errorf("session repository: %w", err)
	}
	defer closeSessions()

	// A missing Google client ID leaves the app running with login disabled.
	var provider auth.Provider
	var refresher server.TokenRefresher
	identity, err := googleauth.New(c)
	if err != nil {
		zlog.Warn().Err(err).Msg("Google login disabled")
	} else {
		provider = identity
		refresher = identity
	}

	states := csrf.NewManager(sessions)
	authService := auth.NewService(provider, states, sessions)

	geminiClient := gemini.New(c)
	workflowService := workflow.NewService(
		sessions,
		document.NewExtractor(),
		geminiClient,
		geminiClient,
		document.NewRenderer(c.GetUploadFolder()),
		c,
	)

	tokenManager := token.NewManager(c.GetSessionSecret(), c.GetSessionTTL())

	srv := &http.Server{
		Addr:    c.GetPort(),
		Handler: server.New(c, sessions, authService, workflowService, tokenManager, refresher),
	}
	go listenAndServe(srv)
	waitForStopSignal()
	returnError = shutdown(srv)
	return returnError
}

// newSessionRepo returns the Redis-backed session store when REDIS_URL is
// set, the in-memory store otherwise.
func newSessionRepo(c config.Config) (session.Repo, func(), error) {
	redisURL := c.GetRedisURL()
	if redisURL == "" {
		return session.NewInMemoryRepo(), func() {}, nil
	}

	repo, err := session.NewRedisRepo(redisURL, c.GetSessionTTL())
	if err != nil {
		return nil, nil, err
	}
	zlog.Info().Msg("Using Redis session store")
	return repo, func() {
		if err := repo.Close(); err != nil {
			zlog.Err(err).Msg("Failed to close Redis connection")
		}
	}, nil
}

func setupLogging(c config.Config) {
	if c.GetEnv() == "DEV" {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

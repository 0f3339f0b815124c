/*
 * file: main.go
 * package: main
 * description:
 *     This file initializes the application by setting up dependencies,
 *     configuring the database, wiring the protocol transport, and
 *     launching the TCP server. It follows a dependency injection pattern
 *     to wire together components, promoting a decoupled and testable
 *     architecture.
 */

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvdyellow/server/internal/adapters/db"
	"github.com/dvdyellow/server/internal/adapters/repository"
	"github.com/dvdyellow/server/internal/config"
	"github.com/dvdyellow/server/internal/core/services"
	"github.com/dvdyellow/server/internal/metrics"
	"github.com/dvdyellow/server/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	dbConn, err := db.InitializeDatabase(cfg.Database)
	if err != nil {
		log.Error("database initialization failed", "err", err)
		os.Exit(1)
	}
	log.Info("database connection established", "driver", cfg.Database.Driver)

	repo := repository.NewGormRepository(dbConn)

	authService := services.NewAuthService(repo)

	mux := transport.NewMux(log)
	presenceService := services.NewPresenceService(repo, authService, mux)
	matchService := services.NewMatchService(repo, mux)
	mux.Bind(authService, presenceService, matchService)

	server := transport.NewServer(log, mux, authService, presenceService, matchService, cfg.Network.HandshakeVersion)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Network.Port))
	if err != nil {
		log.Error("failed to bind listener", "port", cfg.Network.Port, "err", err)
		os.Exit(1)
	}
	log.Info("server listening", "port", cfg.Network.Port)

	go func() {
		if err := metrics.Serve(cfg.Metrics.Port); err != nil {
			log.Warn("metrics listener stopped", "err", err)
		}
	}()

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- server.Serve(ln)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErrCh:
		if err != nil {
			log.Error("accept loop failed", "err", err)
			os.Exit(1)
		}
	case <-sigCh:
		log.Info("shutting down")
		server.Shutdown()
		<-serveErrCh
	}
}

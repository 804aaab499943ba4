// Command subspace-client is a minimal embedder around internal/engine: it
// dials a server, logs in, and prints the typed events the Session produces,
// mirroring the teacher's core/main.go signal/errChan shutdown shape (§A).
package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/subspace-go/client/internal/clock"
	"github.com/subspace-go/client/internal/config"
	"github.com/subspace-go/client/internal/engine"
	"github.com/subspace-go/client/internal/log"
	"github.com/subspace-go/client/internal/mapcache"
	"github.com/subspace-go/client/internal/message"
	"github.com/subspace-go/client/internal/metrics"
)

const version = "1.0.0"

func main() {
	log.Banner("Subspace Client Engine - Built with Go", version)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	log.Section("Startup")
	log.Infof("Engine version: %s", version)
	log.Infof("Server address: %s", cfg.ServerAddr)
	log.Infof("Player name: %s", cfg.PlayerName)
	log.Infof("Map cache: %s (zone %s)", cfg.CacheDir, cfg.MapZone)

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		for _, c := range metrics.Registry() {
			reg.MustRegister(c)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Warnf("metrics server stopped: %v", err)
			}
		}()
		log.Infof("Metrics listening on %s/metrics", cfg.MetricsAddr)
	}

	conn, err := engine.Dial(cfg.ServerAddr)
	if err != nil {
		log.Fatalf("dialing server: %v", err)
	}
	store := mapcache.NewStore(cfg.CacheDir)
	sess := engine.NewSession(conn, store, mapcache.ZlibDecompressor{})
	sess.Login(engine.Credentials{
		Name:         cfg.PlayerName,
		Password:     cfg.Password,
		MachineID:    cfg.MachineID,
		Timezone:     cfg.Timezone,
		PermissionID: cfg.PermissionID,
		Registration: message.RegistrationForm{
			RealName: cfg.RegistrationRealName,
			Email:    cfg.RegistrationEmail,
			Sex:      message.RegistrationMale,
		},
	})

	if err := conn.BeginHandshake(); err != nil {
		log.Fatalf("beginning encryption handshake: %v", err)
	}
	log.Infof("Encryption handshake sent, client key %#x", conn.ClientKey())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	errChan := make(chan error, 1)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			if err := sess.Pump(clock.Now()); err != nil {
				errChan <- err
				return
			}
			for _, ev := range sess.Events() {
				logEvent(ev)
			}
		}
	}()

	select {
	case err := <-errChan:
		log.Errorf("engine error: %v", err)
		os.Exit(1)
	case sig := <-sigChan:
		log.Warnf("received signal: %v", sig)
		log.Infof("shutting down gracefully...")
		if err := sess.Disconnect(); err != nil {
			log.Errorf("disconnect: %v", err)
		}
		time.Sleep(200 * time.Millisecond)
		log.Infof("stopped")
	}
}

func logEvent(ev engine.Event) {
	switch e := ev.(type) {
	case engine.StateChanged:
		log.Infof("state: %s -> %s", e.From, e.To)
	case engine.LoggedIn:
		log.Infof("login accepted: %s", e.Response.Response)
	case engine.LoginFailed:
		log.Warnf("login rejected: %s", e.Response.Response)
	case engine.ArenaSettingsReceived:
		log.Debugf("arena settings received")
	case engine.MapReady:
		log.Infof("map ready: %s", e.Map.Filename)
	case engine.PlayerEntered:
		log.Infof("player entered: %s", e.Player.Name)
	case engine.PlayerLeft:
		log.Infof("player left: %s", e.Player.Name)
	case engine.ChatReceived:
		log.Infof("chat: %s", e.Text)
	case engine.SecurityChallenge:
		log.Debugf("security challenge answered")
	case engine.Disconnected:
		if e.Err != nil {
			log.Errorf("disconnected: %v", e.Err)
		} else {
			log.Infof("disconnected")
		}
	}
}

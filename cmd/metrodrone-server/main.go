// ABOUTME: Entry point for the headless metrodrone control server
// ABOUTME: Parses CLI flags and serves an engine over WebSocket with mDNS
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/metrodrone/metrodrone-go/internal/config"
	"github.com/metrodrone/metrodrone-go/internal/server"
	"github.com/metrodrone/metrodrone-go/pkg/audio/output"
	"github.com/metrodrone/metrodrone-go/pkg/metrodrone"
	"github.com/metrodrone/metrodrone-go/pkg/render"
)

var (
	port       = flag.Int("port", server.DefaultPort, "WebSocket server port")
	name       = flag.String("name", "", "Server friendly name (default: hostname-metrodrone)")
	configPath = flag.String("config", "", "Preset file with initial settings")
	clicksDir  = flag.String("clicks", "", "Directory with tick, accent and strong_accent samples")
	logFile    = flag.String("log-file", "metrodrone-server.log", "Log file path")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	noAudio    = flag.Bool("no-audio", false, "Render on a wall clock without an audio device")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	// Determine server name
	serverName := *name
	if serverName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serverName = fmt.Sprintf("%s-metrodrone", hostname)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *clicksDir != "" {
		cfg.ClicksDir = *clicksDir
	}

	var clicks *render.ClickBank
	if cfg.ClicksDir != "" {
		if clicks, err = render.LoadClicks(cfg.ClicksDir); err != nil {
			log.Printf("Falling back to synthesized clicks: %v", err)
		}
	}

	var sink output.Sink = output.NewOto(output.DefaultOtoBuffer)
	if *noAudio {
		sink = output.NewHeadless(nil)
	}

	engine, err := metrodrone.New(metrodrone.Config{
		Sink:     sink,
		Clicks:   clicks,
		Settings: cfg.Settings,
	})
	if err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}
	defer engine.Close()

	log.Printf("Starting Metrodrone Server: %s on port %d", serverName, *port)
	log.Printf("Logging to: %s", *logFile)

	srv := server.New(server.Config{
		Port:       *port,
		Name:       serverName,
		EnableMDNS: !*noMDNS,
		UseTUI:     useTUI,
		Engine:     engine,
	})

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Printf("Server stopped")
}

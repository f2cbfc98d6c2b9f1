// ABOUTME: Entry point for the metrodrone player
// ABOUTME: Parses CLI flags, builds the engine and runs the TUI and control server
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/metrodrone/metrodrone-go/internal/app"
	"github.com/metrodrone/metrodrone-go/internal/config"
	"github.com/metrodrone/metrodrone-go/internal/server"
	"github.com/metrodrone/metrodrone-go/internal/version"
	"github.com/metrodrone/metrodrone-go/pkg/audio/output"
	"github.com/metrodrone/metrodrone-go/pkg/metrodrone"
	"github.com/metrodrone/metrodrone-go/pkg/render"
)

var (
	configPath  = flag.String("config", "", "Preset file (default: ~/.config/metrodrone/config.json)")
	clicksDir   = flag.String("clicks", "", "Directory with tick, accent and strong_accent samples")
	headless    = flag.Bool("headless", false, "Render on a wall clock without an audio device")
	serve       = flag.Bool("serve", false, "Also run the WebSocket control server")
	port        = flag.Int("port", 0, "Control server port (default from config)")
	name        = flag.String("name", "", "Control server name (default from config)")
	noMDNS      = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	startMetro  = flag.Bool("metronome", false, "Start the metronome immediately")
	startDrone  = flag.Bool("drone", false, "Start the drone immediately")
	noSave      = flag.Bool("no-save", false, "Do not write settings back to the preset file on exit")
	logFile     = flag.String("log-file", "metrodrone.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	path := *configPath
	if path == "" {
		path, err = config.ConfigPath()
		if err != nil {
			log.Fatalf("Failed to locate config: %v", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *clicksDir != "" {
		cfg.ClicksDir = *clicksDir
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *name != "" {
		cfg.Server.Name = *name
	}

	var clicks *render.ClickBank
	if cfg.ClicksDir != "" {
		clicks, err = render.LoadClicks(cfg.ClicksDir)
		if err != nil {
			log.Printf("Falling back to synthesized clicks: %v", err)
		}
	}

	var sink output.Sink
	if *headless {
		sink = output.NewHeadless(nil)
	} else {
		sink = output.NewOto(output.DefaultOtoBuffer)
	}
	volume, _ := sink.(output.VolumeControl)
	if volume != nil {
		volume.SetVolume(cfg.Volume)
	}

	engine, err := metrodrone.New(metrodrone.Config{
		Sink:     sink,
		Clicks:   clicks,
		Settings: cfg.Settings,
	})
	if err != nil {
		log.Fatalf("Invalid settings in %s: %v", path, err)
	}
	defer engine.Close()

	if *startMetro {
		if err := engine.StartMetronome(); err != nil {
			log.Printf("Metronome did not start: %v", err)
		}
	}
	if *startDrone {
		if err := engine.StartDrone(); err != nil {
			log.Printf("Drone did not start: %v", err)
		}
	}

	var srv *server.Server
	if *serve {
		srv = server.New(server.Config{
			Port:       cfg.Server.Port,
			Name:       cfg.Server.Name,
			EnableMDNS: !*noMDNS,
			Engine:     engine,
		})
	}

	application := app.New(app.Config{
		Engine: engine,
		Volume: volume,
		Server: srv,
		UseTUI: useTUI,
	})

	if !useTUI {
		log.Printf("Starting %s %s", version.Product, version.Version)
		log.Printf("TUI disabled - press Ctrl-C to stop")
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down", sig)
		application.Stop()
	}()

	if err := application.Run(); err != nil {
		log.Printf("Application error: %v", err)
	}

	if !*noSave {
		cfg.Settings = engine.Settings()
		if volume != nil {
			cfg.Volume = volume.Volume()
		}
		if err := cfg.Save(path); err != nil {
			log.Printf("Failed to save settings: %v", err)
		}
	}

	log.Printf("Metrodrone stopped")
}

// Command sg-server runs the SocialGossip server: TCP protocol
// endpoint, websocket bridge, and internal metrics.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GTX96/SocialGossip/pkg/server"
	"github.com/GTX96/SocialGossip/pkg/translate"
)

func main() {
	configPath := flag.String("config", "~/.config/socialgossip/server.toml", "path to config file")
	tcpPort := flag.Int("port", 0, "TCP port override (0 = use config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	tomlConfig, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	config := server.FromTOML(tomlConfig)
	if *tcpPort != 0 {
		config.TCPPort = *tcpPort
	}

	srv, err := server.NewServer(config)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	if *debug {
		srv.EnableDebugLogging()
	}

	if tomlConfig.Translate.Enabled {
		timeout := time.Duration(tomlConfig.Translate.TimeoutSeconds) * time.Second
		srv.SetTranslator(translate.NewMyMemory(tomlConfig.Translate.Endpoint, timeout))
	}

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %v, shutting down", sig)

	if err := srv.Stop(); err != nil {
		log.Printf("Shutdown error: %v", err)
		os.Exit(1)
	}
}

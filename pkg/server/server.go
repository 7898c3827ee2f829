package server

import (
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GTX96/SocialGossip/pkg/chatroom"
	"github.com/GTX96/SocialGossip/pkg/network"
	"github.com/GTX96/SocialGossip/pkg/translate"
)

var (
	errorLog *log.Logger
	debugLog *log.Logger
)

// Server is the SocialGossip server: it owns the user registry, the
// chat room registry, and the listening sockets, and it runs one
// session task per inbound connection.
type Server struct {
	users      *network.Registry
	access     *network.AccessSession
	rooms      *chatroom.Registry
	translator translate.Translator

	config   ServerConfig
	listener net.Listener
	shutdown chan struct{}
	wg       sync.WaitGroup
	metrics  *Metrics

	nextSessionID atomic.Uint64
	sessionsMu    sync.Mutex
	sessions      map[uint64]*Session

	// connSem bounds the number of concurrently served connections
	// when MaxConnections > 0.
	connSem chan struct{}
}

// NewServer creates a new server instance.
func NewServer(config ServerConfig) (*Server, error) {
	users := network.NewRegistry()

	rooms, err := chatroom.NewRegistry(config.FirstMulticastAddr, users)
	if err != nil {
		return nil, err
	}

	if err := initLoggers(); err != nil {
		return nil, fmt.Errorf("failed to initialize loggers: %w", err)
	}

	s := &Server{
		users:      users,
		access:     network.NewAccessSession(users),
		rooms:      rooms,
		translator: translate.Noop{},
		config:     config,
		shutdown:   make(chan struct{}),
		metrics:    NewMetrics(),
		sessions:   make(map[uint64]*Session),
	}
	if config.MaxConnections > 0 {
		s.connSem = make(chan struct{}, config.MaxConnections)
	}

	return s, nil
}

// SetTranslator replaces the message translator (Noop by default).
func (s *Server) SetTranslator(t translate.Translator) {
	s.translator = t
}

// getServerDataDir returns the server data directory, creating it if needed.
func getServerDataDir() (string, error) {
	var dataDir string
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		dataDir = filepath.Join(xdg, "socialgossip")
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share", "socialgossip")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}

// initLoggers sets up error and debug loggers.
func initLoggers() error {
	if errorLog != nil {
		return nil
	}

	dataDir, err := getServerDataDir()
	if err != nil {
		return err
	}

	errorLogPath := filepath.Join(dataDir, "errors.log")
	errorFile, err := os.OpenFile(errorLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}

	// Startup marker distinguishes runs in the shared append-only log
	startupMsg := fmt.Sprintf("=== Server started at %s ===\n", time.Now().Format(time.RFC3339))
	if _, err := errorFile.WriteString(startupMsg); err != nil {
		return err
	}

	errorLog = log.New(io.MultiWriter(os.Stderr, errorFile), "ERROR: ", log.LstdFlags)
	debugLog = log.New(io.Discard, "DEBUG: ", log.LstdFlags)

	return nil
}

// EnableDebugLogging enables debug logging to debug.log.
func (s *Server) EnableDebugLogging() {
	dataDir, err := getServerDataDir()
	if err != nil {
		log.Printf("Failed to get data directory: %v", err)
		return
	}

	debugLogPath := filepath.Join(dataDir, "debug.log")
	debugLogFile, err := os.OpenFile(debugLogPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		log.Printf("Failed to open debug.log: %v", err)
		return
	}

	debugLog = log.New(debugLogFile, "DEBUG: ", log.LstdFlags)
	debugLog.Println("Debug logging enabled")
}

// Start opens the TCP listener and the HTTP surfaces and begins
// accepting connections.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.TCPPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	log.Printf("TCP listener on %s", listener.Addr())

	// Metrics HTTP server (internal only - never expose publicly!)
	if s.config.MetricsPort > 0 {
		go func() {
			metricsMux := http.NewServeMux()
			metricsMux.Handle("/metrics", s.metrics.Handler())
			addr := fmt.Sprintf(":%d", s.config.MetricsPort)
			log.Printf("Metrics server listening on %s (/metrics) - INTERNAL ONLY", addr)
			if err := http.ListenAndServe(addr, metricsMux); err != nil {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Public websocket bridge carrying the same framed protocol
	if s.config.HTTPPort > 0 {
		go func() {
			publicMux := http.NewServeMux()
			publicMux.HandleFunc("/ws", s.HandleWebSocket)
			addr := fmt.Sprintf(":%d", s.config.HTTPPort)
			log.Printf("Public HTTP server listening on %s (/ws)", addr)
			if err := http.ListenAndServe(addr, publicMux); err != nil {
				log.Printf("Public HTTP server error: %v", err)
			}
		}()
	}

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Addr returns the TCP listener address (useful with port 0).
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	log.Println("Graceful shutdown initiated...")

	close(s.shutdown)

	if s.listener != nil {
		s.listener.Close()
		s.listener = nil
		log.Println("TCP listener closed")
	}

	// Close request sessions, then any standing notification channels
	s.closeAllSessions()
	s.users.ForEach(func(u *network.User) {
		u.ClearChannel(nil)
	})

	// Stop every room dispatcher and wait for connection tasks
	s.rooms.CloseAll()
	s.wg.Wait()

	log.Println("Graceful shutdown complete")
	return nil
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				log.Printf("Accept error: %v", err)
				continue
			}
		}

		if s.connSem != nil {
			s.connSem <- struct{}{}
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if s.connSem != nil {
				defer func() { <-s.connSem }()
			}
			s.handleConnection(conn)
		}()
	}
}

// handleConnection sets up a session for an accepted connection and
// runs its request loop.
func (s *Server) handleConnection(conn net.Conn) {
	// Disable Nagle's algorithm for immediate sends
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}

	sess := s.addSession(conn)
	s.metrics.ConnectionOpened()
	debugLog.Printf("New connection from %s (session %d)", conn.RemoteAddr(), sess.ID)

	s.messageLoop(sess)
}

func (s *Server) addSession(conn net.Conn) *Session {
	sess := &Session{
		ID:         s.nextSessionID.Add(1),
		Conn:       NewSafeConn(conn),
		RemoteAddr: conn.RemoteAddr().String(),
	}

	s.sessionsMu.Lock()
	s.sessions[sess.ID] = sess
	s.sessionsMu.Unlock()

	return sess
}

func (s *Server) removeSession(sessionID uint64) {
	s.sessionsMu.Lock()
	delete(s.sessions, sessionID)
	s.sessionsMu.Unlock()
}

func (s *Server) closeAllSessions() {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	for _, sess := range s.sessions {
		sess.Conn.Close()
	}
	s.sessions = make(map[uint64]*Session)
}

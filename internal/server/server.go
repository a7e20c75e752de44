// Package server exposes tables over HTTP and WebSocket. It is a thin
// translation layer: every command is forwarded to a table actor and every
// snapshot the actor publishes is forwarded to the connections watching it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/lox/pokertable/internal/bankroll"
	"github.com/lox/pokertable/internal/bot"
	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/randutil"
	"github.com/lox/pokertable/internal/table"
)

// Server represents the HTTP and WebSocket front of a set of tables
type Server struct {
	cfg      *ServerConfig
	tables   *table.Manager
	bank     bankroll.Store
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	connections map[*Connection]struct{}
}

// NewServer creates a server for tables. bank may be nil.
func NewServer(cfg *ServerConfig, tables *table.Manager, bank bankroll.Store, logger *log.Logger) *Server {
	return &Server{
		cfg:    cfg,
		tables: tables,
		bank:   bank,
		logger: logger.WithPrefix("server"),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]struct{}),
	}
}

// NewTables builds every configured table on clock. Tables share bank.
func NewTables(cfg *ServerConfig, bank bankroll.Store, clock quartz.Clock, logger *log.Logger) (*table.Manager, error) {
	m := table.NewManager(logger)
	for i, tc := range cfg.Tables {
		tcfg, err := tc.Table()
		if err != nil {
			return nil, err
		}
		engineOpts := []engine.Option{engine.WithRNG(randutil.New(seedFor(cfg.Server.Seed, i)))}
		if bank != nil {
			engineOpts = append(engineOpts, engine.WithBankroll(bank))
		}
		if tc.BotSideTopUp > 0 {
			engineOpts = append(engineOpts, engine.WithBotSideTopUp(tc.BotSideTopUp))
		}
		t, err := table.New(tcfg,
			table.WithClock(clock),
			table.WithLogger(logger),
			table.WithEngineOptions(engineOpts...),
		)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", tc.Name, err)
		}
		if err := m.Add(t); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// seedFor derives a per-table seed; a zero base seeds from the OS.
func seedFor(base int64, i int) int64 {
	if base == 0 {
		return randutil.Seed()
	}
	return base + int64(i)*7919
}

// SeatBots seats the configured bots. The tables must be running.
func (s *Server) SeatBots(ctx context.Context) error {
	for i, bc := range s.cfg.Bots {
		for _, tableName := range bc.Tables {
			t, err := s.tables.Get(tableName)
			if err != nil {
				return err
			}
			for n := range bc.Count {
				id := bc.Name
				if bc.Count > 1 {
					id = fmt.Sprintf("%s-%d", bc.Name, n+1)
				}
				if len(bc.Tables) > 1 {
					id = tableName + "/" + id
				}
				if err := s.fundBot(ctx, id, bc.BuyIn+bc.SideDeposit); err != nil {
					return err
				}
				rng := randutil.New(seedFor(s.cfg.Server.Seed, 1000+i*100+n))
				strategy, err := bot.New(bc.Strategy, rng, s.logger)
				if err != nil {
					return err
				}
				seat, err := t.SeatBot(ctx, engine.Player{ID: id, Name: id}, strategy, nil, bc.BuyIn, bc.SideDeposit)
				if err != nil {
					return fmt.Errorf("bot %s at %s: %w", id, tableName, err)
				}
				s.logger.Info("Bot seated", "bot", id, "table", tableName, "seat", seat, "strategy", bc.Strategy)
			}
		}
	}
	return nil
}

// fundBot makes sure the house-backed bot can cover amount.
func (s *Server) fundBot(ctx context.Context, playerID string, amount int64) error {
	if s.bank == nil {
		return nil
	}
	balance, err := s.bank.Balance(ctx, playerID)
	if err != nil && !errors.Is(err, bankroll.ErrUnknownPlayer) {
		return err
	}
	if balance >= amount {
		return nil
	}
	return s.bank.Credit(ctx, playerID, amount-balance)
}

// ensureAccount opens a bankroll account with the starting balance the
// first time a player connects.
func (s *Server) ensureAccount(ctx context.Context, playerID string) error {
	if s.bank == nil || s.cfg.Bankroll == nil || s.cfg.Bankroll.StartingBalance <= 0 {
		return nil
	}
	_, err := s.bank.Balance(ctx, playerID)
	if errors.Is(err, bankroll.ErrUnknownPlayer) {
		s.logger.Info("Opening bankroll", "player", playerID, "balance", s.cfg.Bankroll.StartingBalance)
		return s.bank.Credit(ctx, playerID, s.cfg.Bankroll.StartingBalance)
	}
	return err
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/tables", s.handleListTables)
	r.Get("/tables/{id}", s.handleGetTable)
	r.Get("/ws", s.handleWebSocket)
	return r
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.GetServerAddress(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) closeAll() {
	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.connections))
	for c := range s.connections {
		conns = append(conns, c)
	}
	s.mu.RUnlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "tables": len(s.tables.List())})
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables := s.tables.List()
	out := make([]TableSummary, 0, len(tables))
	for _, t := range tables {
		out = append(out, summarize(t.Snapshot()))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	t, err := s.tables.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, ErrorData{Code: errorCode(err), Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot().ForViewer(r.URL.Query().Get("player")))
}

// handleWebSocket upgrades a connection for the player named in the
// player query parameter.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorData{Code: "missing_player", Message: "player query parameter required"})
		return
	}
	if err := s.ensureAccount(r.Context(), playerID); err != nil {
		s.logger.Error("Failed to open bankroll", "player", playerID, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorData{Code: "bankroll", Message: err.Error()})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, playerID, s.tables, s.logger)
	s.mu.Lock()
	s.connections[client] = struct{}{}
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "player", playerID, "total", total)

	client.Start()
	go func() {
		<-client.Done()
		s.mu.Lock()
		delete(s.connections, client)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("Client disconnected", "player", playerID, "total", total)
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package server

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/pokertable/internal/bot"
	"github.com/lox/pokertable/internal/engine"
	"github.com/lox/pokertable/internal/rules"
	"github.com/lox/pokertable/internal/table"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server   ServerSettings  `hcl:"server,block"`
	Bankroll *BankrollConfig `hcl:"bankroll,block"`
	Tables   []TableConfig   `hcl:"table,block"`
	Bots     []BotConfig     `hcl:"bot,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	// Seed fixes every table's RNG; zero seeds from the OS.
	Seed int64 `hcl:"seed,optional"`
}

// BankrollConfig selects the external bankroll. Without the block,
// players sit with chips that come from nowhere.
type BankrollConfig struct {
	Driver          string `hcl:"driver,optional"`
	DSN             string `hcl:"dsn"`
	StartingBalance int64  `hcl:"starting_balance,optional"`
}

// TableConfig defines a table
type TableConfig struct {
	Name          string        `hcl:"name,label"`
	Variant       string        `hcl:"variant,optional"`
	Seats         int           `hcl:"seats,optional"`
	SmallBlind    int64         `hcl:"small_blind"`
	BigBlind      int64         `hcl:"big_blind"`
	BuyInMin      int64         `hcl:"buy_in_min,optional"`
	BuyInMax      int64         `hcl:"buy_in_max,optional"`
	Ante          int64         `hcl:"ante,optional"`
	Bounty        int64         `hcl:"bounty,optional"`
	AutoStart     bool          `hcl:"auto_start,optional"`
	TurnTimeout   string        `hcl:"turn_timeout,optional"`
	ThinkDelay    string        `hcl:"think_delay,optional"`
	ShowdownDelay string        `hcl:"showdown_delay,optional"`
	FoldDelay     string        `hcl:"fold_delay,optional"`
	HandsPerLevel int           `hcl:"hands_per_level,optional"`
	BotSideTopUp  int64         `hcl:"bot_side_top_up,optional"`
	Levels        []LevelConfig `hcl:"level,block"`
}

// LevelConfig is one step of a table's blind schedule.
type LevelConfig struct {
	SmallBlind int64  `hcl:"small_blind"`
	BigBlind   int64  `hcl:"big_blind"`
	Variant    string `hcl:"variant,optional"`
	Ante       int64  `hcl:"ante,optional"`
	Bounty     int64  `hcl:"bounty,optional"`
}

// BotConfig seats automated players at tables
type BotConfig struct {
	Name        string   `hcl:"name,label"`
	Strategy    string   `hcl:"strategy"`
	Tables      []string `hcl:"tables,optional"`
	Count       int      `hcl:"count,optional"`
	BuyIn       int64    `hcl:"buy_in,optional"`
	SideDeposit int64    `hcl:"side_deposit,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	config := &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Tables: []TableConfig{
			{
				Name:       "main",
				Variant:    rules.HoldemName,
				SmallBlind: 5,
				BigBlind:   10,
				AutoStart:  true,
			},
		},
		Bots: []BotConfig{
			{
				Name:     "caller",
				Strategy: bot.CallName,
				Tables:   []string{"main"},
			},
		},
	}
	config.applyDefaults()
	return config
}

// LoadServerConfig loads server configuration from HCL file
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(file.Body)
}

// ParseServerConfig parses configuration from HCL source.
func ParseServerConfig(src []byte, filename string) (*ServerConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decode(file.Body)
}

func decode(body hcl.Body) (*ServerConfig, error) {
	var config ServerConfig
	if diags := gohcl.DecodeBody(body, nil, &config); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	config.applyDefaults()
	return &config, nil
}

func (c *ServerConfig) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Bankroll != nil && c.Bankroll.Driver == "" {
		c.Bankroll.Driver = "sqlite"
	}

	for i := range c.Tables {
		t := &c.Tables[i]
		if t.Variant == "" {
			t.Variant = rules.HoldemName
		}
		if t.Seats == 0 {
			t.Seats = 6
		}
		if t.BuyInMin == 0 {
			t.BuyInMin = t.BigBlind * 20
		}
		if t.BuyInMax == 0 {
			t.BuyInMax = t.BigBlind * 200
		}
	}

	for i := range c.Bots {
		b := &c.Bots[i]
		if b.Strategy == "" {
			b.Strategy = bot.CallName
		}
		if b.Count == 0 {
			b.Count = 1
		}
		if len(b.Tables) == 0 {
			for _, t := range c.Tables {
				b.Tables = append(b.Tables, t.Name)
			}
		}
		if b.BuyIn == 0 {
			for _, name := range b.Tables {
				if t := c.GetTableByName(name); t != nil {
					b.BuyIn = max(b.BuyIn, t.BigBlind*100)
				}
			}
		}
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Bankroll != nil && c.Bankroll.StartingBalance < 0 {
		return fmt.Errorf("bankroll starting balance must not be negative")
	}

	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}

	variants := rules.NewRegistry().Names()
	seen := make(map[string]bool, len(c.Tables))
	for _, t := range c.Tables {
		if seen[t.Name] {
			return fmt.Errorf("table %s: defined twice", t.Name)
		}
		seen[t.Name] = true
		if t.SmallBlind <= 0 {
			return fmt.Errorf("table %s: small blind must be positive", t.Name)
		}
		if t.BigBlind < t.SmallBlind {
			return fmt.Errorf("table %s: big blind must be at least the small blind", t.Name)
		}
		if t.Seats < 2 || t.Seats > 10 {
			return fmt.Errorf("table %s: seats must be between 2 and 10", t.Name)
		}
		if t.BuyInMin > t.BuyInMax {
			return fmt.Errorf("table %s: buy-in minimum must not exceed maximum", t.Name)
		}
		if !slices.Contains(variants, t.Variant) {
			return fmt.Errorf("table %s: unknown variant %s", t.Name, t.Variant)
		}
		for _, d := range []string{t.TurnTimeout, t.ThinkDelay, t.ShowdownDelay, t.FoldDelay} {
			if _, err := parseDuration(d); err != nil {
				return fmt.Errorf("table %s: %w", t.Name, err)
			}
		}
		for i, l := range t.Levels {
			if l.SmallBlind <= 0 || l.BigBlind < l.SmallBlind {
				return fmt.Errorf("table %s: level %d: invalid blinds %d/%d", t.Name, i+1, l.SmallBlind, l.BigBlind)
			}
			if l.Variant != "" && !slices.Contains(variants, l.Variant) {
				return fmt.Errorf("table %s: level %d: unknown variant %s", t.Name, i+1, l.Variant)
			}
		}
	}

	for _, b := range c.Bots {
		if !slices.Contains(bot.Names(), b.Strategy) {
			return fmt.Errorf("bot %s: invalid strategy %s", b.Name, b.Strategy)
		}
		if b.BuyIn <= 0 {
			return fmt.Errorf("bot %s: buy-in must be positive", b.Name)
		}
		if b.Count < 1 {
			return fmt.Errorf("bot %s: count must be positive", b.Name)
		}
		for _, name := range b.Tables {
			if !seen[name] {
				return fmt.Errorf("bot %s: unknown table %s", b.Name, name)
			}
		}
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// GetTableByName returns a table configuration by name
func (c *ServerConfig) GetTableByName(name string) *TableConfig {
	for i := range c.Tables {
		if c.Tables[i].Name == name {
			return &c.Tables[i]
		}
	}
	return nil
}

// GetBotsForTable returns all bots configured for a specific table
func (c *ServerConfig) GetBotsForTable(tableName string) []BotConfig {
	var bots []BotConfig
	for _, b := range c.Bots {
		if slices.Contains(b.Tables, tableName) {
			bots = append(bots, b)
		}
	}
	return bots
}

// Table converts a table block into the actor's configuration.
func (t TableConfig) Table() (table.Config, error) {
	cfg := table.Config{
		ID: t.Name,
		Engine: engine.Config{
			Name:       t.Name,
			Seats:      t.Seats,
			SmallBlind: t.SmallBlind,
			BigBlind:   t.BigBlind,
			MinBuyIn:   t.BuyInMin,
			MaxBuyIn:   t.BuyInMax,
			Variant:    t.Variant,
			Options:    rules.Options{Ante: t.Ante, Bounty: t.Bounty},
		},
		AutoStart:     t.AutoStart,
		HandsPerLevel: t.HandsPerLevel,
	}

	var err error
	durations := []struct {
		src string
		dst *time.Duration
	}{
		{t.TurnTimeout, &cfg.TurnTimeout},
		{t.ThinkDelay, &cfg.ThinkDelay},
		{t.ShowdownDelay, &cfg.ShowdownDelay},
		{t.FoldDelay, &cfg.FoldDelay},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(d.src); err != nil {
			return table.Config{}, fmt.Errorf("table %s: %w", t.Name, err)
		}
	}
	if t.ThinkDelay == "" {
		cfg.ThinkDelay = table.DefaultThinkDelay
	}

	for _, l := range t.Levels {
		cfg.Levels = append(cfg.Levels, engine.BlindLevel{
			SmallBlind: l.SmallBlind,
			BigBlind:   l.BigBlind,
			Variant:    l.Variant,
			Options:    rules.Options{Ante: l.Ante, Bounty: l.Bounty},
		})
	}
	return cfg, nil
}

// parseDuration accepts Go duration strings; empty means unset.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

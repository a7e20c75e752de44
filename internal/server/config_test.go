package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokertable/internal/rules"
)

const sampleConfig = `
server {
  port = 9090
  seed = 42
}

bankroll {
  dsn              = "file::memory:"
  starting_balance = 5000
}

table "deuces" {
  variant       = "deuce-seven"
  small_blind   = 10
  big_blind     = 20
  bounty        = 100
  turn_timeout  = "15s"
  think_delay   = "0s"
  auto_start    = true

  level {
    small_blind = 10
    big_blind   = 20
  }
  level {
    small_blind = 20
    big_blind   = 40
    variant     = "omaha"
  }
}

table "bombs" {
  variant     = "bomb-pot"
  small_blind = 5
  big_blind   = 10
  ante        = 25
  seats       = 4
}

bot "station" {
  strategy = "call"
  tables   = ["bombs"]
  count    = 2
}
`

func TestParseServerConfig(t *testing.T) {
	t.Parallel()

	cfg, err := ParseServerConfig([]byte(sampleConfig), "test.hcl")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "localhost:9090", cfg.GetServerAddress())
	require.NotNil(t, cfg.Bankroll)
	assert.Equal(t, "sqlite", cfg.Bankroll.Driver)
	assert.Equal(t, int64(5000), cfg.Bankroll.StartingBalance)

	deuces := cfg.GetTableByName("deuces")
	require.NotNil(t, deuces)
	assert.Equal(t, 6, deuces.Seats)
	assert.Equal(t, int64(400), deuces.BuyInMin)
	assert.Equal(t, int64(4000), deuces.BuyInMax)

	tcfg, err := deuces.Table()
	require.NoError(t, err)
	assert.Equal(t, "deuces", tcfg.ID)
	assert.Equal(t, rules.DeuceSevenName, tcfg.Engine.Variant)
	assert.Equal(t, int64(100), tcfg.Engine.Options.Bounty)
	assert.Equal(t, 15*time.Second, tcfg.TurnTimeout)
	assert.Zero(t, tcfg.ThinkDelay)
	assert.True(t, tcfg.AutoStart)
	require.Len(t, tcfg.Levels, 2)
	assert.Equal(t, rules.OmahaName, tcfg.Levels[1].Variant)

	bots := cfg.GetBotsForTable("bombs")
	require.Len(t, bots, 1)
	assert.Equal(t, 2, bots[0].Count)
	assert.Equal(t, int64(1000), bots[0].BuyIn, "a hundred big blinds by default")
	assert.Empty(t, cfg.GetBotsForTable("deuces"))
}

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultServerConfig()
	require.NoError(t, cfg.Validate())

	tcfg, err := cfg.Tables[0].Table()
	require.NoError(t, err)
	assert.Positive(t, tcfg.ThinkDelay, "bots pause before acting unless configured not to")
}

func TestValidateRejectsBadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"bad port", func(c *ServerConfig) { c.Server.Port = 70000 }},
		{"no tables", func(c *ServerConfig) { c.Tables = nil; c.Bots = nil }},
		{"inverted blinds", func(c *ServerConfig) { c.Tables[0].BigBlind = 1 }},
		{"unknown variant", func(c *ServerConfig) { c.Tables[0].Variant = "pineapple" }},
		{"too many seats", func(c *ServerConfig) { c.Tables[0].Seats = 12 }},
		{"bad duration", func(c *ServerConfig) { c.Tables[0].TurnTimeout = "soon" }},
		{"unknown strategy", func(c *ServerConfig) { c.Bots[0].Strategy = "chart" }},
		{"bot at unknown table", func(c *ServerConfig) { c.Bots[0].Tables = []string{"side"} }},
		{"duplicate table", func(c *ServerConfig) { c.Tables = append(c.Tables, c.Tables[0]) }},
		{"bad level", func(c *ServerConfig) {
			c.Tables[0].Levels = []LevelConfig{{SmallBlind: 10, BigBlind: 5}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultServerConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadServerConfigMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadServerConfig(t.TempDir() + "/missing.hcl")
	require.NoError(t, err)
	assert.Equal(t, DefaultServerConfig(), cfg)
}

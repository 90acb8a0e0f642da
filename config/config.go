package config

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/viper"

	"github.com/kasuganosora/stalker/game/ai"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Sim      SimConfig      `mapstructure:"sim"`
	Agent    AgentConfig    `mapstructure:"agent"`
}

type ServerConfig struct {
	Port           int     `mapstructure:"port"`
	Debug          bool    `mapstructure:"debug"`
	AdminKey       string  `mapstructure:"admin_key"` // empty disables debug commands
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql | none
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr      string `mapstructure:"redis_addr"` // empty selects the in-process pubsub
	RedisPassword  string `mapstructure:"redis_password"`
	RedisDB        int    `mapstructure:"redis_db"`
	LocalPubSubBuf int    `mapstructure:"local_pubsub_buf"`
	RelayChannel   string `mapstructure:"relay_channel"`
}

type SimConfig struct {
	TickMs         int           `mapstructure:"tick_ms"`
	LevelPath      string        `mapstructure:"level_path"`
	Seed           int64         `mapstructure:"seed"`
	StatusInterval time.Duration `mapstructure:"status_interval"`
}

// TickInterval returns the loop period.
func (s SimConfig) TickInterval() time.Duration {
	return time.Duration(s.TickMs) * time.Millisecond
}

// AgentConfig is the operator-facing agent tuning: angles in degrees,
// durations as time.Duration.
type AgentConfig struct {
	ViewAngleDeg      float64       `mapstructure:"view_angle_deg"`
	ViewDistance      float64       `mapstructure:"view_distance"`
	HearingRadius     float64       `mapstructure:"hearing_radius"`
	KillRange         float64       `mapstructure:"kill_range"`
	StareDuration     time.Duration `mapstructure:"stare_duration"`
	SearchMinDistance float64       `mapstructure:"search_min_distance"`
	SearchMaxDistance float64       `mapstructure:"search_max_distance"`
	SearchSpreadDeg   float64       `mapstructure:"search_spread_deg"`
	SearchPoints      int           `mapstructure:"search_points"`
	SearchAttempts    int           `mapstructure:"search_attempts"`
	ArriveThreshold   float64       `mapstructure:"arrive_threshold"`
	PointTimeout      time.Duration `mapstructure:"point_timeout"`
	ScanDwell         time.Duration `mapstructure:"scan_dwell"`
	ScanAngleDeg      float64       `mapstructure:"scan_angle_deg"`
	ScanOnGiveUp      bool          `mapstructure:"scan_on_give_up"`
	KillDelay         time.Duration `mapstructure:"kill_delay"`
	MoveSpeed         float64       `mapstructure:"move_speed"`
	ChaseSpeed        float64       `mapstructure:"chase_speed"`
	SnapTolerance     float64       `mapstructure:"snap_tolerance"`
}

func deg(d float64) float64 { return d * math.Pi / 180 }

// Runtime converts to the simulation form used by the agents.
func (a AgentConfig) Runtime() ai.Config {
	return ai.Config{
		ViewAngle:         deg(a.ViewAngleDeg),
		ViewDistance:      a.ViewDistance,
		HearingRadius:     a.HearingRadius,
		KillRange:         a.KillRange,
		StareDuration:     a.StareDuration.Seconds(),
		SearchMinDistance: a.SearchMinDistance,
		SearchMaxDistance: a.SearchMaxDistance,
		SearchSpread:      deg(a.SearchSpreadDeg),
		SearchPoints:      a.SearchPoints,
		SearchAttempts:    a.SearchAttempts,
		SnapTolerance:     a.SnapTolerance,
		ArriveThreshold:   a.ArriveThreshold,
		PointTimeout:      a.PointTimeout.Seconds(),
		ScanDwell:         a.ScanDwell.Seconds(),
		ScanAngle:         deg(a.ScanAngleDeg),
		ScanOnGiveUp:      a.ScanOnGiveUp,
		KillDelay:         a.KillDelay.Seconds(),
		MoveSpeed:         a.MoveSpeed,
		ChaseSpeed:        a.ChaseSpeed,
	}
}

// Validate rejects tuning the agents cannot run with.
func (a AgentConfig) Validate() error {
	if a.ViewAngleDeg > 360 {
		return fmt.Errorf("config: agent.view_angle_deg %v exceeds 360", a.ViewAngleDeg)
	}
	if err := a.Runtime().Validate(); err != nil {
		return fmt.Errorf("config: agent: %w", err)
	}
	return nil
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.rate_limit_rps", 20)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/stalker.db")
	v.SetDefault("database.mysql_max_open", 20)
	v.SetDefault("database.mysql_max_idle", 5)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("cache.relay_channel", "stalker:notifications")
	v.SetDefault("sim.tick_ms", 50)
	v.SetDefault("sim.level_path", "./levels/basement.yaml")
	v.SetDefault("sim.seed", 1)
	v.SetDefault("sim.status_interval", "10s")
	v.SetDefault("agent.view_angle_deg", 90)
	v.SetDefault("agent.view_distance", 10)
	v.SetDefault("agent.hearing_radius", 8)
	v.SetDefault("agent.kill_range", 1.2)
	v.SetDefault("agent.stare_duration", "1.5s")
	v.SetDefault("agent.search_min_distance", 3)
	v.SetDefault("agent.search_max_distance", 6)
	v.SetDefault("agent.search_spread_deg", 90)
	v.SetDefault("agent.search_points", 3)
	v.SetDefault("agent.search_attempts", 20)
	v.SetDefault("agent.arrive_threshold", 0.5)
	v.SetDefault("agent.point_timeout", "8s")
	v.SetDefault("agent.scan_dwell", "1s")
	v.SetDefault("agent.scan_angle_deg", 60)
	v.SetDefault("agent.scan_on_give_up", true)
	v.SetDefault("agent.kill_delay", "1s")
	v.SetDefault("agent.move_speed", 2.5)
	v.SetDefault("agent.chase_speed", 4)
	v.SetDefault("agent.snap_tolerance", 1)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.Sim.TickMs <= 0 {
		return nil, fmt.Errorf("config: sim.tick_ms must be positive, got %d", cfg.Sim.TickMs)
	}
	if err := cfg.Agent.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

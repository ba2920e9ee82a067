package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./pressflow.db" description:"Path to the SQLite database file"`

	// Application configuration
	SitesDir          string `long:"sites-dir" env:"SITES_DIR" default:"./sites" description:"Directory containing site seed configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler tick interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Collaborator endpoints
	GeneratorURL    string `long:"generator-url" env:"GENERATOR_URL" description:"Base URL of the content generation gateway"`
	GeneratorAPIKey string `long:"generator-api-key" env:"GENERATOR_API_KEY" description:"API key for the content generation gateway"`
	SocialRelayURL  string `long:"social-relay-url" env:"SOCIAL_RELAY_URL" description:"Base URL of the social posting relay"`
	EmailGatewayURL string `long:"email-gateway-url" env:"EMAIL_GATEWAY_URL" description:"Base URL of the email campaign gateway"`

	// Per-queue worker tuning. Media generation is slow and expensive, so those
	// queues default to a single in-flight job.
	BlogConcurrency      int `long:"blog-concurrency" env:"BLOG_CONCURRENCY" default:"2" description:"Concurrent blog jobs"`
	GraphicConcurrency   int `long:"graphic-concurrency" env:"GRAPHIC_CONCURRENCY" default:"1" description:"Concurrent social graphic jobs"`
	VideoConcurrency     int `long:"video-concurrency" env:"VIDEO_CONCURRENCY" default:"1" description:"Concurrent social video jobs"`
	EmailConcurrency     int `long:"email-concurrency" env:"EMAIL_CONCURRENCY" default:"10" description:"Concurrent email jobs"`
	BroadcastConcurrency int `long:"broadcast-concurrency" env:"BROADCAST_CONCURRENCY" default:"5" description:"Concurrent broadcast monitor jobs"`

	BlogRateMax      int `long:"blog-rate-max" env:"BLOG_RATE_MAX" default:"50" description:"Max blog jobs per rate window"`
	GraphicRateMax   int `long:"graphic-rate-max" env:"GRAPHIC_RATE_MAX" default:"10" description:"Max social graphic jobs per rate window"`
	VideoRateMax     int `long:"video-rate-max" env:"VIDEO_RATE_MAX" default:"10" description:"Max social video jobs per rate window"`
	EmailRateMax     int `long:"email-rate-max" env:"EMAIL_RATE_MAX" default:"20" description:"Max email jobs per rate window"`
	BroadcastRateMax int `long:"broadcast-rate-max" env:"BROADCAST_RATE_MAX" default:"30" description:"Max broadcast monitor jobs per rate window"`

	RateWindowMs int `long:"rate-window-ms" env:"RATE_WINDOW_MS" default:"60000" description:"Rate limit window in milliseconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Pressflow/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		SitesDir:           raw.SitesDir,
		Port:               raw.Port,
		BaseUrl:            raw.BaseUrl,
		SchedulerInterval:  raw.SchedulerInterval,
		APIAccessKey:       raw.APIAccessKey,
		GeneratorURL:       raw.GeneratorURL,
		GeneratorAPIKey:    raw.GeneratorAPIKey,
		SocialRelayURL:     raw.SocialRelayURL,
		EmailGatewayURL:    raw.EmailGatewayURL,
		BlogQueue:          QueueCfg{Concurrency: raw.BlogConcurrency, RateMax: raw.BlogRateMax, RateWindowMs: raw.RateWindowMs},
		SocialGraphicQueue: QueueCfg{Concurrency: raw.GraphicConcurrency, RateMax: raw.GraphicRateMax, RateWindowMs: raw.RateWindowMs},
		SocialVideoQueue:   QueueCfg{Concurrency: raw.VideoConcurrency, RateMax: raw.VideoRateMax, RateWindowMs: raw.RateWindowMs},
		EmailQueue:         QueueCfg{Concurrency: raw.EmailConcurrency, RateMax: raw.EmailRateMax, RateWindowMs: raw.RateWindowMs},
		BroadcastQueue:     QueueCfg{Concurrency: raw.BroadcastConcurrency, RateMax: raw.BroadcastRateMax, RateWindowMs: raw.RateWindowMs},
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}

package cfg

// QueueCfg holds the worker tuning for a single automation queue.
type QueueCfg struct {
	Concurrency  int
	RateMax      int
	RateWindowMs int
}

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	SitesDir          string
	Port              string
	BaseUrl           string
	SchedulerInterval int
	APIAccessKey      string

	// Collaborator endpoints
	GeneratorURL    string
	GeneratorAPIKey string
	SocialRelayURL  string
	EmailGatewayURL string

	// Per-queue tuning
	BlogQueue          QueueCfg
	SocialGraphicQueue QueueCfg
	SocialVideoQueue   QueueCfg
	EmailQueue         QueueCfg
	BroadcastQueue     QueueCfg

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

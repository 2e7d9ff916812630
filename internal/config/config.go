package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	DBPath   string `envconfig:"DB_PATH" default:"./data/companion.db"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error

	// Event timezone; conference days roll over at local midnight here.
	EventTZ string `envconfig:"EVENT_TZ" default:"Asia/Dubai"`

	// Notification vendor credentials.
	OneSignalAppID  string `envconfig:"ONESIGNAL_APP_ID" required:"true"`
	OneSignalAPIKey string `envconfig:"ONESIGNAL_API_KEY" required:"true"`
	OneSignalURL    string `envconfig:"ONESIGNAL_URL" default:""` // override for testing

	// Reminder scheduling. With the defaults a tick runs every minute and
	// reminds for sessions starting in [now+5m, now+6m).
	TickInterval   time.Duration `envconfig:"TICK_INTERVAL" default:"1m"`
	ReminderLead   time.Duration `envconfig:"REMINDER_LEAD" default:"5m"`
	ReminderWindow time.Duration `envconfig:"REMINDER_WINDOW" default:"1m"`

	// Cadence of the timeline watcher that logs live/up-next transitions.
	TimelineInterval time.Duration `envconfig:"TIMELINE_INTERVAL" default:"30s"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

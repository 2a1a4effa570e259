package types

import "time"

type RelaysConfig struct {
	Uris []string
}

type FeedConfig struct {
	Tags       []string
	DebounceMs int `default:"1500"`
	MaxItems   int `default:"500"`
}

type SignerConfig struct {
	SK string
}

type DraftsConfig struct {
	Path string `default:"/var/data/note-exte/drafts.db"`
}

type LogConfig struct {
	Level string `default:"info"`
	Path  string `default:"console"`
}

type ServerConfig struct {
	Listen string `default:":8080"`
}

type Config struct {
	Log    LogConfig
	Relays RelaysConfig
	Feed   FeedConfig
	Signer SignerConfig
	Drafts DraftsConfig
	Server ServerConfig
}

// Debounce returns the minimum interval between feed snapshot emissions.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Feed.DebounceMs) * time.Millisecond
}

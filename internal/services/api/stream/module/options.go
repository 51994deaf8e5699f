package module

import (
	"time"

	"uwhatgov/internal/adapters/upstream"
	"uwhatgov/internal/core/record"
	"uwhatgov/internal/platform/config"
	"uwhatgov/internal/services/api/stream/service"
)

// Options configure the stream module
type Options struct {
	Heartbeat time.Duration
	Narrator  string
	Upstream  upstream.Config
	// EchoDelay paces the offline producer
	EchoDelay time.Duration
	// MaxStreams caps concurrent generations, extra viewers wait briefly then get 429
	MaxStreams int
}

// FromConfig reads CORE_STREAM_ settings
func FromConfig(c config.Conf) Options {
	sc := c.Prefix("CORE_STREAM_")
	return Options{
		Heartbeat:  sc.MayDuration("HEARTBEAT", service.DefaultHeartbeat),
		Narrator:   sc.MayString("NARRATOR", record.Narrator),
		EchoDelay:  sc.MayDuration("ECHO_DELAY", 50*time.Millisecond),
		MaxStreams: sc.MayInt("MAX_CONCURRENT", 32),
		Upstream: upstream.Config{
			Provider:    sc.MayEnum("PROVIDER", "echo", "echo", "openai", "gemini"),
			APIKey:      sc.MayString("API_KEY", ""),
			BaseURL:     sc.MayString("BASE_URL", ""),
			Model:       sc.MayString("MODEL", ""),
			Temperature: sc.MayFloat64("TEMPERATURE", 0.2),
			MaxTokens:   sc.MayInt("MAX_TOKENS", 16384),
		},
	}
}

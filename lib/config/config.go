// Package config loads the endpoint stack's runtime options: the codec's
// three configuration knobs plus the transport addresses the sample
// executable and any embedding application bind to. Loading goes through
// github.com/spf13/viper, matching the configuration approach taken by
// other CLI-shaped Go tools with layered config from flags/env/file
// without hand-rolled precedence logic.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/h323go/stack/lib/per"
)

// Options is the typed configuration surface for an H.323 endpoint
// process. Zero value is not valid; use Load or Defaults.
type Options struct {
	// Codec knobs, mirrored from per.Options.
	StrictEnum                bool
	MaxRecursionDepth         int
	PreserveUnknownExtensions bool

	// Transport addresses (lib/transport).
	RASListenAddr    string
	SignalListenAddr string
	DialTimeout      time.Duration

	// LogLevel is a logrus level name: "debug", "info", "warn", "error".
	LogLevel string
}

// Defaults returns the documented codec defaults plus reasonable transport
// defaults for a loopback endpoint.
func Defaults() Options {
	return Options{
		StrictEnum:                true,
		MaxRecursionDepth:         32,
		PreserveUnknownExtensions: true,
		RASListenAddr:             "0.0.0.0:1719",
		SignalListenAddr:          "0.0.0.0:1720",
		DialTimeout:               5 * time.Second,
		LogLevel:                  "info",
	}
}

// Load builds Options from (in increasing priority) built-in defaults, an
// optional config file at path (ignored if empty or not found), and
// environment variables prefixed H323_ (e.g. H323_STRICT_ENUM=false).
func Load(path string) (Options, error) {
	v := viper.New()
	d := Defaults()
	v.SetDefault("strict_enum", d.StrictEnum)
	v.SetDefault("max_recursion_depth", d.MaxRecursionDepth)
	v.SetDefault("preserve_unknown_extensions", d.PreserveUnknownExtensions)
	v.SetDefault("ras_listen_addr", d.RASListenAddr)
	v.SetDefault("signal_listen_addr", d.SignalListenAddr)
	v.SetDefault("dial_timeout", d.DialTimeout.String())
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix("h323")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Options{}, fmt.Errorf("config: reading %s: %w", path, err)
			}
		}
	}

	dialTimeout, err := time.ParseDuration(v.GetString("dial_timeout"))
	if err != nil {
		return Options{}, fmt.Errorf("config: dial_timeout: %w", err)
	}

	return Options{
		StrictEnum:                v.GetBool("strict_enum"),
		MaxRecursionDepth:         v.GetInt("max_recursion_depth"),
		PreserveUnknownExtensions: v.GetBool("preserve_unknown_extensions"),
		RASListenAddr:             v.GetString("ras_listen_addr"),
		SignalListenAddr:          v.GetString("signal_listen_addr"),
		DialTimeout:               dialTimeout,
		LogLevel:                  v.GetString("log_level"),
	}, nil
}

// CodecOptions projects the codec-relevant subset onto per.Options.
func (o Options) CodecOptions() per.Options {
	return per.Options{
		StrictEnum:                o.StrictEnum,
		MaxRecursionDepth:         o.MaxRecursionDepth,
		PreserveUnknownExtensions: o.PreserveUnknownExtensions,
	}
}

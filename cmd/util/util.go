package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/smclab/gosmc/channel"
	"github.com/smclab/gosmc/channel/remote"
	"github.com/smclab/gosmc/channel/sim"
	"github.com/smclab/gosmc/client"
	"github.com/smclab/gosmc/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupClientFlags adds common controller connection flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "endpoint"
	cmd.PersistentFlags().String(key, "sim", WrapString("Where to reach the controller: 'sim' for the built-in simulated device, a socket path (e.g. /tmp/gosmc.sock) or a host:port address of a gosmc agent"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds for a single controller call"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("The level at which logs will be output (debug, info, warn, error)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("smc")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetTimeout reads the configured call timeout from viper
func GetTimeout() time.Duration {
	return time.Duration(viper.GetInt("timeout")) * time.Second
}

// GetLocator creates a channel locator based on configuration. The
// endpoint keyword "sim" yields the built-in demo device; a path is
// treated as a unix socket and a host:port address as tcp.
func GetLocator() (channel.Locator, error) {
	endpoint := viper.GetString("endpoint")
	switch {
	case endpoint == "sim":
		return sim.Locator{Device: sim.NewDemo()}, nil
	case strings.Contains(endpoint, "/"):
		return remote.Locator{Network: "unix", Endpoint: endpoint, Timeout: GetTimeout()}, nil
	case strings.Contains(endpoint, ":"):
		return remote.Locator{Network: "tcp", Endpoint: endpoint, Timeout: GetTimeout()}, nil
	default:
		return nil, fmt.Errorf("invalid endpoint %s (expected 'sim', a socket path or host:port)", endpoint)
	}
}

// NewClient configures logging, opens a channel to the configured
// endpoint and wraps it in a client. The returned channel must be
// closed by the caller once all reads are done.
func NewClient() (*client.Client, *channel.Channel, error) {
	if err := logging.Init(viper.GetString("log-level")); err != nil {
		return nil, nil, err
	}

	loc, err := GetLocator()
	if err != nil {
		return nil, nil, err
	}

	ch, err := channel.Open(loc)
	if err != nil {
		return nil, nil, err
	}

	return client.New(ch), ch, nil
}

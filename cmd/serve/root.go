package serve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/smclab/gosmc/channel/remote"
	"github.com/smclab/gosmc/channel/sim"
	"github.com/smclab/gosmc/cmd/util"
	"github.com/smclab/gosmc/lib/smc"
	"github.com/smclab/gosmc/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveDevice *sim.Device

	// ServeCmd represents the serve command
	ServeCmd = &cobra.Command{
		Use:     "serve",
		Short:   "Start a gosmc agent",
		Long:    `Start an agent that hosts a simulated controller device and forwards exchanges from remote gosmc clients. The configuration can be set via command line flags or environment variables. The format of the environment variables is SMC_<flag> (e.g. SMC_ENDPOINT=/tmp/gosmc.sock)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "/tmp/gosmc.sock", util.WrapString("The address on which the agent will listen (socket path or host:port)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int(key, 10, util.WrapString("Per-frame socket timeout in seconds (0 disables deadlines)"))

	key = "keys"
	ServeCmd.PersistentFlags().String(key, "", util.WrapString("Comma-separated list of float keys to seed the simulated device with. Format: KEY=VALUE where KEY is a 4 character key name (e.g. TC0P=42.5). If empty the demo key set is used"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", util.WrapString("The level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and
// environment variables and seeds the simulated device
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// parse seed keys
	keysConfig := viper.GetString("keys")
	if keysConfig == "" {
		serveDevice = sim.NewDemo()
		return nil
	}

	serveDevice = sim.New()
	for _, keyConfig := range strings.Split(keysConfig, ",") {
		parts := strings.Split(keyConfig, "=")
		if len(parts) != 2 {
			return fmt.Errorf("invalid key format: %s (expected KEY=VALUE)", keyConfig)
		}

		// Parse key name
		key, err := smc.ParseKey(strings.TrimSpace(parts[0]))
		if err != nil {
			return fmt.Errorf("invalid key name %s: %v", parts[0], err)
		}

		// Parse value
		value, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 32)
		if err != nil {
			return fmt.Errorf("invalid value for key %s: %v", key, err)
		}

		serveDevice.SetFloat(key, float32(value))
	}

	return nil
}

// run starts the gosmc agent
func run(_ *cobra.Command, _ []string) error {
	if err := logging.Init(viper.GetString("log-level")); err != nil {
		return err
	}

	// infer the listener network from the endpoint shape
	endpoint := viper.GetString("endpoint")
	var network string
	switch {
	case strings.Contains(endpoint, "/"):
		network = "unix"
	case strings.Contains(endpoint, ":"):
		network = "tcp"
	default:
		return fmt.Errorf("invalid endpoint %s (expected a socket path or host:port)", endpoint)
	}

	agent := remote.NewAgent(serveDevice, util.GetTimeout())
	return agent.Listen(network, endpoint)
}

// initConfig reads in ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("smc")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

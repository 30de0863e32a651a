package watch

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/smclab/gosmc/channel"
	"github.com/smclab/gosmc/cmd/util"
	"github.com/smclab/gosmc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	smcClient  *client.Client
	smcChannel *channel.Channel

	// samples holds the latest reading per key for the metrics endpoint
	samples = struct {
		sync.Mutex
		m map[string]float64
	}{m: make(map[string]float64)}

	// WatchCmd represents the watch command
	WatchCmd = &cobra.Command{
		Use:               "watch [key...]",
		Short:             "Periodically sample keys and print their values",
		Args:              cobra.MinimumNArgs(1),
		PersistentPreRunE: setupClient,
		RunE:              run,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common connection flags
	util.SetupClientFlags(WatchCmd)

	key := "interval"
	WatchCmd.PersistentFlags().Int(key, 1000, util.WrapString("Milliseconds between samples"))

	key = "count"
	WatchCmd.PersistentFlags().Int(key, 0, util.WrapString("Number of samples to take before exiting (0 = run until interrupted)"))

	key = "metrics-addr"
	WatchCmd.PersistentFlags().String(key, "", util.WrapString("If set, expose the sampled keys as prometheus gauges on this address (e.g. localhost:9100)"))
}

// setupClient opens the controller channel for this invocation
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	smcClient, smcChannel, err = util.NewClient()
	return err
}

func run(_ *cobra.Command, args []string) error {
	defer func() { _ = smcChannel.Close() }()

	interval := time.Duration(viper.GetInt("interval")) * time.Millisecond
	count := viper.GetInt("count")

	if addr := viper.GetString("metrics-addr"); addr != "" {
		if err := serveMetrics(addr, args); err != nil {
			return err
		}
	}

	lenient := client.NewLenient(smcClient)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; count == 0 || i < count; i++ {
		if i > 0 {
			<-ticker.C
		}

		line := make([]string, 0, len(args)+1)
		line = append(line, time.Now().Format("15:04:05"))

		for _, name := range args {
			value := lenient.FloatValue(name)
			samples.Lock()
			samples.m[name] = value
			samples.Unlock()
			line = append(line, fmt.Sprintf("%s=%.2f", name, value))
		}

		fmt.Println(strings.Join(line, "  "))
	}
	return nil
}

// serveMetrics registers one gauge per watched key and serves them over
// http. The gauges read from the samples map, so scrapes always see the
// most recent tick.
func serveMetrics(addr string, names []string) error {
	for _, name := range names {
		metrics.GetOrCreateGauge(fmt.Sprintf(`smc_key_value{key=%q}`, name), func() float64 {
			samples.Lock()
			defer samples.Unlock()
			return samples.m[name]
		})
	}

	listenErr := make(chan error, 1)
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			metrics.WritePrometheus(w, true)
		})
		listenErr <- http.ListenAndServe(addr, mux)
	}()

	// surface immediate bind failures instead of sampling silently
	select {
	case err := <-listenErr:
		return fmt.Errorf("failed to serve metrics on %s: %v", addr, err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

package perf

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/smclab/gosmc/channel"
	"github.com/smclab/gosmc/cmd/util"
	"github.com/smclab/gosmc/client"
	"github.com/smclab/gosmc/lib/smc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	smcClient  *client.Client
	smcChannel *channel.Channel

	// PerfCmd represents the perf command
	PerfCmd = &cobra.Command{
		Use:               "perf",
		Short:             "Performance testing tool for gosmc endpoints",
		PersistentPreRunE: setupClient,
		PreRunE:           processPerfConfig,
		RunE:              run,
	}

	perfNumThreads = 4
	perfNumOps     = 1000
	perfReadKey    = "TC0P"
	perfSkip       = make([]string, 0)
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common connection flags
	util.SetupClientFlags(PerfCmd)

	// add flags
	key := "skip"
	PerfCmd.PersistentFlags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. read,count)"))
	key = "threads"
	PerfCmd.PersistentFlags().Int(key, 4, util.WrapString("Number of threads to use for the benchmark"))
	key = "ops"
	PerfCmd.PersistentFlags().Int(key, 1000, util.WrapString("Number of operations per benchmark"))
	key = "key"
	PerfCmd.PersistentFlags().String(key, "TC0P", util.WrapString("Key to use for the read benchmarks (must exist on the endpoint)"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
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

func processPerfConfig(_ *cobra.Command, _ []string) error {
	// Read the configuration from the command line flags and environment variables
	perfNumThreads = viper.GetInt("threads")
	perfNumOps = viper.GetInt("ops")
	perfReadKey = viper.GetString("key")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if _, err := smc.ParseKey(perfReadKey); err != nil {
		return err
	}

	return nil
}

func run(_ *cobra.Command, _ []string) error {
	defer func() { _ = smcChannel.Close() }()

	fmt.Println("Performance testing tool for gosmc endpoints")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("Endpoint: %s\n", viper.GetString("endpoint"))
	fmt.Printf("Threads:  %d\n", perfNumThreads)
	fmt.Printf("Ops:      %d\n", perfNumOps)
	fmt.Println()

	fmt.Println("starting tests...")

	readKey := smc.MustKey(perfReadKey)

	// Create results map
	results := make(map[string]gometrics.Timer)

	results["read"] = benchmark("read", func() error {
		_, err := smcClient.ReadKey(readKey)
		return err
	})
	printResult("read", results["read"])

	results["read-miss"] = benchmark("read-miss", func() error {
		_, err := smcClient.ReadKey(smc.MustKey("ZZ?9"))
		if code := smc.CodeOf(err); code == smc.ErrCNotFound || code == smc.ErrCCommunication {
			return nil // a miss is the expected outcome here
		}
		return err
	})
	printResult("read-miss", results["read-miss"])

	results["count"] = benchmark("count", func() error {
		_, err := smcClient.KeyCount()
		return err
	})
	printResult("count", results["count"])

	results["index"] = benchmark("index", func() error {
		_, err := smcClient.KeyAtIndex(0)
		return err
	})
	printResult("index", results["index"])

	results["mixed"] = benchmarkIndexed("mixed", func(i int) error {
		switch i % 3 {
		case 0: // read
			_, err := smcClient.ReadKey(readKey)
			return err
		case 1: // count
			_, err := smcClient.KeyCount()
			return err
		default: // index
			_, err := smcClient.KeyAtIndex(0)
			return err
		}
	})
	printResult("mixed", results["mixed"])

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// benchmark runs op perfNumOps times spread over perfNumThreads threads
// and records each latency in the returned timer.
func benchmark(test string, op func() error) gometrics.Timer {
	return benchmarkIndexed(test, func(int) error { return op() })
}

func benchmarkIndexed(test string, op func(int) error) gometrics.Timer {
	timer := gometrics.NewTimer()
	if shouldSkip(test) {
		return timer
	}

	var wg sync.WaitGroup
	opsPerThread := perfNumOps / perfNumThreads
	if opsPerThread == 0 {
		opsPerThread = 1
	}

	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := 0; i < opsPerThread; i++ {
				n := offset + i
				timer.Time(func() {
					if err := op(n); err != nil {
						log.Printf("(%s) - operation failed: %v\n", test, err)
					}
				})
			}
		}(t * opsPerThread)
	}

	wg.Wait()
	return timer
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, timer gometrics.Timer) {
	if timer.Count() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	percentiles := timer.Percentiles([]float64{0.95, 0.99})
	mean := timer.Mean()
	opsPerSec := 1e9 / mean

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\tp95=%s p99=%s\t%.0f ops/sec\n",
		test, mean, time.Duration(mean),
		time.Duration(percentiles[0]), time.Duration(percentiles[1]),
		opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]gometrics.Timer) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "Count", "MeanNs", "P95Ns", "P99Ns", "OpsPerSec", "Skipped",
		"Endpoint", "TimeoutSec", "Threads", "Ops", "Key",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, timer := range results {
		var mean, opsPerSec float64
		var percentiles []float64
		var skipped string

		if timer.Count() == 0 {
			skipped = "true"
			percentiles = []float64{0, 0}
		} else {
			skipped = "false"
			mean = timer.Mean()
			percentiles = timer.Percentiles([]float64{0.95, 0.99})
			opsPerSec = 1e9 / mean
		}

		row := []string{
			test,
			strconv.FormatInt(timer.Count(), 10),
			fmt.Sprintf("%.0f", mean),
			fmt.Sprintf("%.0f", percentiles[0]),
			fmt.Sprintf("%.0f", percentiles[1]),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			viper.GetString("endpoint"),
			strconv.Itoa(viper.GetInt("timeout")),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfNumOps),
			perfReadKey,
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}

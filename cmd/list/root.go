package list

import (
	"fmt"

	"github.com/smclab/gosmc/channel"
	"github.com/smclab/gosmc/cmd/util"
	"github.com/smclab/gosmc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	smcClient  *client.Client
	smcChannel *channel.Channel

	// ListCmd represents the list command
	ListCmd = &cobra.Command{
		Use:               "list",
		Short:             "Enumerate all keys the controller exposes",
		Args:              cobra.NoArgs,
		PersistentPreRunE: setupClient,
		RunE:              run,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common connection flags
	util.SetupClientFlags(ListCmd)

	key := "keys-only"
	ListCmd.PersistentFlags().Bool(key, false, util.WrapString("Print only the key names, skipping the per-key type and size lookup"))
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

func run(_ *cobra.Command, _ []string) error {
	defer func() { _ = smcChannel.Close() }()

	keys, err := smcClient.Keys()
	if err != nil {
		return err
	}

	fmt.Printf("%d keys\n", len(keys))

	if viper.GetBool("keys-only") {
		for _, key := range keys {
			fmt.Println(key)
		}
		return nil
	}

	for _, key := range keys {
		v, err := smcClient.ReadKey(key)
		if err != nil {
			// keys can vanish between enumeration and read
			fmt.Printf("%-4s  unreadable (%v)\n", key, err)
			continue
		}
		fmt.Printf("%-4s  type=%-4s  size=%d\n", v.Key, v.Info.DataType, v.Info.DataSize)
	}
	return nil
}

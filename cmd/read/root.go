package read

import (
	"fmt"

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

	// ReadCmd represents the read command group
	ReadCmd = &cobra.Command{
		Use:               "read [key...]",
		Short:             "Read one or more controller keys",
		Args:              cobra.MinimumNArgs(1),
		PersistentPreRunE: setupClient,
		RunE:              run,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common connection flags
	util.SetupClientFlags(ReadCmd)

	key := "lenient"
	ReadCmd.PersistentFlags().Bool(key, false, util.WrapString("Report 0 for keys that cannot be read or decoded instead of failing"))
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

	if viper.GetBool("lenient") {
		lenient := client.NewLenient(smcClient)
		for _, name := range args {
			fmt.Printf("%s=%g\n", name, lenient.FloatValue(name))
		}
		return nil
	}

	for _, name := range args {
		v, err := smcClient.ReadKeyString(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s  type=%s  size=%d  value=%s\n", v.Key, v.Info.DataType, v.Info.DataSize, formatValue(v))
	}
	return nil
}

// formatValue renders a value according to its type tag, falling back
// to hex for tags the client cannot decode.
func formatValue(v *smc.Value) string {
	if f, err := v.Float32(); err == nil {
		return fmt.Sprintf("%g", f)
	}
	if u, err := v.Uint(); err == nil {
		return fmt.Sprintf("%d", u)
	}
	return fmt.Sprintf("0x%x", v.Payload())
}

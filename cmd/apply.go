package cmd

import (
	"github.com/aleph-zero/flutterddl/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a DDL script file",
	Long:  "Submit a DDL script file (plain SQL, or JSON script requests when the file ends in .json) to a server",
	Run: func(cmd *cobra.Command, args []string) {
		config := client.NewApplyConfig(
			client.WithClientConfig(clientConfig()),
			client.WithFilename(viper.GetString("client.apply.file")))
		client.BootstrapApply(config)
	},
}

func init() {
	clientCmd.AddCommand(applyCmd)
	applyCmd.Flags().String("client.apply.file", "", "Script file to apply")

	viper.BindPFlag("client.apply.file", applyCmd.Flags().Lookup("client.apply.file"))
}

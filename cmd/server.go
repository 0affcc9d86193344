package cmd

import (
	"github.com/aleph-zero/flutterddl/server"
	"github.com/aleph-zero/flutterddl/service/metastore"
	"github.com/aleph-zero/flutterddl/service/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run a flutterddl server",
	Long:  "Run a flutterddl server",
	Run: func(cmd *cobra.Command, args []string) {
		config := server.NewConfig(
			server.WithAddress(viper.GetString("server.addr")),
			server.WithPort(viper.GetUint16("server.port")),
			server.WithMetastoreConfig(metastore.NewConfig(
				metastore.WithDirectory(viper.GetString("metastore.data-dir")))),
			server.WithStorageConfig(storage.NewConfig(
				storage.WithEngine(viper.GetString("storage.engine")),
				storage.WithPath(viper.GetString("storage.path")))))
		server.Bootstrap(config)
	},
}

const (
	apiListenAddr    = "0.0.0.0"
	apiListenPort    = 1234
	metastoreDataDir = ".metastore"
	storageEngine    = storage.EngineMemory
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.PersistentFlags().String("server.addr", apiListenAddr, "Address to bind to")
	serverCmd.PersistentFlags().Uint16("server.port", apiListenPort, "Port to listen on")
	serverCmd.PersistentFlags().String("metastore.data-dir", metastoreDataDir, "Data directory for metastore")
	serverCmd.PersistentFlags().String("storage.engine", storageEngine, "Storage engine (memory or sqlite)")
	serverCmd.PersistentFlags().String("storage.path", "", "Database file for the sqlite storage engine")

	viper.BindPFlag("server.addr", serverCmd.PersistentFlags().Lookup("server.addr"))
	viper.BindPFlag("server.port", serverCmd.PersistentFlags().Lookup("server.port"))
	viper.BindPFlag("metastore.data-dir", serverCmd.PersistentFlags().Lookup("metastore.data-dir"))
	viper.BindPFlag("storage.engine", serverCmd.PersistentFlags().Lookup("storage.engine"))
	viper.BindPFlag("storage.path", serverCmd.PersistentFlags().Lookup("storage.path"))
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "floorgraph",
	Short: "Floorgraph - Floorplan export normalizer with embedding-based retrieval",
	Long: `Floorgraph turns raw floorplan exports into a normalized chunk tree
(project, floor, design, room, item) and builds a local embedding index
over it for semantic search, room comparison, and furnishing suggestions.

Features:
  - Stable content-derived chunk ids across re-runs
  - Polygon containment for item-to-room assignment
  - Flat-file embedding index, no vector DB required
  - Local Ollama models for embeddings and Q&A

Environment Variables:
  OLLAMA_URL            Ollama endpoint (default http://localhost:11434)
  OLLAMA_EMBED_MODEL    Embedding model (default nomic-embed-text)
  OLLAMA_CHAT_MODEL     Chat model (default llama3.1:8b)`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.floorgraph.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")

	// Bind to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".floorgraph")
	}

	// Read environment variables
	viper.SetEnvPrefix("OLLAMA")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

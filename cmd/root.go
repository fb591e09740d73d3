// file: cmd/root.go
// version: 2.0.0
// guid: 5e6f7a8b-9c0d-1e2f-3a4b-5c6d7e8f0b1c

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdfalk/audibleshelf/internal/catalog"
	"github.com/jdfalk/audibleshelf/internal/config"
	"github.com/jdfalk/audibleshelf/internal/library"
	"github.com/jdfalk/audibleshelf/internal/metrics"
	"github.com/jdfalk/audibleshelf/internal/pipeline"
	"github.com/jdfalk/audibleshelf/internal/server"
	"github.com/jdfalk/audibleshelf/internal/skiplog"
)

var cfgFile string
var inputDir string
var outputDir string
var logPath string
var asinMapPath string
var moveFiles bool
var dryRun bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "audibleshelf",
	Short: "Organize audiobook files using Audible catalog metadata",
	Long: `audibleshelf reads the tags embedded in your audiobook files, looks the
books up in the Audible catalog, and files them into a clean library tree
with cover art and metadata sidecars.

Already-processed files are remembered, so reruns only handle new files.`,
}

// organizeCmd runs the batch pipeline over the input directory.
var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Process all new audiobook files in the input directory",
	Long: `Scan the input directory for audiobook files, identify each one in the
Audible catalog, and copy (or move) it into the organized library.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.AppConfig.Validate(); err != nil {
			return err
		}
		cfg := &config.AppConfig

		asinMap, err := pipeline.LoadASINMap(asinMapPath)
		if err != nil {
			return fmt.Errorf("failed to load ASIN map: %w", err)
		}

		fmt.Printf("Input:  %s\n", cfg.InputDir)
		fmt.Printf("Output: %s\n", cfg.OutputDir)
		if cfg.DryRun {
			fmt.Println("Dry run: no files will be touched")
		}

		client := catalog.NewClient(cfg.CatalogAPIBase, cfg.CatalogWebBase)
		manager := library.NewManager(cfg, client)
		processedLog := skiplog.Load(skiplog.PathFor(cfg.LogPath, cfg.OutputDir))

		runner := pipeline.NewRunner(cfg, client, manager, processedLog, asinMap)
		runner.ShowProgress = true

		_, err = runner.Run()
		return err
	},
}

// lookupCmd fetches catalog metadata for explicit ASINs and prepares the
// library folders without needing local files.
var lookupCmd = &cobra.Command{
	Use:   "lookup ASIN [ASIN...]",
	Short: "Fetch catalog metadata for ASINs and create library folders",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.AppConfig
		if cfg.OutputDir == "" {
			return fmt.Errorf("output directory not specified")
		}

		client := catalog.NewClient(cfg.CatalogAPIBase, cfg.CatalogWebBase)
		manager := library.NewManager(cfg, client)

		var failed int
		for _, asin := range args {
			record, err := client.FetchByASIN(asin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", asin, err)
				failed++
				continue
			}
			dest, err := manager.CreateFolder(record)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", asin, err)
				failed++
				continue
			}
			fmt.Printf("%s: %s\n", asin, dest.Dir)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d lookups failed", failed, len(args))
		}
		return nil
	},
}

// serveCmd starts the local review web UI.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local review web interface",
	Long: `Start a local web server where pending files can be inspected, catalog
matches reviewed and edited, and accepted into the library one by one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.AppConfig
		if err := cfg.Validate(); err != nil {
			return err
		}

		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")

		client := catalog.NewClient(cfg.CatalogAPIBase, cfg.CatalogWebBase)
		manager := library.NewManager(cfg, client)
		processedLog := skiplog.Load(skiplog.PathFor(cfg.LogPath, cfg.OutputDir))

		srv := server.NewServer(cfg, client, manager, processedLog)
		return srv.Run(host, port)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.audibleshelf.yaml)")
	rootCmd.PersistentFlags().StringVarP(&inputDir, "input", "i", "", "directory containing unorganized audiobook files")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "root of the organized library")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "processed-files log path (default: <output>/processed.json)")

	viper.BindPFlag("input_dir", rootCmd.PersistentFlags().Lookup("input"))
	viper.BindPFlag("output_dir", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("log_path", rootCmd.PersistentFlags().Lookup("log"))

	organizeCmd.Flags().BoolVar(&moveFiles, "move", false, "move files into the library instead of copying")
	organizeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log what would happen without touching any files")
	organizeCmd.Flags().StringVar(&asinMapPath, "asin-map", "", "JSON or CSV file mapping filenames to ASINs")
	viper.BindPFlag("organizer.move_files", organizeCmd.Flags().Lookup("move"))
	viper.BindPFlag("organizer.dry_run", organizeCmd.Flags().Lookup("dry-run"))

	serveCmd.Flags().Int("port", 8080, "port to run the review server on")
	serveCmd.Flags().String("host", "localhost", "host to bind the review server to")

	rootCmd.AddCommand(organizeCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".audibleshelf")
	}

	viper.SetEnvPrefix("AUDIBLESHELF")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	config.InitConfig()
	metrics.Register()
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunecast/internal/app"
	"github.com/tejashwikalptaru/tunecast/internal/config"
)

// newRootCmd returns the root command. Without a subcommand it serves.
func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "tunecast",
		Short:         "TuneCast embed server",
		Long:          "TuneCast serves embeddable media players for endpoints and the stream payloads behind them.",
		Version:       app.GetVersionInfo().FullString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfgFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $"+config.ConfigPathEnvVar+" or ./tunecast.yaml)")

	rootCmd.AddCommand(newServeCmd(&cfgFile))
	rootCmd.AddCommand(newSeedCmd(&cfgFile))
	rootCmd.AddCommand(newImportCmd(&cfgFile))
	return rootCmd
}

func newServeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the embed pages and stream API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *cfgFile)
		},
	}
}

func newSeedCmd(cfgFile *string) *cobra.Command {
	var seedFile string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create playlists and endpoints from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed, err := app.LoadSeed(seedFile)
			if err != nil {
				return err
			}
			srv, err := openServer(*cfgFile)
			if err != nil {
				return err
			}
			defer srv.Close()

			report, err := srv.ApplySeed(cmd.Context(), seed)
			if report != nil {
				out := cmd.OutOrStdout()
				for _, p := range report.Playlists {
					fmt.Fprintf(out, "playlist  %s  %s\n", p.ID, p.Name)
				}
				for _, e := range report.Endpoints {
					fmt.Fprintf(out, "endpoint  %s  %s  (%s)  /embed/%s\n", e.ID, e.Name, e.Status, e.Slug)
				}
				fmt.Fprintf(out, "imported %d file(s), %d failed\n", report.Imported, report.Failed)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&seedFile, "file", "f", "seed.yaml", "seed file")
	return cmd
}

func newImportCmd(cfgFile *string) *cobra.Command {
	var playlistID string
	cmd := &cobra.Command{
		Use:   "import DIR",
		Short: "Import a directory of media into a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := openServer(*cfgFile)
			if err != nil {
				return err
			}
			defer srv.Close()

			result, err := srv.ImportDirectory(cmd.Context(), playlistID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d file(s), %d failed\n", result.Imported, result.Failed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&playlistID, "playlist", "p", "", "playlist id (required)")
	_ = cmd.MarkFlagRequired("playlist")
	return cmd
}

func openServer(cfgFile string) (*app.Server, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return app.NewServer(cfg)
}

// runServe serves until SIGINT or SIGTERM.
func runServe(ctx context.Context, cfgFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := openServer(cfgFile)
	if err != nil {
		return err
	}
	defer srv.Close()
	return srv.Run(ctx)
}

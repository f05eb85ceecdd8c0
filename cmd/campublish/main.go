// This is the entrypoint for the campublish client. It handles
// configuration loading, the publish session lifecycle, the diagnostics
// server, and graceful shutdown.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"campublish/internal/config"
	"campublish/internal/core/session"
	"campublish/internal/log"
	"campublish/internal/producer"
	"campublish/internal/server"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "campublish",
	Short: "RTMP publishing client",
	Long:  "campublish connects to an RTMP ingest and publishes a live stream.",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/campublish.example.yaml", "path to configuration file")
	rootCmd.AddCommand(publishCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	publishURL       string
	publishStreamKey string
	synthetic        bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a stream to an RTMP ingest",
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishURL, "url", "", "rtmp:// ingest URL (required)")
	publishCmd.Flags().StringVar(&publishStreamKey, "stream-key", "", "stream key, if not embedded in --url")
	publishCmd.Flags().BoolVar(&synthetic, "synthetic", true, "drive the session with a placeholder camera/mic pair")
	publishCmd.MarkFlagRequired("url")
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := log.Init(cfg.Session.Verbosity); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer log.Flush()

	sess := session.New(cfg.Session)
	if err := sess.Start(publishURL, publishStreamKey); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	log.Infof("campublish: streaming to %s", publishURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var srv *server.Server
	if cfg.Diagnostics.Enabled {
		srv = server.New(cfg, sess)
		go func() {
			if err := srv.Start(); err != nil {
				log.Errorf("diagnostics server error: %v", err)
			}
		}()
	}

	if synthetic {
		prod := producer.NewSynthetic(sess, 30, 50)
		go prod.Run(ctx)
	}

	shutdown := server.NewShutdownHandler(sess, srv)
	if err := shutdown.Wait(); err != nil {
		log.Errorf("campublish: session ended: %v", err)
	} else {
		log.Infof("campublish: shutting down")
	}
	cancel()
	return nil
}

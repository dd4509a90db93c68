package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amirhossein5/faceauth/internal/server"
	"github.com/amirhossein5/faceauth/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the camera web server",
	Long: `Start the web server. It serves the camera page, an MJPEG preview of
the latest frame at /stream, the camera websocket used for enrollment and
login, and the enrollment API.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Address to listen on (overrides FACEAUTH_HTTP_ADDR)")
	serveCmd.Flags().String("replay", "", "Directory of JPEG frames to loop instead of the websocket camera")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	httpCfg := a.cfg.HTTP
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		httpCfg.Addr = addr
	}
	replayDir := a.cfg.Camera.ReplayDir
	if dir, _ := cmd.Flags().GetString("replay"); dir != "" {
		replayDir = dir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	latest := stream.NewLatest()
	if replayDir != "" {
		src, err := stream.NewDirSource(replayDir, true)
		if err != nil {
			return err
		}
		a.log.Info("replaying camera frames", "dir", replayDir, "frames", src.Len())

		go func() {
			err := stream.Pump(ctx, src, latest, a.cfg.Camera.Interval)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("frame pump stopped", "error", err.Error())
			}
		}()
	}

	srv := server.NewServer(httpCfg, a.service, a.store, latest,
		server.Options{
			SnapshotPath:       a.cfg.Camera.SnapshotPath,
			IgnoreCameraFrames: replayDir != "",
		}, a.log)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("error during shutdown", "error", err.Error())
		}
	}()

	err = srv.Start()
	stop()
	<-shutdownDone
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

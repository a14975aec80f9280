package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/camlock/internal/server"
	"github.com/MeKo-Tech/camlock/internal/trace"
	"github.com/MeKo-Tech/camlock/internal/tracker"
)

// replayCmd runs a recorded constant-upload trace through the detection
// engine and reports the outcome.
var replayCmd = &cobra.Command{
	Use:   "replay <trace.yaml>",
	Short: "Replay a recorded constant-upload trace through the detector",
	Long: `Replay feeds a recorded trace of shader-constant uploads and frame
boundaries through the camera tracker and prints a detection report.

With --serve, a telemetry HTTP server runs for the duration of the replay,
exposing /state, /metrics, and a /ws snapshot stream; combine it with
--frame-delay to watch a session evolve in real time.

Examples:
  camlock replay session.yaml
  camlock replay session.yaml --frame-delay 16
  camlock replay session.yaml --serve --port 8970 --frame-delay 33`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		frameDelay := cfg.Replay.FrameDelayMs
		if cmd.Flags().Changed("frame-delay") {
			frameDelay, _ = cmd.Flags().GetInt("frame-delay")
		}
		serve, _ := cmd.Flags().GetBool("serve")
		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		tra, err := trace.Load(args[0])
		if err != nil {
			return err
		}

		sink := &tracker.RecordingSink{}
		tr, err := tracker.New(cfg.Tracker, sink)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		var httpServer *http.Server
		if serve {
			mux := http.NewServeMux()
			server.NewServer(tr, server.Config{TimeoutSec: cfg.Server.TimeoutSec}).SetupRoutes(mux)
			httpServer = &http.Server{
				Addr:              fmt.Sprintf("%s:%d", host, port),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				slog.Info("Starting telemetry server", "host", host, "port", port)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("Telemetry server error", "error", err)
				}
			}()
		}

		slog.Info("Replaying trace",
			"path", args[0], "frames", len(tra.Frames), "uploads", tra.Uploads())

		trace.Replay(tr, tra, func(int) {
			if frameDelay > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(time.Duration(frameDelay) * time.Millisecond):
				}
			}
		})

		printReport(cmd.OutOrStdout(), tr.Snapshot())

		if httpServer != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("Telemetry server shutdown error", "error", err)
			}
		}
		return nil
	},
}

// printReport writes the human-readable detection summary.
func printReport(w io.Writer, snap tracker.Snapshot) {
	fmt.Fprintf(w, "state:            %s\n", snap.State)
	fmt.Fprintf(w, "frames:           %d\n", snap.Frame)
	fmt.Fprintf(w, "uploads:          %d (candidates: %d)\n", snap.Uploads, snap.Candidates)
	if snap.LockFrame >= 0 {
		fmt.Fprintf(w, "locked at frame:  %d\n", snap.LockFrame)
	}
	if snap.HasCamera {
		fmt.Fprintf(w, "camera eye:       [%.1f, %.1f, %.1f]\n", snap.Eye[0], snap.Eye[1], snap.Eye[2])
		fmt.Fprintf(w, "projection:       xScale=%.3f yScale=%.3f gameA=%.4f gameB=%.2f\n",
			snap.XScale, snap.YScale, snap.GameA, snap.GameB)
	}
	fmt.Fprintf(w, "camera commits:   %d\n", snap.CameraCommits)
	fmt.Fprintf(w, "world transforms: %d full, %d identity\n", snap.WorldsFull, snap.WorldsIdentity)
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Int("frame-delay", 0, "delay between frames in milliseconds")
	replayCmd.Flags().Bool("serve", false, "expose the telemetry server during replay")
	replayCmd.Flags().StringP("host", "H", "localhost", "telemetry server host")
	replayCmd.Flags().IntP("port", "p", 8970, "telemetry server port")
}

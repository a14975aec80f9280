package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/camlock/internal/trace"
)

// synthCmd generates a synthetic fly-through trace.
var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Generate a synthetic camera fly-through trace",
	Long: `Synth writes a trace of a camera translating along its forward axis,
with per-draw object uploads and optional decoy passes. Useful as a
detector fixture and for exercising the replay pipeline without a capture.

Examples:
  camlock synth --out fly.yaml
  camlock synth --out fly.yaml --frames 120 --objects 4 --decoy --half-res`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			return fmt.Errorf("--out is required")
		}

		cfg := trace.DefaultSynthConfig()
		if cmd.Flags().Changed("frames") {
			cfg.Frames, _ = cmd.Flags().GetInt("frames")
		}
		if cmd.Flags().Changed("objects") {
			cfg.ObjectsPerFrame, _ = cmd.Flags().GetInt("objects")
		}
		if cmd.Flags().Changed("speed") {
			speed, _ := cmd.Flags().GetFloat32("speed")
			cfg.Speed = speed
		}
		cfg.WithStaticDecoy, _ = cmd.Flags().GetBool("decoy")
		cfg.WithHalfResPass, _ = cmd.Flags().GetBool("half-res")
		cfg.Aspect = GetConfig().Tracker.Aspect

		t := trace.Synthesize(cfg)
		if err := t.Save(out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d frames (%d uploads) to %s\n",
			len(t.Frames), t.Uploads(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(synthCmd)
	synthCmd.Flags().String("out", "", "output trace file path")
	synthCmd.Flags().Int("frames", 30, "number of frames to generate")
	synthCmd.Flags().Int("objects", 2, "object draw uploads per frame")
	synthCmd.Flags().Float32("speed", 8.5, "camera speed in units per frame")
	synthCmd.Flags().Bool("decoy", false, "add a static UI-like decoy upload per frame")
	synthCmd.Flags().Bool("half-res", false, "add a depth-stripped half-resolution upload per frame")
}

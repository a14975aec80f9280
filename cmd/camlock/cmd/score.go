package cmd

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/camlock/internal/camera"
	"github.com/MeKo-Tech/camlock/internal/mat"
)

// scoreCmd scores a single 16-float block from the command line.
var scoreCmd = &cobra.Command{
	Use:   "score <f0> <f1> ... <f15> | score <file>",
	Short: "Score a single constant block as a view-projection candidate",
	Long: `Score evaluates one 16-float block, given in producer register order
(column-major), and prints the candidate score with the structural
magnitudes behind it. A score of 0 means the block was rejected.

The block is given either as 16 inline arguments or as a single file of
16 whitespace-separated floats.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 && len(args) != 16 {
			return fmt.Errorf("expected 16 float values or one file, got %d args", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		values := args
		if len(args) == 1 {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			values = strings.Fields(string(raw))
			if len(values) != 16 {
				return fmt.Errorf("%s: expected 16 float values, found %d", args[0], len(values))
			}
		}

		var block mat.Block
		for i, arg := range values {
			v, err := strconv.ParseFloat(arg, 32)
			if err != nil {
				return fmt.Errorf("value %d (%q): %w", i, arg, err)
			}
			block[i] = float32(v)
		}

		score := camera.Score(block, cfg.Tracker.Score)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "score:       %d (passing >= %d)\n", score, camera.MinPassingScore)
		fmt.Fprintf(out, "forward mag: %.4f\n", mag3(block[3], block[7], block[11]))
		fmt.Fprintf(out, "x scale:     %.4f\n", mag3(block[0], block[4], block[8]))
		fmt.Fprintf(out, "y scale:     %.4f\n", mag3(block[1], block[5], block[9]))
		fmt.Fprintf(out, "depth (f15): %.2f\n", block[15])

		if score >= cfg.Tracker.MinLockScore {
			dec, err := camera.Decompose(block, cfg.Tracker.NearClip, cfg.Tracker.FarClip)
			if err != nil {
				return fmt.Errorf("decomposition: %w", err)
			}
			fmt.Fprintf(out, "eye:         [%.2f, %.2f, %.2f]\n",
				dec.Eye.X(), dec.Eye.Y(), dec.Eye.Z())
			fmt.Fprintf(out, "game proj:   A=%.4f B=%.2f\n", dec.GameA, dec.GameB)
		}
		return nil
	},
}

func mag3(x, y, z float32) float32 {
	return float32(math.Sqrt(float64(x*x + y*y + z*z)))
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

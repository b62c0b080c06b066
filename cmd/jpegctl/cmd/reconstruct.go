package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
	"github.com/jpfielding/libjpeg.go/pkg/jpeg"
)

// colourspaces maps the --colourspace flag to transform selectors.
var colourspaces = map[string]codec.Transform{
	"none":   codec.TransformNone,
	"ycbcr":  codec.TransformYCbCr,
	"rct":    codec.TransformRCT,
	"ls-rct": codec.TransformLSRCT,
}

// NewReconstructCmd creates the reconstruct cobra command
func NewReconstructCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconstruct",
		Short: "decode a jpeg stream to a netpbm image",
		Long:  "decodes a sequential, lossless or JPEG-LS stream and writes the samples as PGM (grayscale) or PPM (colour)",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			if in == "" && len(args) > 0 {
				in = args[0]
			}
			if in == "" || out == "" {
				return fmt.Errorf("both --in and --out are required")
			}

			name, _ := cmd.Flags().GetString("colourspace")
			t, ok := colourspaces[strings.ToLower(name)]
			if !ok {
				return fmt.Errorf("unknown colourspace %q (none|ycbcr|rct|ls-rct)", name)
			}

			p, err := jpeg.Reconstruct(in, out, t)
			if err != nil {
				return fmt.Errorf("reconstruct failed: %s", jpeg.StatusOf(err))
			}
			slog.InfoContext(ctx, "reconstructed",
				"in", in, "out", out,
				"rows", p.Rows, "columns", p.Columns,
				"components", p.Components, "precision", p.Precision)
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "", "jpeg stream to decode")
	pf.StringP("out", "o", "", "output image path (.pgm or .ppm)")
	pf.StringP("colourspace", "c", "none", "colour transform (none|ycbcr|rct|ls-rct)")
	return cmd
}

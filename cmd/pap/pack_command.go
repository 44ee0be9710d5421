package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	pap "github.com/logicossoftware/go-pap"
)

type packFlags struct {
	outDir       string
	createDir    bool
	keepImage    bool
	maxBytes     int64
	qualityStart int
	qualityStep  int
	qualityFloor int
	compression  string
	jsonOutput   bool
}

type packResult struct {
	Container       string `json:"container"`
	CompressedImage string `json:"compressed_image,omitempty"`
	Quality         int    `json:"quality"`
	Attempts        int    `json:"attempts"`
	ImageBytes      int    `json:"image_bytes"`
	MaxBytes        int64  `json:"max_bytes"`
	Outcome         string `json:"outcome"`
}

func newPackCommand(ctx *commandContext) *cobra.Command {
	var flags packFlags

	cmd := &cobra.Command{
		Use:   "pack <image> <annotation.json>",
		Short: "Re-encode an image under a byte budget and package it with its annotation",
		Long: `Re-encode an image in its own format, stepping quality down until it fits
the byte budget, and write <name>.pap next to the annotation file (or into
--out). Reaching the quality floor is reported but is not an error.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := cfg.BuildOptions()
			opts = append(opts, pap.WithLogger(ctx.loggerValue()))

			f := cmd.Flags()
			if f.Changed("out") {
				opts = append(opts, pap.WithOutputDir(flags.outDir))
			}
			if f.Changed("create-dir") {
				opts = append(opts, pap.WithCreateOutputDir(flags.createDir))
			}
			if f.Changed("keep-image") {
				opts = append(opts, pap.WithKeepCompressedImage(flags.keepImage))
			}
			if f.Changed("max-bytes") {
				if flags.maxBytes <= 0 {
					return fmt.Errorf("--max-bytes must be positive")
				}
				opts = append(opts, pap.WithMaxBytes(flags.maxBytes))
			}
			if f.Changed("quality-start") || f.Changed("quality-step") || f.Changed("quality-floor") {
				start, step, floor := cfg.Pack.QualityStart, cfg.Pack.QualityStep, cfg.Pack.QualityFloor
				if f.Changed("quality-start") {
					start = flags.qualityStart
				}
				if f.Changed("quality-step") {
					step = flags.qualityStep
				}
				if f.Changed("quality-floor") {
					floor = flags.qualityFloor
				}
				opts = append(opts, pap.WithQuality(start, step, floor))
			}
			if f.Changed("compression") {
				comp, err := pap.ParseCompression(flags.compression)
				if err != nil {
					return err
				}
				opts = append(opts, pap.WithStorageCompression(comp))
			}

			res, err := pap.BuildAndPackage(args[0], args[1], opts...)
			if err != nil {
				return err
			}
			out := packResult{
				Container:       res.ContainerPath,
				CompressedImage: res.CompressedImagePath,
				Quality:         res.Compressed.Quality,
				Attempts:        res.Compressed.Attempts,
				ImageBytes:      len(res.Compressed.Data),
				MaxBytes:        res.Compressed.MaxBytes,
				Outcome:         res.Compressed.Outcome.String(),
			}
			if flags.jsonOutput {
				return writeJSON(cmd, out)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Wrote %s\n", out.Container)
			fmt.Fprintf(w, "  image: %s at quality %d after %d attempt(s)\n",
				humanize.Bytes(uint64(out.ImageBytes)), out.Quality, out.Attempts)
			if res.Compressed.Oversized() {
				fmt.Fprintf(w, "  warning: quality floor reached, image exceeds budget of %s\n",
					humanize.Bytes(uint64(out.MaxBytes)))
			}
			if out.CompressedImage != "" {
				fmt.Fprintf(w, "  kept re-encoded image: %s\n", out.CompressedImage)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.outDir, "out", "o", "", "Output directory (default: the annotation's directory)")
	cmd.Flags().BoolVar(&flags.createDir, "create-dir", false, "Create the output directory if missing")
	cmd.Flags().BoolVar(&flags.keepImage, "keep-image", false, "Keep the re-encoded image as _<image name>")
	cmd.Flags().Int64Var(&flags.maxBytes, "max-bytes", 0, "Image byte budget")
	cmd.Flags().IntVar(&flags.qualityStart, "quality-start", 0, "First quality tried")
	cmd.Flags().IntVar(&flags.qualityStep, "quality-step", 0, "Quality decrement per attempt")
	cmd.Flags().IntVar(&flags.qualityFloor, "quality-floor", 0, "Lowest quality tried")
	cmd.Flags().StringVar(&flags.compression, "compression", "", "Storage compression: none, zip, zstd, lz4, br")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	pap "github.com/logicossoftware/go-pap"
)

type inspectResult struct {
	Path            string   `json:"path"`
	Storage         string   `json:"storage"`
	Name            string   `json:"name"`
	ImageFormat     string   `json:"img_format"`
	Codec           string   `json:"codec"`
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	ImageBytes      int      `json:"image_bytes"`
	AnnotationBytes int      `json:"annotation_bytes"`
	AnnotationKind  string   `json:"annotation_kind"`
	AnnotationKeys  []string `json:"annotation_keys,omitempty"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect <container>",
		Short: "Decode a container and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			d, err := pap.LoadFile(args[0], cfg.ReadOptions()...)
			if err != nil {
				return err
			}
			res := summarize(args[0], d)
			if jsonOutput {
				return writeJSON(cmd, res)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "File:        %s (storage: %s)\n", filepath.Base(res.Path), res.Storage)
			fmt.Fprintf(w, "Name:        %s\n", res.Name)
			fmt.Fprintf(w, "Image:       %s %dx%d, %s (img_format %q)\n",
				res.Codec, res.Width, res.Height, humanize.Bytes(uint64(res.ImageBytes)), res.ImageFormat)
			fmt.Fprintf(w, "Annotation:  %s, %s\n", res.AnnotationKind, humanize.Bytes(uint64(res.AnnotationBytes)))
			if len(res.AnnotationKeys) > 0 {
				fmt.Fprintf(w, "Keys:        %v\n", res.AnnotationKeys)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the summary as JSON")
	return cmd
}

func summarize(path string, d *pap.Decoded) inspectResult {
	b := d.Image.Bounds()
	res := inspectResult{
		Path:            path,
		Storage:         pap.CompressionForPath(path).String(),
		Name:            d.Name,
		ImageFormat:     d.ImageFormat,
		Codec:           d.Codec,
		Width:           b.Dx(),
		Height:          b.Dy(),
		ImageBytes:      len(d.Raw.Image),
		AnnotationBytes: len(d.Raw.Annotation),
	}
	switch v := d.Annotation.(type) {
	case map[string]any:
		res.AnnotationKind = "object"
		for k := range v {
			res.AnnotationKeys = append(res.AnnotationKeys, k)
		}
		sort.Strings(res.AnnotationKeys)
	case []any:
		res.AnnotationKind = fmt.Sprintf("array of %d", len(v))
	default:
		res.AnnotationKind = "scalar"
	}
	return res
}

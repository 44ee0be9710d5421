package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	pap "github.com/logicossoftware/go-pap"
)

func newUnpackCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "unpack <container>",
		Short: "Write a container's image and pretty-printed annotation to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir := outDir
			if dir == "" {
				dir = filepath.Dir(args[0])
			}
			res, err := pap.ExtractFile(args[0], dir, cfg.ReadOptions()...)
			if err != nil {
				return err
			}
			ctx.loggerValue().Info("container extracted",
				"container", args[0],
				"image", res.ImagePath,
				"annotation", res.AnnotationPath)
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, res.ImagePath)
			fmt.Fprintln(w, res.AnnotationPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: the container's directory)")
	return cmd
}

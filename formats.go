package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Yasin4161/Internet-download-agent/gateway"
	"github.com/Yasin4161/Internet-download-agent/model"
)

func newFormatsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "formats <url>",
		Short: "List the downloadable formats of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw := gateway.New(gateway.Config{
				Provider:        newProvider(cfg, logger),
				ProviderTimeout: cfg.ProviderTimeout,
			}, logger)

			formats, err := gw.ListFormats(cmd.Context(), args[0])
			if err != nil {
				kind := gateway.KindOf(err)
				return fmt.Errorf("%s (%s): %w", kind.Message(), kind.Code(), err)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(formats)
			}
			return printFormats(cmd.OutOrStdout(), formats)
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print json instead of a table")

	return cmd
}

func printFormats(w io.Writer, formats []model.Format) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQUALITY\tCONTAINER\tSIZE\tFPS\tCAPABILITIES")
	for _, f := range formats {
		size := "-"
		if mb, ok := f.ApproximateSizeMB.Get(); ok {
			size = "~" + humanize.IBytes(uint64(mb)<<20)
		}
		fps := "-"
		if n, ok := f.FPS.Get(); ok {
			fps = strconv.Itoa(n)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", f.ID, f.QualityLabel, f.Container, size, fps, f.Capabilities)
	}
	return tw.Flush()
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mevzuatgpt/mevzuat/internal/export"
	"github.com/mevzuatgpt/mevzuat/internal/statute"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse one statute text file into article chunks",
		Long: `Parse a plain-text statute and write its article chunks as a JSON array.

The chunks go to stdout unless --output names a file or directory. Use "-"
as the file to read from stdin.

Examples:
  mevzuat parse tck.txt                    # Print chunks
  mevzuat parse tck.txt -o chunks/         # Write chunks/tck.chunks.json
  mevzuat parse eski.txt --encoding windows-1254 --strict`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}

	cmd.Flags().StringP("output", "o", "", "output JSON file or directory (default stdout)")
	cmd.Flags().Bool("strict", false, "keep page markers and body text out of article captions")
	cmd.Flags().String("encoding", "", "input encoding (utf-8, windows-1254)")
	cmd.Flags().Bool("diagnostics", false, "log every input line that had no effect on the output")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.flushMetrics()

	output, _ := cmd.Flags().GetString("output")
	diagnostics, _ := cmd.Flags().GetBool("diagnostics")
	if cmd.Flags().Changed("strict") {
		a.cfg.Parse.StrictHierarchy, _ = cmd.Flags().GetBool("strict")
	}
	if encoding, _ := cmd.Flags().GetString("encoding"); encoding != "" {
		a.cfg.Parse.Encoding = encoding
	}

	path := args[0]
	log := a.log.WithDocument(path)
	p := a.parser()

	var res *statute.Result
	if path == "-" {
		res, err = p.ParseReader(cmd.InOrStdin())
	} else {
		res, err = p.ParseFile(path)
	}
	if err != nil {
		return err
	}

	if a.metrics != nil {
		a.metrics.RecordParse(res)
	}

	for _, d := range res.Diagnostics {
		if diagnostics {
			log.Warn("line ignored", "line", d.Line, "text", d.Text, "reason", d.Reason)
		} else {
			log.Debug("line ignored", "line", d.Line, "reason", d.Reason)
		}
	}

	log.Info("parsed statute",
		"kanun_adi", res.Metadata.Title,
		"kanun_no", res.Metadata.Number,
		"chunks", len(res.Chunks),
		"diagnostics", len(res.Diagnostics),
	)

	if output == "" {
		return export.Encode(cmd.OutOrStdout(), res.Chunks)
	}

	if isDirTarget(output) {
		output = export.OutputPath(output, path)
	}
	_, err = export.WriteJSON(output, res.Chunks, log)
	return err
}

// isDirTarget reports whether output names a directory, existing or marked
// by a trailing separator.
func isDirTarget(output string) bool {
	if os.IsPathSeparator(output[len(output)-1]) {
		return true
	}
	info, err := os.Stat(output)
	return err == nil && info.IsDir()
}

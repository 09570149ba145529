package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"adscope/internal/api"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "extract <media-file>",
		Short: "Upload media to the daemon and print its feature record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read media file: %w", err)
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			record, err := client.Extract(cmd.Context(), args[0], data)
			if err != nil {
				return err
			}
			if jsonFlag || !isTerminal(cmd.OutOrStdout()) {
				return writeJSON(cmd, record)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRecordTable(record))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the raw FeatureRecord JSON")
	return cmd
}

func renderRecordTable(record *api.FeatureRecord) string {
	rows := [][]string{
		{"Ad ID", record.AdID},
		{"Modality", record.Media.Modality},
		{"Dimensions", fmt.Sprintf("%dx%d", record.Media.Width, record.Media.Height)},
		{"Duration", formatDurationMS(record.Media.DurationMS)},
		{"FPS", formatFPS(record.Media.FPS)},
		{"Colorfulness", fmt.Sprintf("%.2f", record.Features.Color.Colorfulness)},
		{"Mean BGR", formatTriple(record.Features.Color.MeanBGR)},
		{"Std BGR", formatTriple(record.Features.Color.StdBGR)},
		{"Palette", strings.Join(record.Features.Color.PaletteHex, " ")},
		{"Aspect ratio", fmt.Sprintf("%.3f", record.Features.Layout.AspectRatio)},
		{"Whitespace", fmt.Sprintf("%.1f%%", record.Features.Layout.WhitespaceRatio*100)},
		{"OCR coverage", fmt.Sprintf("%.1f%%", record.Features.OCR.CoveragePct)},
	}
	if text := strings.TrimSpace(record.Features.OCR.Text); text != "" {
		rows = append(rows, []string{"OCR text", truncate(text, 96)})
	}
	if video := record.Features.Video; video != nil {
		rows = append(rows,
			[]string{"Sampled frames", fmt.Sprintf("%d", video.SampledFrames)},
			[]string{"Motion intensity", fmt.Sprintf("%.2f", video.MotionIntensity)},
			[]string{"Cuts/min", fmt.Sprintf("%.2f", video.CutsPerMin)},
		)
	}
	rows = append(rows, []string{"Schema", record.Version})
	return renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft})
}

func formatDurationMS(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return fmt.Sprintf("%.2fs", float64(*ms)/1000.0)
}

func formatFPS(fps *float64) string {
	if fps == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *fps)
}

func formatTriple(v [3]float64) string {
	return fmt.Sprintf("[%.1f %.1f %.1f]", v[0], v[1], v[2])
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}

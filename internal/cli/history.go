package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/backmassage/stillmux/internal/display"
	"github.com/backmassage/stillmux/internal/history"
	"github.com/backmassage/stillmux/internal/timing"
)

// shortIDLen is how much of a render ID the table shows.
const shortIDLen = 8

func (a *app) historyCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [ID]",
		Short: "List recent renders, or show one",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.NoHistory || a.cfg.HistoryDB == "" {
				return usageErrorf(errors.New("render history is disabled (--no-history or empty --history-db)"))
			}
			store, err := history.Open(a.cfg.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				e, err := store.Find(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, display.SummaryBox("Render "+e.ID, entryFields(e)))
				return nil
			}

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				a.log.Info("No renders recorded yet")
				return nil
			}
			fmt.Fprintln(a.out, display.Table(
				[]string{"ID", "When", "Status", "Output", "Frames", "Duration", "Encoder", "Size"},
				historyRows(entries, time.Now()),
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of renders to list")
	return cmd
}

func historyRows(entries []history.Entry, now time.Time) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		encoder := e.Encoder
		if e.FellBack {
			encoder += "*"
		}
		size := "-"
		if e.OutputBytes > 0 {
			size = display.FormatBytes(e.OutputBytes)
		}
		rows = append(rows, []string{
			shortID(e.ID),
			display.FormatAge(e.CreatedAt, now),
			string(e.Status),
			e.OutputPath,
			strconv.FormatInt(e.Frames, 10),
			timing.FormatClock(e.Duration),
			encoder,
			size,
		})
	}
	return rows
}

func entryFields(e *history.Entry) []display.Field {
	audio := e.AudioPath
	if audio == "" {
		audio = "none (silent)"
	}
	fields := []display.Field{
		{Label: "When", Value: e.CreatedAt.Format("2006-01-02 15:04:05")},
		{Label: "Status", Value: string(e.Status)},
		{Label: "Image", Value: e.ImagePath},
		{Label: "Audio", Value: audio},
		{Label: "Output", Value: e.OutputPath},
		{Label: "Source", Value: display.FormatDuration(e.SourceDuration)},
		{Label: "Frames", Value: fmt.Sprintf("%d @ %s fps", e.Frames, timing.FormatRate(e.FrameRate))},
		{Label: "Duration", Value: display.FormatDuration(e.Duration)},
		{Label: "Encoder", Value: e.Encoder},
		{Label: "Size", Value: display.FormatBytes(e.OutputBytes)},
		{Label: "Elapsed", Value: display.FormatElapsed(e.Elapsed)},
	}
	if e.FellBack {
		fields = append(fields, display.Field{Label: "Fallback", Value: "hardware -> software"})
	}
	if e.ObjectURL != "" {
		fields = append(fields, display.Field{Label: "Uploaded", Value: e.ObjectURL})
	}
	if e.Error != "" {
		fields = append(fields, display.Field{Label: "Error", Value: e.Error})
	}
	return fields
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/synclog/internal/model"
	"github.com/alfredjeanlab/synclog/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printStatus(w io.Writer, info *model.SessionInfo) {
	fmt.Fprintf(w, "State:    %s\n", ui.RenderState(info.State))
	if info.ID != "" {
		fmt.Fprintf(w, "Session:  %s\n", info.ID)
	}
	sink := info.SinkIdentifier
	if sink == "" {
		sink = ui.RenderMuted("(none)")
	}
	fmt.Fprintf(w, "Sink:     %s\n", sink)
	if info.StartedAt != nil {
		fmt.Fprintf(w, "Started:  %s\n", info.StartedAt.Local().Format(timeLayout))
	}
	if info.State != model.StateEnabled {
		return
	}
	fmt.Fprintf(w, "Records:  %d\n", info.RecordCount)
	if info.DroppedCount > 0 {
		fmt.Fprintf(w, "Dropped:  %s\n", ui.RenderWarn(fmt.Sprint(info.DroppedCount)))
	}
	if len(info.Streams) == 0 {
		return
	}

	live := make(map[string]model.StreamLiveness, len(info.Liveness))
	for _, l := range info.Liveness {
		live[l.Stream] = l
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STREAM\tTYPE\tVALUES\tDROPS\tIDLE")
	for _, s := range info.Streams {
		l, ok := live[s.Name]
		idle := "-"
		if ok {
			idle = (time.Duration(l.IdleSecs * float64(time.Second))).Round(time.Second).String()
			if l.Stale {
				idle = ui.RenderWarn(idle + " stale")
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", s.Name, s.Type, l.ValueCount, l.DropCount, idle)
	}
	tw.Flush()
}

func printSessions(w io.Writer, sessions []*model.SessionSummary) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return
	}
	width := ui.DefaultWidth
	if f, ok := w.(*os.File); ok {
		width = ui.Width(f)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTOPPED\tRECORDS\tREASON\tSINK")
	for _, s := range sessions {
		stopped := ui.RenderAccent("running")
		if s.StoppedAt != nil {
			stopped = s.StoppedAt.Local().Format(timeLayout)
		}
		reason := s.StopReason
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID,
			s.StartedAt.Local().Format(timeLayout),
			stopped,
			s.RecordCount,
			reason,
			ui.Truncate(s.SinkIdentifier, width/3),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d sessions\n", len(sessions))
}

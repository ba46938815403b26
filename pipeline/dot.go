package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/xaionaro-go/mediagraph/filter"
	"github.com/xaionaro-go/xsync"
)

// DotString renders the graph in the graphviz format: a node per filter
// and an edge per connection (dashed for master/slave relations).
func (m *Manager) DotString(ctx context.Context, withStats bool) string {
	return xsync.DoR1(ctx, &m.locker, func() string {
		var result strings.Builder
		fmt.Fprintf(&result, "digraph Pipeline {\n")
		filters := m.filtersLocked()
		for _, f := range filters {
			fmt.Fprintf(&result, "\tnode_%d [label=\"%s\"]\n", f.ID(), sanitizeString(filterLabel(f, withStats)))
		}
		m.pauseLocked(ctx, filters, func() {
			for _, from := range filters {
				for _, to := range filters {
					for _, edge := range connections(from, to) {
						fmt.Fprintf(&result, "\tnode_%d -> node_%d [label=\"%d:%d\"]\n", from.ID(), to.ID(), edge.WriterID, edge.ReaderID)
					}
				}
				slaves := from.Slaves()
				sort.Slice(slaves, func(i, j int) bool { return slaves[i].ID() < slaves[j].ID() })
				for _, slave := range slaves {
					fmt.Fprintf(&result, "\tnode_%d -> node_%d [style=dashed]\n", from.ID(), slave.ID())
				}
			}
		})
		fmt.Fprintf(&result, "}\n")
		return result.String()
	})
}

func filterLabel(f *filter.Filter, withStats bool) string {
	label := fmt.Sprintf("%d: %s (%s)", f.ID(), f.Kernel(), f.Role())
	if !withStats {
		return label
	}
	stats := f.Statistics.ToStats()
	return fmt.Sprintf(
		"%s\nin: %s, out: %s\nframe time: %s x %.2f",
		label,
		humanize.SI(float64(stats.FramesIn), ""),
		humanize.SI(float64(stats.FramesOut), ""),
		stats.FrameTime, stats.FrameTimeMod,
	)
}

func sanitizeString(s string) string {
	s = strings.ReplaceAll(s, `"`, ``)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", ``)
	return s
}

// connections returns the writer/reader pairs sharing a queue.
func connections(from, to *filter.Filter) []Hop {
	var result []Hop
	writerIDs := from.WriterIDs()
	sort.Slice(writerIDs, func(i, j int) bool { return writerIDs[i] < writerIDs[j] })
	readerIDs := to.ReaderIDs()
	sort.Slice(readerIDs, func(i, j int) bool { return readerIDs[i] < readerIDs[j] })
	for _, writerID := range writerIDs {
		q := from.GetWriter(writerID).Queue()
		if q == nil {
			continue
		}
		for _, readerID := range readerIDs {
			if to.GetReader(readerID).Queue() == q {
				result = append(result, Hop{From: from.ID(), WriterID: writerID, To: to.ID(), ReaderID: readerID})
			}
		}
	}
	return result
}

// Package aggregate folds per-message statistics into grouped statistics and
// provides the size ordering used by the sink.
package aggregate

import (
	"sort"

	"github.com/dhcgn/mbox-stats/model"
)

type groupKey struct {
	fromAddr string
	labels   string
}

// Grouper accumulates stats into one bucket per distinct (sender, labels)
// pair, summing count and total size. Memory is bounded by the number of
// distinct keys, not the number of messages folded in.
type Grouper struct {
	index   map[groupKey]int
	grouped []model.Stat
}

func NewGrouper() *Grouper {
	return &Grouper{index: make(map[groupKey]int)}
}

func (g *Grouper) Add(stat model.Stat) {
	key := groupKey{fromAddr: stat.FromAddr, labels: stat.Labels}
	if i, ok := g.index[key]; ok {
		g.grouped[i].Count += stat.Count
		g.grouped[i].TotalSizeBytes += stat.TotalSizeBytes
		return
	}
	g.index[key] = len(g.grouped)
	g.grouped = append(g.grouped, stat)
}

// Stats returns the grouped tuples in the order each key was first seen.
func (g *Grouper) Stats() []model.Stat {
	return g.grouped
}

// Group reduces a finite stat slice in one call.
func Group(stats []model.Stat) []model.Stat {
	grouper := NewGrouper()
	for _, stat := range stats {
		grouper.Add(stat)
	}
	return grouper.Stats()
}

// SortBySize orders stats by total size ascending, in place. The sort is
// stable: tuples of equal size keep their relative order.
func SortBySize(stats []model.Stat) {
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalSizeBytes < stats[j].TotalSizeBytes
	})
}

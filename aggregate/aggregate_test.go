package aggregate

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dhcgn/mbox-stats/model"
)

func TestGroup(t *testing.T) {
	input := []model.Stat{
		{Count: 1, TotalSizeBytes: 100, FromAddr: "a@x.com", Labels: ""},
		{Count: 1, TotalSizeBytes: 200, FromAddr: "a@x.com", Labels: "Work"},
		{Count: 1, TotalSizeBytes: 300, FromAddr: "a@x.com", Labels: "Work"},
		{Count: 1, TotalSizeBytes: 50, FromAddr: "b@x.com", Labels: "Work"},
	}

	got := Group(input)
	want := []model.Stat{
		{Count: 1, TotalSizeBytes: 100, FromAddr: "a@x.com", Labels: ""},
		{Count: 2, TotalSizeBytes: 500, FromAddr: "a@x.com", Labels: "Work"},
		{Count: 1, TotalSizeBytes: 50, FromAddr: "b@x.com", Labels: "Work"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Group() mismatch (-want +got):\n%s", diff)
	}
}

// Grouping must conserve both message count and total bytes.
func TestGroupConservation(t *testing.T) {
	input := []model.Stat{
		{Count: 1, TotalSizeBytes: 10, FromAddr: "a", Labels: "x"},
		{Count: 1, TotalSizeBytes: 20, FromAddr: "b", Labels: "x"},
		{Count: 1, TotalSizeBytes: 30, FromAddr: "a", Labels: "x"},
		{Count: 1, TotalSizeBytes: 40, FromAddr: "a", Labels: "y"},
	}

	var wantCount, wantSize int64
	for _, stat := range input {
		wantCount += stat.Count
		wantSize += stat.TotalSizeBytes
	}

	var gotCount, gotSize int64
	for _, stat := range Group(input) {
		gotCount += stat.Count
		gotSize += stat.TotalSizeBytes
	}

	if gotCount != wantCount {
		t.Errorf("summed count = %d, want %d", gotCount, wantCount)
	}
	if gotSize != wantSize {
		t.Errorf("summed size = %d, want %d", gotSize, wantSize)
	}
}

func TestGroupEmpty(t *testing.T) {
	if got := Group(nil); len(got) != 0 {
		t.Errorf("Group(nil) = %v, want empty", got)
	}
}

func TestSortBySize(t *testing.T) {
	stats := []model.Stat{
		{Count: 1, TotalSizeBytes: 300, FromAddr: "c"},
		{Count: 1, TotalSizeBytes: 100, FromAddr: "a"},
		{Count: 1, TotalSizeBytes: 200, FromAddr: "first-tie"},
		{Count: 1, TotalSizeBytes: 200, FromAddr: "second-tie"},
	}

	SortBySize(stats)

	want := []model.Stat{
		{Count: 1, TotalSizeBytes: 100, FromAddr: "a"},
		{Count: 1, TotalSizeBytes: 200, FromAddr: "first-tie"},
		{Count: 1, TotalSizeBytes: 200, FromAddr: "second-tie"},
		{Count: 1, TotalSizeBytes: 300, FromAddr: "c"},
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("SortBySize() mismatch (-want +got):\n%s", diff)
	}

	// Sorting a sorted sequence is a fixed point.
	again := append([]model.Stat(nil), stats...)
	SortBySize(again)
	if diff := cmp.Diff(stats, again); diff != "" {
		t.Errorf("SortBySize() is not idempotent (-first +second):\n%s", diff)
	}
}

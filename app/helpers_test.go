package app

import (
	"runtime"
	"testing"
)

func TestParsePositiveInt(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := parsePositiveInt("42")
		if err != nil || got != 42 {
			t.Fatalf("parsePositiveInt valid = (%d,%v), want (42,nil)", got, err)
		}
	})
	t.Run("invalid", func(t *testing.T) {
		if _, err := parsePositiveInt("not-an-int"); err == nil {
			t.Fatalf("parsePositiveInt should error for invalid input")
		}
	})
}

func TestGetWorkerCount(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("WORKERS", "")
		if got, want := GetWorkerCount(), runtime.NumCPU(); got != want {
			t.Fatalf("GetWorkerCount default = %d, want %d", got, want)
		}
	})

	t.Run("override", func(t *testing.T) {
		t.Setenv("WORKERS", "5")
		if got := GetWorkerCount(); got != 5 {
			t.Fatalf("GetWorkerCount override = %d, want 5", got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv("WORKERS", "not-a-number")
		if got, want := GetWorkerCount(), runtime.NumCPU(); got != want {
			t.Fatalf("GetWorkerCount invalid fallback = %d, want %d", got, want)
		}
	})
}

func TestBatchCount(t *testing.T) {
	cases := []struct {
		total, size, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := batchCount(tc.total, tc.size); got != tc.want {
			t.Fatalf("batchCount(%d, %d) = %d, want %d", tc.total, tc.size, got, tc.want)
		}
	}
}

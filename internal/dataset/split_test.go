package dataset

import (
	"math/rand/v2"
	"sort"
	"testing"
)

func TestTrainTestSplit(t *testing.T) {
	split, err := TrainTestSplit(30, 0.33, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(split.Test) != 10 || len(split.Train) != 20 {
		t.Fatalf("expected 20/10, got %d/%d", len(split.Train), len(split.Test))
	}
	assertPartition(t, split, 30)
}

func TestTrainTestSplitValidation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, size := range []float64{0, 1, -0.5} {
		if _, err := TrainTestSplit(10, size, rng); err == nil {
			t.Fatalf("expected error for test size %v", size)
		}
	}
	if _, err := TrainTestSplit(1, 0.5, rng); err == nil {
		t.Fatal("expected error for single row")
	}
}

func TestStratifiedShuffleSplitPreservesProportions(t *testing.T) {
	ds, err := Builtin("blobs", rand.New(rand.NewPCG(4, 4)))
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	splits, err := StratifiedShuffleSplit(ds.Labels, 5, 0.5, rand.New(rand.NewPCG(5, 5)))
	if err != nil {
		t.Fatalf("stratified split: %v", err)
	}
	if len(splits) != 5 {
		t.Fatalf("expected 5 splits, got %d", len(splits))
	}
	for _, split := range splits {
		assertPartition(t, split, ds.Rows())
		counts := map[string]int{}
		for _, idx := range split.Test {
			counts[ds.Labels[idx]]++
		}
		for class, n := range counts {
			if n != 25 {
				t.Fatalf("class %s: expected 25 test rows, got %d", class, n)
			}
		}
	}
	if equalInts(splits[0].Test, splits[1].Test) {
		t.Fatal("expected independent shuffles")
	}
}

func TestStratifiedShuffleSplitUnevenClasses(t *testing.T) {
	labels := []string{"a", "a", "a", "a", "a", "a", "b", "b", "c", "c", "c"}
	splits, err := StratifiedShuffleSplit(labels, 3, 0.5, rand.New(rand.NewPCG(6, 6)))
	if err != nil {
		t.Fatalf("stratified split: %v", err)
	}
	for _, split := range splits {
		assertPartition(t, split, len(labels))
		if len(split.Test) != 6 {
			t.Fatalf("expected ceil(0.5*11)=6 test rows, got %d", len(split.Test))
		}
		seenTrain, seenTest := map[string]bool{}, map[string]bool{}
		for _, idx := range split.Train {
			seenTrain[labels[idx]] = true
		}
		for _, idx := range split.Test {
			seenTest[labels[idx]] = true
		}
		if len(seenTrain) != 3 || len(seenTest) != 3 {
			t.Fatalf("expected every class on both sides, got train=%v test=%v", seenTrain, seenTest)
		}
	}
}

func TestStratifiedShuffleSplitKeepsTestCountWithSmallClass(t *testing.T) {
	labels := []string{"a", "a", "a", "a", "a", "a", "a", "a", "a", "a", "b", "b"}
	splits, err := StratifiedShuffleSplit(labels, 4, 0.1, rand.New(rand.NewPCG(8, 8)))
	if err != nil {
		t.Fatalf("stratified split: %v", err)
	}
	for _, split := range splits {
		assertPartition(t, split, len(labels))
		if len(split.Test) != 2 {
			t.Fatalf("expected ceil(0.1*12)=2 test rows, got %d", len(split.Test))
		}
		counts := map[string]int{}
		for _, idx := range split.Test {
			counts[labels[idx]]++
		}
		if counts["a"] != 1 || counts["b"] != 1 {
			t.Fatalf("expected one test row per class, got %v", counts)
		}
	}
}

func TestAllocateSumsToTestCount(t *testing.T) {
	cases := []struct {
		sizes []int
		nTest int
	}{
		{[]int{10, 2}, 2},
		{[]int{10, 2}, 10},
		{[]int{6, 2, 3}, 6},
		{[]int{50, 50, 50}, 75},
		{[]int{2, 2, 2, 30}, 4},
	}
	for _, tc := range cases {
		groups := make([][]int, len(tc.sizes))
		n := 0
		for class, size := range tc.sizes {
			groups[class] = make([]int, size)
			n += size
		}
		quota := allocate(groups, n, tc.nTest)
		total := 0
		for class, q := range quota {
			if q < 1 || q > tc.sizes[class]-1 {
				t.Fatalf("sizes %v nTest %d: class %d quota %d leaves a side empty", tc.sizes, tc.nTest, class, q)
			}
			total += q
		}
		if total != tc.nTest {
			t.Fatalf("sizes %v: quotas %v sum to %d, want %d", tc.sizes, quota, total, tc.nTest)
		}
	}
}

func TestStratifiedShuffleSplitRejectsSingletonClass(t *testing.T) {
	if _, err := StratifiedShuffleSplit([]string{"a", "a", "b"}, 1, 0.5, rand.New(rand.NewPCG(1, 1))); err == nil {
		t.Fatal("expected singleton class error")
	}
}

func assertPartition(t *testing.T, split Split, n int) {
	t.Helper()
	all := append(append([]int(nil), split.Train...), split.Test...)
	sort.Ints(all)
	if len(all) != n {
		t.Fatalf("expected %d indices, got %d", n, len(all))
	}
	for i, idx := range all {
		if idx != i {
			t.Fatalf("partition is not a permutation of [0,%d): %v", n, all)
		}
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

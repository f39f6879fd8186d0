package dataset

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/pkg/errors"
)

// Split holds row indices for one train/test partition.
type Split struct {
	Train []int
	Test  []int
}

func testCount(n int, testSize float64) (int, error) {
	if testSize <= 0 || testSize >= 1 {
		return 0, errors.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest == 0 || nTest >= n {
		return 0, errors.Errorf("test size %v leaves an empty partition for %d rows", testSize, n)
	}
	return nTest, nil
}

// TrainTestSplit shuffles [0, n) and holds out ceil(testSize*n) rows.
func TrainTestSplit(n int, testSize float64, rng *rand.Rand) (Split, error) {
	nTest, err := testCount(n, testSize)
	if err != nil {
		return Split{}, err
	}
	perm := rng.Perm(n)
	return Split{Train: perm[nTest:], Test: perm[:nTest]}, nil
}

// StratifiedShuffleSplit draws iterations independent shuffled partitions
// that preserve class proportions in both halves.
func StratifiedShuffleSplit(labels []string, iterations int, testSize float64, rng *rand.Rand) ([]Split, error) {
	if iterations <= 0 {
		return nil, errors.Errorf("iterations must be > 0, got %d", iterations)
	}
	n := len(labels)
	nTest, err := testCount(n, testSize)
	if err != nil {
		return nil, err
	}

	encoder := FitLabelEncoder(labels)
	groups := make([][]int, encoder.NumClasses())
	for i, label := range labels {
		idx, _ := encoder.Encode(label)
		groups[idx] = append(groups[idx], i)
	}
	for class, members := range groups {
		if len(members) < 2 {
			return nil, errors.Errorf("class %q has %d member; stratification needs at least 2", encoder.classes[class], len(members))
		}
	}
	if nTest < len(groups) || n-nTest < len(groups) {
		return nil, errors.Errorf("%d test rows cannot represent %d classes", nTest, len(groups))
	}
	quota := allocate(groups, n, nTest)

	splits := make([]Split, iterations)
	for it := range splits {
		var split Split
		for class, members := range groups {
			shuffled := append([]int(nil), members...)
			rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
			split.Test = append(split.Test, shuffled[:quota[class]]...)
			split.Train = append(split.Train, shuffled[quota[class]:]...)
		}
		rng.Shuffle(len(split.Train), func(i, j int) { split.Train[i], split.Train[j] = split.Train[j], split.Train[i] })
		rng.Shuffle(len(split.Test), func(i, j int) { split.Test[i], split.Test[j] = split.Test[j], split.Test[i] })
		splits[it] = split
	}
	return splits, nil
}

// allocate distributes nTest test rows across classes by largest remainder,
// keeping at least one row of every class on each side. Callers guarantee
// len(groups) <= nTest <= n-len(groups).
func allocate(groups [][]int, n, nTest int) []int {
	quota := make([]int, len(groups))
	remainders := make([]float64, len(groups))
	assigned := 0
	for class, members := range groups {
		exact := float64(len(members)) * float64(nTest) / float64(n)
		quota[class] = min(max(int(math.Floor(exact)), 1), len(members)-1)
		remainders[class] = exact - float64(quota[class])
		assigned += quota[class]
	}
	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return remainders[order[i]] > remainders[order[j]] })

	for assigned < nTest {
		for _, class := range order {
			if assigned == nTest {
				break
			}
			if quota[class] < len(groups[class])-1 {
				quota[class]++
				assigned++
			}
		}
	}
	for assigned > nTest {
		for i := len(order) - 1; i >= 0 && assigned > nTest; i-- {
			class := order[i]
			if quota[class] > 1 {
				quota[class]--
				assigned--
			}
		}
	}
	return quota
}

package forecast

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"slices"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RandomForest is a bagged ensemble of CART regression trees. Every split considers all
// features and minimises the summed squared error of the two children.
type RandomForest struct {
	nTrees   int
	maxDepth int
	minLeaf  int
	seed     uint64
	trees    []*treeNode
}

// NewRandomForest creates an unfitted forest.
func NewRandomForest(trees, maxDepth, minLeaf int, seed uint64) *RandomForest {
	if trees <= 0 {
		trees = 100
	}
	if minLeaf <= 0 {
		minLeaf = 1
	}
	return &RandomForest{nTrees: trees, maxDepth: maxDepth, minLeaf: minLeaf, seed: seed}
}

// Fit grows every tree on its own bootstrap sample. Tree i always draws from the same
// random stream, so the result does not depend on scheduling.
func (f *RandomForest) Fit(x [][]float64, y []float64) error {
	if err := checkTrainingSet(x, y); err != nil {
		return err
	}

	trees := make([]*treeNode, f.nTrees)
	errs := make([]error, f.nTrees)

	workers := runtime.GOMAXPROCS(0)
	if workers > f.nTrees {
		workers = f.nTrees
	}
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				trees[t], errs[t] = f.growTree(x, y, t)
			}
		}()
	}
	for t := 0; t < f.nTrees; t++ {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	for t, err := range errs {
		if err != nil {
			return fmt.Errorf("tree %d: %w", t, err)
		}
	}

	f.trees = trees
	return nil
}

func (f *RandomForest) growTree(x [][]float64, y []float64, t int) (root *treeNode, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic growing tree: %v", p)
		}
	}()

	rng := rand.New(rand.NewPCG(f.seed, uint64(t)))
	sample := make([]int, len(y))
	for i := range sample {
		sample[i] = rng.IntN(len(y))
	}

	b := treeBuilder{x: x, y: y, maxDepth: f.maxDepth, minLeaf: f.minLeaf}
	return b.build(sample, 0), nil
}

// Predict averages the predictions of all trees. An unfitted forest predicts 0.
func (f *RandomForest) Predict(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	preds := make([]float64, len(f.trees))
	for i, t := range f.trees {
		preds[i] = t.predict(x)
	}
	return stat.Mean(preds, nil)
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
}

func (n *treeNode) predict(x []float64) float64 {
	for n.left != nil {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

type treeBuilder struct {
	x        [][]float64
	y        []float64
	maxDepth int
	minLeaf  int
}

func (b *treeBuilder) build(idx []int, depth int) *treeNode {
	ys := make([]float64, len(idx))
	for i, j := range idx {
		ys[i] = b.y[j]
	}
	node := &treeNode{value: stat.Mean(ys, nil)}

	if len(idx) < 2*b.minLeaf || (b.maxDepth > 0 && depth >= b.maxDepth) || floats.Max(ys) == floats.Min(ys) {
		return node
	}

	feature, threshold, ok := b.bestSplit(idx, ys)
	if !ok {
		return node
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, j := range idx {
		if b.x[j][feature] <= threshold {
			left = append(left, j)
		} else {
			right = append(right, j)
		}
	}

	node.feature = feature
	node.threshold = threshold
	node.left = b.build(left, depth+1)
	node.right = b.build(right, depth+1)
	return node
}

// bestSplit scans every feature for the threshold with the lowest child SSE.
func (b *treeBuilder) bestSplit(idx []int, ys []float64) (int, float64, bool) {
	n := len(idx)
	sum := floats.Sum(ys)
	sumSq := floats.Dot(ys, ys)
	best := sumSq - sum*sum/float64(n)

	var (
		bestFeature   int
		bestThreshold float64
		found         bool
	)

	sorted := make([]int, n)
	for feature := range b.x[idx[0]] {
		copy(sorted, idx)
		slices.SortFunc(sorted, func(a, c int) int {
			switch va, vc := b.x[a][feature], b.x[c][feature]; {
			case va < vc:
				return -1
			case va > vc:
				return 1
			default:
				return 0
			}
		})

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			yk := b.y[sorted[k]]
			leftSum += yk
			leftSq += yk * yk

			nl, nr := k+1, n-k-1
			if nl < b.minLeaf || nr < b.minLeaf {
				continue
			}
			cur, next := b.x[sorted[k]][feature], b.x[sorted[k+1]][feature]
			if cur == next {
				continue
			}

			rightSum, rightSq := sum-leftSum, sumSq-leftSq
			cost := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if cost < best-1e-12 {
				best = cost
				bestFeature = feature
				bestThreshold = (cur + next) / 2
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}

package forecast

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a regression tree. Leaves carry the mean target of
// the samples that reached them.
type treeNode struct {
	feature   int
	threshold float64
	value     float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) isLeaf() bool {
	return n.left == nil && n.right == nil
}

func (n *treeNode) predict(row []float64) float64 {
	node := n
	for !node.isLeaf() {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

type treeParams struct {
	maxDepth    int
	minLeaf     int
	featureFrac float64
}

// buildTree grows a depth-limited regression tree by variance-reduction
// splitting. featureFrac < 1 samples a random feature subset per split.
func buildTree(rows [][]float64, targets []float64, indices []int, depth int, p treeParams, rng *rand.Rand) *treeNode {
	node := &treeNode{value: meanAt(targets, indices)}
	if depth >= p.maxDepth || len(indices) < 2*p.minLeaf {
		return node
	}

	width := len(rows[0])
	candidates := featureSubset(width, p.featureFrac, rng)

	bestFeature := -1
	bestThreshold := 0.0
	bestScore := math.Inf(1)
	parentSSE := sseAt(targets, indices, node.value)

	for _, f := range candidates {
		sorted := append([]int{}, indices...)
		sort.Slice(sorted, func(i, j int) bool { return rows[sorted[i]][f] < rows[sorted[j]][f] })

		for i := p.minLeaf; i <= len(sorted)-p.minLeaf; i++ {
			if rows[sorted[i-1]][f] == rows[sorted[i]][f] {
				continue
			}
			left := sorted[:i]
			right := sorted[i:]
			score := sseAt(targets, left, meanAt(targets, left)) + sseAt(targets, right, meanAt(targets, right))
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = (rows[sorted[i-1]][f] + rows[sorted[i]][f]) / 2
			}
		}
	}

	if bestFeature < 0 || bestScore >= parentSSE {
		return node
	}

	var leftIdx, rightIdx []int
	for _, i := range indices {
		if rows[i][bestFeature] <= bestThreshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) < p.minLeaf || len(rightIdx) < p.minLeaf {
		return node
	}

	node.feature = bestFeature
	node.threshold = bestThreshold
	node.left = buildTree(rows, targets, leftIdx, depth+1, p, rng)
	node.right = buildTree(rows, targets, rightIdx, depth+1, p, rng)
	return node
}

func featureSubset(width int, frac float64, rng *rand.Rand) []int {
	if frac >= 1 || frac <= 0 {
		all := make([]int, width)
		for i := range all {
			all[i] = i
		}
		return all
	}
	count := int(math.Ceil(frac * float64(width)))
	if count < 1 {
		count = 1
	}
	perm := rng.Perm(width)
	subset := append([]int{}, perm[:count]...)
	sort.Ints(subset)
	return subset
}

func meanAt(targets []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range indices {
		sum += targets[i]
	}
	return sum / float64(len(indices))
}

func sseAt(targets []float64, indices []int, mean float64) float64 {
	sse := 0.0
	for _, i := range indices {
		diff := targets[i] - mean
		sse += diff * diff
	}
	return sse
}

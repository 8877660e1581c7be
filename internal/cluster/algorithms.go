package cluster

import (
	"context"
	"math/rand"
	"sort"
)

// kMedoids partitions n items into at most k groups. Each group is
// represented by its medoid, the member with the smallest total distance to
// the other members. The first medoid is drawn from rng and the rest are
// chosen farthest-first, so a fixed seed gives a fixed partition. ctx is
// checked between iterations.
func kMedoids(ctx context.Context, dist [][]float64, k, maxIter int, rng *rand.Rand) ([][]int, error) {
	n := len(dist)
	if k > n {
		k = n
	}
	if k <= 1 {
		return [][]int{seq(n)}, nil
	}

	medoids := initialMedoids(dist, k, rng)
	assign := make([]int, n)

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		assignNearest(dist, medoids, assign)

		changed := false
		for c := range medoids {
			m := medoidOf(dist, members(assign, c))
			if m >= 0 && m != medoids[c] {
				medoids[c] = m
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	assignNearest(dist, medoids, assign)

	groups := make([][]int, 0, k)
	for c := range medoids {
		if g := members(assign, c); len(g) > 0 {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// initialMedoids picks a random first medoid, then repeatedly the item
// farthest from its nearest chosen medoid (ties go to the lower index)
func initialMedoids(dist [][]float64, k int, rng *rand.Rand) []int {
	n := len(dist)
	chosen := make([]bool, n)
	first := rng.Intn(n)
	medoids := []int{first}
	chosen[first] = true

	nearest := append([]float64(nil), dist[first]...)
	for len(medoids) < k {
		next := -1
		for i := 0; i < n; i++ {
			if !chosen[i] && (next < 0 || nearest[i] > nearest[next]) {
				next = i
			}
		}
		medoids = append(medoids, next)
		chosen[next] = true
		for i := range nearest {
			if dist[next][i] < nearest[i] {
				nearest[i] = dist[next][i]
			}
		}
	}
	sort.Ints(medoids)
	return medoids
}

// assignNearest assigns each item to its nearest medoid; ties go to the
// lower cluster index
func assignNearest(dist [][]float64, medoids []int, assign []int) {
	for i := range dist {
		best := 0
		for c := 1; c < len(medoids); c++ {
			if dist[i][medoids[c]] < dist[i][medoids[best]] {
				best = c
			}
		}
		assign[i] = best
	}
}

// medoidOf returns the member with the smallest summed distance to the other
// members, or -1 for an empty group. Ties go to the lower index.
func medoidOf(dist [][]float64, group []int) int {
	best, bestSum := -1, 0.0
	for _, i := range group {
		var sum float64
		for _, j := range group {
			sum += dist[i][j]
		}
		if best < 0 || sum < bestSum {
			best, bestSum = i, sum
		}
	}
	return best
}

func members(assign []int, c int) []int {
	var out []int
	for i, a := range assign {
		if a == c {
			out = append(out, i)
		}
	}
	return out
}

// agglomerative merges the two closest groups, by average linkage, until k
// groups remain. ctx is checked between merges.
func agglomerative(ctx context.Context, dist [][]float64, k int) ([][]int, error) {
	n := len(dist)
	if k < 1 {
		k = 1
	}

	groups := make([][]int, n)
	link := make([][]float64, n)
	for i := range groups {
		groups[i] = []int{i}
		link[i] = append([]float64(nil), dist[i]...)
	}
	alive := make([]bool, n)
	for i := range alive {
		alive[i] = true
	}

	for remaining := n; remaining > k; remaining-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a, b := -1, -1
		for i := 0; i < n; i++ {
			if !alive[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if alive[j] && (a < 0 || link[i][j] < link[a][b]) {
					a, b = i, j
				}
			}
		}

		// Lance-Williams update for average linkage
		na, nb := float64(len(groups[a])), float64(len(groups[b]))
		for c := 0; c < n; c++ {
			if !alive[c] || c == a || c == b {
				continue
			}
			d := (na*link[a][c] + nb*link[b][c]) / (na + nb)
			link[a][c], link[c][a] = d, d
		}
		groups[a] = append(groups[a], groups[b]...)
		sort.Ints(groups[a])
		groups[b] = nil
		alive[b] = false
	}

	out := make([][]int, 0, k)
	for i, g := range groups {
		if alive[i] {
			out = append(out, g)
		}
	}
	return out, nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

package services

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/anonto42/pinpost/backend/internal/models"
)

// rankByPopularity orders posts by visits, then favourite count, both
// descending. The sort is stable so remaining ties keep their input order.
func rankByPopularity(posts []models.Post) {
	slices.SortStableFunc(posts, func(a, b models.Post) int {
		if c := cmp.Compare(b.Visited, a.Visited); c != 0 {
			return c
		}
		return cmp.Compare(b.Likes(), a.Likes())
	})
}

// sampleIDs draws min(k, len(ids)) distinct ids uniformly without replacement
// using a partial Fisher-Yates shuffle. ids is not modified.
func sampleIDs(ids []uint, k int, rng *rand.Rand) []uint {
	if k > len(ids) {
		k = len(ids)
	}
	if k <= 0 {
		return []uint{}
	}
	pool := slices.Clone(ids)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// orderByIDs arranges posts to follow ids, dropping ids with no post.
func orderByIDs(posts []models.Post, ids []uint) []models.Post {
	byID := make(map[uint]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

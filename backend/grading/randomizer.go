package grading

import (
	"math/rand"
	"sort"

	"examhub/backend/models"
)

// Sequence produces the question order presented to a new attempt. With
// randomize unset and no pool size it returns the input order unchanged.
// A pool size smaller than the binding count selects a random subset; when
// randomize is unset the subset keeps its original display order.
//
// No seed is persisted: calling Sequence twice for the same attempt is not
// guaranteed to reproduce the same order, and callers must not rely on it.
func Sequence(bound []models.ExamQuestion, randomize bool, poolSize *int) []models.ExamQuestion {
	out := make([]models.ExamQuestion, len(bound))
	copy(out, bound)

	if poolSize != nil && *poolSize > 0 && *poolSize < len(out) {
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		out = out[:*poolSize]
		if !randomize {
			sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
		}
		return out
	}

	if randomize {
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out
}

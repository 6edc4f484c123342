// Package msgsync keeps client-side messaging state consistent while
// background polling of the conversation list, background polling of
// the open thread, and user-triggered actions interleave on it.
package msgsync

import (
	"sort"

	"github.com/classline/classline/internal/models"
)

// Merge unions two message batches into one thread-ordered batch.
//
// Membership is keyed by message ID; when both batches carry the same
// ID the copy from b wins. That is safe because the only mutable field,
// IsRead, only ever transitions false to true, so the later-fetched
// copy is never a regression. The result is sorted ascending by
// creation time with ID as tie-break, contains no duplicate IDs, and
// its membership does not depend on argument order.
func Merge(a, b []models.Message) []models.Message {
	byID := make(map[string]models.Message, len(a)+len(b))
	for _, msg := range a {
		byID[msg.ID] = msg
	}
	for _, msg := range b {
		byID[msg.ID] = msg
	}

	merged := make([]models.Message, 0, len(byID))
	for _, msg := range byID {
		merged = append(merged, msg)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Before(merged[j])
	})
	return merged
}

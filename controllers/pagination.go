package controllers

import (
	"strconv"

	"github.com/opentalk/forum/models"
)

// replyPage is the result of slicing a thread's ordered reply sequence.
type replyPage struct {
	Items      []models.Reply
	Best       *models.Reply
	Page       int
	TotalPages int
	Total      int
}

// paginateReplies slices the ordered reply sequence into a page window.
//
// The requested page is clamped into [1, totalPages]; a thread with no replies
// still reports one (empty) page. The best reply, when designated, is pulled
// from the FULL sequence so it is returned regardless of which page it falls
// on, and removed from the in-page slice when it would otherwise appear twice.
func paginateReplies(all []models.Reply, page, pageSize int, bestReplyID *uint) replyPage {
	total := len(all)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	items := all[start:end]

	var best *models.Reply
	if bestReplyID != nil {
		for i := range all {
			if all[i].ID == *bestReplyID {
				best = &all[i]
				break
			}
		}
	}
	if best != nil {
		deduped := make([]models.Reply, 0, len(items))
		for _, r := range items {
			if r.ID != best.ID {
				deduped = append(deduped, r)
			}
		}
		items = deduped
	}

	return replyPage{
		Items:      items,
		Best:       best,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}
}

// parsePage degrades bad input to page 1; a bad page value must never fail the
// whole aggregation.
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/liveplus/models"
	"github.com/cppla/liveplus/store"
	"github.com/cppla/liveplus/utils"
)

// StatsController provides portal statistics computed from a snapshot.
type StatsController struct {
	store *store.Store
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(st *store.Store) *StatsController {
	return &StatsController{store: st}
}

// GetStats returns aggregate statistics for the portal.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var published, drafts, views, comments, reactions int64
	byCategory := make(map[models.Category]int, len(models.Categories))
	for _, c := range models.Categories {
		byCategory[c] = 0
	}

	for _, p := range s.store.Snapshot() {
		if !p.Published() {
			drafts++
			continue
		}
		published++
		views += p.Views
		comments += int64(len(p.Comments))
		reactions += int64(p.Reactions.Total())
		byCategory[p.Category]++
	}

	utils.Success(ctx, gin.H{
		"post_count":     published,
		"draft_count":    drafts,
		"view_count":     views,
		"comment_count":  comments,
		"reaction_count": reactions,
		"by_category":    byCategory,
	})
}

package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/liveplus/models"
	"github.com/cppla/liveplus/share"
	"github.com/cppla/liveplus/store"
	"github.com/cppla/liveplus/utils"
)

// PostController serves the public feed: listing, opening, comments,
// reactions and share links.
type PostController struct {
	store     *store.Store
	shareBase string
}

// NewPostController creates a new PostController instance.
func NewPostController(st *store.Store, shareBase string) *PostController {
	return &PostController{store: st, shareBase: strings.TrimRight(shareBase, "/")}
}

// ListPosts returns published posts filtered by category and search text.
func (p *PostController) ListPosts(ctx *gin.Context) {
	q, ok := parseQuery(ctx, store.Public)
	if !ok {
		return
	}
	posts := p.store.List(q)
	utils.Success(ctx, gin.H{
		"posts": posts,
		"total": len(posts),
	})
}

// GetPost opens a post, which counts one view.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, ok := p.store.Open(ctx.Request.Context(), ctx.Param("id"), store.Public)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	utils.Success(ctx, post)
}

// CreateComment prepends a comment to a published post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	text := utils.SanitizeText(req.Text)
	if strings.TrimSpace(text) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "comment cannot be empty")
		return
	}

	id := ctx.Param("id")
	if _, ok := p.store.Get(id, store.Public); !ok {
		utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
		return
	}
	post, ok := p.store.AddComment(ctx.Request.Context(), id, text)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
		return
	}
	utils.Created(ctx, post)
}

// React adds one click to an emoji counter.
func (p *PostController) React(ctx *gin.Context) {
	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	id := ctx.Param("id")
	if _, ok := p.store.Get(id, store.Public); !ok {
		utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
		return
	}
	post, ok, err := p.store.React(ctx.Request.Context(), id, req.Emoji)
	switch {
	case errors.Is(err, store.ErrInvalidReaction):
		utils.Error(ctx, http.StatusBadRequest, 40031, "reaction not allowed")
		return
	case !ok:
		utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
		return
	}
	utils.Success(ctx, gin.H{
		"id":        post.ID,
		"reactions": post.Reactions,
	})
}

// Share builds the share link for a published post.
func (p *PostController) Share(ctx *gin.Context) {
	id := ctx.Param("id")
	post, ok := p.store.Get(id, store.Public)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40404, "post not found")
		return
	}

	pageURL := strings.TrimSpace(ctx.Query("url"))
	if pageURL == "" {
		pageURL = p.shareBase + "/posts/" + id
	}
	platform := share.Platform(strings.ToLower(ctx.DefaultQuery("platform", string(share.WhatsApp))))
	link, err := share.Build(platform, post.Title, pageURL)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "unknown share platform")
		return
	}
	utils.Success(ctx, link)
}

// parseQuery reads category and search. An unknown category is a 400.
func parseQuery(ctx *gin.Context, aud store.Audience) (store.Query, bool) {
	q := store.Query{
		Audience: aud,
		Category: models.Category(strings.TrimSpace(ctx.Query("category"))),
		Search:   strings.TrimSpace(ctx.Query("search")),
	}
	if q.Category != "" && !q.Category.Valid() {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid category")
		return q, false
	}
	return q, true
}

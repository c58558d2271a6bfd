package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/liveplus/media"
	"github.com/cppla/liveplus/middleware"
	"github.com/cppla/liveplus/models"
	"github.com/cppla/liveplus/store"
	"github.com/cppla/liveplus/utils"
)

// AdminController handles the access-code gate and post authoring.
type AdminController struct {
	store          *store.Store
	issuer         *utils.TokenIssuer
	blacklist      *utils.TokenBlacklist
	accessCode     string
	accessCodeHash string
}

// NewAdminController creates a new AdminController instance.
func NewAdminController(st *store.Store, issuer *utils.TokenIssuer, blacklist *utils.TokenBlacklist, accessCode, accessCodeHash string) *AdminController {
	return &AdminController{
		store:          st,
		issuer:         issuer,
		blacklist:      blacklist,
		accessCode:     accessCode,
		accessCodeHash: accessCodeHash,
	}
}

type postRequest struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Category  string `json:"category"`
	MediaType string `json:"mediaType"`
	MediaURL  string `json:"mediaUrl"`
	Author    string `json:"author"`
	Status    string `json:"status"`
	Publish   bool   `json:"publish"`
}

// Login exchanges the access code for a session token.
func (a *AdminController) Login(ctx *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	if !utils.CheckAccessCode(req.Code, a.accessCode, a.accessCodeHash) {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "Código incorreto.")
		return
	}

	token, claims, err := a.issuer.GenerateToken(utils.RoleAdmin)
	if err != nil {
		utils.Sugar.Errorf("issue admin token: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to issue token")
		return
	}
	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_at": claims.ExpiresAt.Time,
	})
}

// Logout revokes the presented token.
func (a *AdminController) Logout(ctx *gin.Context) {
	claims, ok := middleware.AdminClaims(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	a.blacklist.Revoke(claims.ID, claims.ExpiresAt.Time)
	utils.Success(ctx, gin.H{"logged_out": true})
}

// ListPosts returns posts of every status.
func (a *AdminController) ListPosts(ctx *gin.Context) {
	q, ok := parseQuery(ctx, store.Admin)
	if !ok {
		return
	}
	posts := a.store.List(q)
	utils.Success(ctx, gin.H{
		"posts": posts,
		"total": len(posts),
	})
}

// GetPost loads a post for editing without counting a view.
func (a *AdminController) GetPost(ctx *gin.Context) {
	post, ok := a.store.Get(ctx.Param("id"), store.Admin)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40410, "post not found")
		return
	}
	utils.Success(ctx, post)
}

// SavePost creates a post, or updates it when the body carries a known id.
func (a *AdminController) SavePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	a.save(ctx, req)
}

// UpdatePost updates the post named in the path.
func (a *AdminController) UpdatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	req.ID = ctx.Param("id")
	if _, ok := a.store.Get(req.ID, store.Admin); !ok {
		utils.Error(ctx, http.StatusNotFound, 40411, "post not found")
		return
	}
	a.save(ctx, req)
}

func (a *AdminController) save(ctx *gin.Context, req postRequest) {
	in := store.PostInput{
		ID:        strings.TrimSpace(req.ID),
		Title:     utils.SanitizeLine(req.Title),
		Content:   utils.SanitizeText(req.Content),
		Category:  models.Category(strings.TrimSpace(req.Category)),
		MediaType: models.MediaType(strings.TrimSpace(req.MediaType)),
		Author:    utils.SanitizeLine(req.Author),
		Status:    models.Status(strings.TrimSpace(req.Status)),
	}
	if req.Publish {
		in.Status = models.StatusPublished
	}
	if raw := strings.TrimSpace(req.MediaURL); raw != "" && in.MediaType != models.MediaNone && in.MediaType != "" {
		u, err := media.FromRemoteURL(raw)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40024, "invalid media url")
			return
		}
		in.MediaURL = u
	}

	post, err := a.store.Save(ctx.Request.Context(), in)
	if err != nil {
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			utils.Respond(ctx, http.StatusBadRequest, 40021, verr.Error(), gin.H{"field": verr.Field})
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to save post")
		return
	}
	utils.Success(ctx, post)
}

// PublishPost publishes immediately and moves the post to the top of the feed.
func (a *AdminController) PublishPost(ctx *gin.Context) {
	post, ok := a.store.Publish(ctx.Request.Context(), ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40412, "post not found")
		return
	}
	utils.Success(ctx, post)
}

// DeletePost removes a post. The caller must pass confirm=true.
func (a *AdminController) DeletePost(ctx *gin.Context) {
	if ctx.Query("confirm") != "true" {
		utils.Error(ctx, http.StatusBadRequest, 40050, "deletion requires confirm=true")
		return
	}
	if !a.store.Delete(ctx.Request.Context(), ctx.Param("id")) {
		utils.Error(ctx, http.StatusNotFound, 40413, "post not found")
		return
	}
	utils.Success(ctx, gin.H{"deleted": true})
}

// UploadMedia converts an uploaded file into an inline data URL.
func (a *AdminController) UploadMedia(ctx *gin.Context) {
	mediaType := models.MediaType(strings.TrimSpace(ctx.PostForm("mediaType")))
	if !mediaType.Valid() || mediaType == models.MediaNone {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid media type")
		return
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40061, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to read upload")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to read upload")
		return
	}

	dataURL, err := media.FromUpload(data, mediaType)
	if err != nil {
		utils.Error(ctx, http.StatusUnsupportedMediaType, 41501, err.Error())
		return
	}
	utils.Success(ctx, gin.H{
		"mediaType": mediaType,
		"mediaUrl":  dataURL,
	})
}

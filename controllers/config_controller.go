package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/liveplus/models"
	"github.com/cppla/liveplus/utils"
)

// ConfigController serves the fixed enumerations the frontend renders.
type ConfigController struct {
	siteName string
}

func NewConfigController(siteName string) *ConfigController {
	return &ConfigController{siteName: siteName}
}

// GetSite returns the site name, categories, reaction alphabet and media types.
func (c *ConfigController) GetSite(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"name":       c.siteName,
		"categories": models.Categories,
		"reactions":  models.ReactionAlphabet,
		"mediaTypes": []models.MediaType{
			models.MediaNone,
			models.MediaImage,
			models.MediaVideo,
			models.MediaAudio,
			models.MediaPDF,
		},
	})
}

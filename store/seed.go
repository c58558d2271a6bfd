package store

import "github.com/cppla/liveplus/models"

// DefaultAuthor labels posts created without an explicit author.
const DefaultAuthor = "Informante Live"

// Seed returns the single post installed when no collection has been persisted yet.
func Seed(createdAt int64) models.Post {
	return models.Post{
		ID:        "1",
		Title:     "Exploração de Novos Horizontes Tecnológicos",
		Category:  models.CategoryTecnologia,
		Content:   "A Live+ anuncia sua nova divisão focada em inteligência espacial e comunicações quânticas.",
		MediaURL:  "https://picsum.photos/id/1/1200/600",
		MediaType: models.MediaImage,
		CreatedAt: createdAt,
		Author:    DefaultAuthor,
		Views:     124,
		Comments:  []models.Comment{},
		Reactions: models.Reactions{"🚀": 5, "🔥": 3},
		Status:    models.StatusPublished,
	}
}

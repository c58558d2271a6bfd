package models

// Category is one of the fixed topical tags of the portal.
type Category string

const (
	CategoryCiencia    Category = "Ciência"
	CategorySedes      Category = "Sedes"
	CategoryTecnologia Category = "Tecnologia"
	CategoryFilmes     Category = "Filmes"
	CategorySeries     Category = "Séries e Programas"
	CategoryEventos    Category = "Eventos"
	CategoryParcerias  Category = "Parcerias"
)

// Categories lists every category in navigation order.
var Categories = []Category{
	CategoryCiencia,
	CategorySedes,
	CategoryTecnologia,
	CategoryFilmes,
	CategorySeries,
	CategoryEventos,
	CategoryParcerias,
}

// Valid reports whether c belongs to the fixed enumeration.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

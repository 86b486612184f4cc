package schema

// CatalogTitleTable represents the 'catalog.title' table
type CatalogTitleTable struct {
	Table        string
	ID           string
	Name         string
	Slug         string
	Description  string
	ReleaseYear  string
	Type         string
	Status       string
	AgeRating    string
	Licensed     string
	ChapterCount string
	InLists      string
	CreatedAt    string
}

// CatalogTitle is the schema definition for catalog.title
var CatalogTitle = CatalogTitleTable{
	Table:        "catalog.title",
	ID:           "id",
	Name:         "name",
	Slug:         "slug",
	Description:  "description",
	ReleaseYear:  "releaseyear",
	Type:         "titletype",
	Status:       "status",
	AgeRating:    "agerating",
	Licensed:     "licensed",
	ChapterCount: "chaptercount",
	InLists:      "inlists",
	CreatedAt:    "createdat",
}

func (t CatalogTitleTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Slug, t.Description, t.ReleaseYear, t.Type, t.Status,
		t.AgeRating, t.Licensed, t.ChapterCount, t.InLists, t.CreatedAt,
	}
}

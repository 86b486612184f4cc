package schema

// CatalogChapterImageTable represents the 'catalog.chapterimage' table
type CatalogChapterImageTable struct {
	Table     string
	ID        string
	ChapterID string
	BlobKey   string
	BlobURL   string
	Position  string
}

// CatalogChapterImage is the schema definition for catalog.chapterimage
var CatalogChapterImage = CatalogChapterImageTable{
	Table:     "catalog.chapterimage",
	ID:        "id",
	ChapterID: "chapterid",
	BlobKey:   "blobkey",
	BlobURL:   "bloburl",
	Position:  "position",
}

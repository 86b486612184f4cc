package schema

// CatalogChapterLikeTable represents the 'catalog.chapterlike' table
type CatalogChapterLikeTable struct {
	Table     string
	UserID    string
	ChapterID string
}

// CatalogChapterLike is the schema definition for catalog.chapterlike
var CatalogChapterLike = CatalogChapterLikeTable{
	Table:     "catalog.chapterlike",
	UserID:    "userid",
	ChapterID: "chapterid",
}

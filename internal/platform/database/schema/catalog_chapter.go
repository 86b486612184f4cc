package schema

// CatalogChapterTable represents the 'catalog.chapter' table
type CatalogChapterTable struct {
	Table         string
	ID            string
	TitleID       string
	TeamID        string
	Name          string
	VolumeNumber  string
	ChapterNumber string
	Likes         string
	IsPublished   string
	ArchiveKey    string
	CreatedAt     string
}

// CatalogChapter is the schema definition for catalog.chapter
var CatalogChapter = CatalogChapterTable{
	Table:         "catalog.chapter",
	ID:            "id",
	TitleID:       "titleid",
	TeamID:        "teamid",
	Name:          "name",
	VolumeNumber:  "volumenumber",
	ChapterNumber: "chapternumber",
	Likes:         "likes",
	IsPublished:   "ispublished",
	ArchiveKey:    "archivekey",
	CreatedAt:     "createdat",
}

func (t CatalogChapterTable) Columns() []string {
	return []string{
		t.ID, t.TitleID, t.TeamID, t.Name, t.VolumeNumber, t.ChapterNumber,
		t.Likes, t.IsPublished, t.ArchiveKey, t.CreatedAt,
	}
}

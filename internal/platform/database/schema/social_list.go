package schema

// SocialListTable represents the 'social.list' table
type SocialListTable struct {
	Table       string
	ID          string
	UserID      string
	Name        string
	Hidden      string
	TitlesCount string
	CreatedAt   string
}

// SocialList is the schema definition for social.list
var SocialList = SocialListTable{
	Table:       "social.list",
	ID:          "id",
	UserID:      "userid",
	Name:        "name",
	Hidden:      "hidden",
	TitlesCount: "titlescount",
	CreatedAt:   "createdat",
}

// SocialListTitleTable represents the 'social.listtitle' table
type SocialListTitleTable struct {
	Table   string
	ListID  string
	TitleID string
}

// SocialListTitle is the schema definition for social.listtitle
var SocialListTitle = SocialListTitleTable{
	Table:   "social.listtitle",
	ListID:  "listid",
	TitleID: "titleid",
}

package schema

// CatalogTitleRatingTable represents the 'catalog.titlerating' table
type CatalogTitleRatingTable struct {
	Table   string
	TitleID string
	Mark    string
	Amount  string
}

// CatalogTitleRating is the schema definition for catalog.titlerating
var CatalogTitleRating = CatalogTitleRatingTable{
	Table:   "catalog.titlerating",
	TitleID: "titleid",
	Mark:    "mark",
	Amount:  "amount",
}

// CatalogUserTitleRatingTable represents the 'catalog.usertitlerating' table
type CatalogUserTitleRatingTable struct {
	Table   string
	UserID  string
	TitleID string
	Mark    string
}

// CatalogUserTitleRating is the schema definition for catalog.usertitlerating
var CatalogUserTitleRating = CatalogUserTitleRatingTable{
	Table:   "catalog.usertitlerating",
	UserID:  "userid",
	TitleID: "titleid",
	Mark:    "mark",
}

package schema

// CatalogTitleTeamTable represents the 'catalog.titleteam' table
type CatalogTitleTeamTable struct {
	Table   string
	TitleID string
	TeamID  string
}

// CatalogTitleTeam is the schema definition for catalog.titleteam
var CatalogTitleTeam = CatalogTitleTeamTable{
	Table:   "catalog.titleteam",
	TitleID: "titleid",
	TeamID:  "teamid",
}

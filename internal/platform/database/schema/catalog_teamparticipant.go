package schema

// CatalogTeamParticipantTable represents the 'catalog.teamparticipant' table
type CatalogTeamParticipantTable struct {
	Table  string
	ID     string
	UserID string
	TeamID string
	Roles  string
}

// CatalogTeamParticipant is the schema definition for catalog.teamparticipant
var CatalogTeamParticipant = CatalogTeamParticipantTable{
	Table:  "catalog.teamparticipant",
	ID:     "id",
	UserID: "userid",
	TeamID: "teamid",
	Roles:  "roles",
}

package schema

// CatalogTeamTable represents the 'catalog.team' table
type CatalogTeamTable struct {
	Table       string
	ID          string
	Name        string
	Slug        string
	Description string
	CreatedAt   string
}

// CatalogTeam is the schema definition for catalog.team
var CatalogTeam = CatalogTeamTable{
	Table:       "catalog.team",
	ID:          "id",
	Name:        "name",
	Slug:        "slug",
	Description: "description",
	CreatedAt:   "createdat",
}

func (t CatalogTeamTable) Columns() []string {
	return []string{t.ID, t.Name, t.Slug, t.Description, t.CreatedAt}
}

package adapters

import "github.com/JonMunkholm/csvmigrate/internal/core"

// ProjectLookupFile is the default id,name export of destination projects.
const ProjectLookupFile = "LookupProjectIdForTeams.csv"

func init() {
	registerTeams()
}

func registerTeams() {
	core.Register(&core.AdapterDefinition{
		Info: core.AdapterInfo{
			Key:         "teams",
			Group:       "Teams",
			Label:       "Teams",
			Description: "Teams related to projects resolved by name",
		},
		Fields: []core.FieldSpec{
			{Label: "Source Id (Admin Only)", Key: "teamssourceid", Target: core.ConsumedTarget},
			{Label: "Name", Key: "name"},
			{Label: "Description", Key: "description"},
			{Label: "Projects", Key: "projects", Type: core.FieldRelation, Lookup: "projects",
				Separators: ",", Target: "projectOperations"},
		},
		Schema:      []string{"description", "name"},
		FillMissing: true,
		DataVersion: intPtr(1),
		Modes: map[core.Mode]core.ModeConfig{
			core.ModeInsert: {Mandatory: []string{"name"}},
		},
		Identify: []string{"teamssourceid", "name"},
		Lookups: []core.LookupSource{
			{Name: "projects", Path: ProjectLookupFile, LabelColumn: "name", IDColumn: "id"},
		},
	})
}

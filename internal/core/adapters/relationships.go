package adapters

import "github.com/JonMunkholm/csvmigrate/internal/core"

func init() {
	registerTeamsUsers()
	registerUsersTeamsRole()
}

// registerTeamsUsers relates existing users to teams. Team cells may hold a
// numeric id or a team name resolved through the optional teams lookup.
func registerTeamsUsers() {
	core.Register(&core.AdapterDefinition{
		Info: core.AdapterInfo{
			Key:         "teams_users",
			Group:       "Relationships",
			Label:       "Team Members",
			Description: "Adds users to teams",
		},
		FoldHeaders: true,
		Fields: []core.FieldSpec{
			{Label: "user", Key: "user", Target: core.ConsumedTarget},
			{Label: "team", Key: "team", Type: core.FieldRelation, Lookup: "teams", Target: "teamOperations"},
		},
		DataVersion: intPtr(1),
		Modes: map[core.Mode]core.ModeConfig{
			core.ModeUpdate: {Mandatory: []string{"user", "team"}, IDKey: "user"},
		},
		Identify: []string{"user", "team"},
		Lookups: []core.LookupSource{
			{Name: "teams", Path: "LookupTeamIdForUsers.csv", LabelColumn: "name", IDColumn: "id"},
		},
	})
}

// registerUsersTeamsRole assigns a role to users already on a team.
func registerUsersTeamsRole() {
	core.Register(&core.AdapterDefinition{
		Info: core.AdapterInfo{
			Key:         "users_teams_role",
			Group:       "Relationships",
			Label:       "Team Roles",
			Description: "Sets the stereotype of a user within a team",
		},
		FoldHeaders: true,
		Fields: []core.FieldSpec{
			{Label: "user", Key: "user", Type: core.FieldInt},
			{Label: "team", Key: "team", Type: core.FieldInt},
			{Label: "role", Key: "role"},
		},
		Schema: []string{"role", "team", "user"},
		Modes: map[core.Mode]core.ModeConfig{
			core.ModeUpdate: {Mandatory: []string{"user", "team", "role"}},
		},
		Identify: []string{"user", "team", "role"},
		Shape:    teamRoleShape,
	})
}

func teamRoleShape(t *core.Transformed) core.Record {
	return core.Record{
		"userId":     t.Values["user"],
		"stereotype": t.Values["role"],
		"meta":       map[string]any{"id": t.Values["team"]},
	}
}

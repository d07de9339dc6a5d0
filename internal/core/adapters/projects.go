package adapters

import "github.com/JonMunkholm/csvmigrate/internal/core"

func init() {
	registerProjects()
}

func registerProjects() {
	core.Register(&core.AdapterDefinition{
		Info: core.AdapterInfo{
			Key:         "projects",
			Group:       "Projects",
			Label:       "Projects",
			Description: "Projects with nested address and project group assignment",
		},
		Fields: []core.FieldSpec{
			{Label: "Name", Key: "name"},
			{Label: "TimeZone", Key: "timeZone"},
			{Label: "Group", Key: "projectGroup", Type: core.FieldRelation, Separators: ",",
				InValues: true, Verbs: [2]string{"assign", "unassign"}},
			{Label: "Notes", Key: "notes"},
			{Label: "Address", Key: "address.address"},
			{Label: "Suburb", Key: "address.suburb"},
			{Label: "State", Key: "address.state"},
			{Label: "Post Code", Key: "address.postCode"},
			{Label: "Country", Key: "address.country"},
			{Label: "Location", Key: "address.location", Type: core.FieldLocation},
			{Label: "Auto Geocode", Key: "address.autoGeocode", Type: core.FieldBool, Truthy: FlagTruthy, Default: false},
			{Label: "Legacy ID", Key: "legacyidprojects", Target: core.ConsumedTarget},
			{Label: "Project Email", Key: "projectemailaddress", Target: core.ConsumedTarget},
		},
		Schema: []string{
			"address.address",
			"address.autoGeocode",
			"address.country",
			"address.location",
			"address.postCode",
			"address.state",
			"address.suburb",
			"name",
			"notes",
			"projectGroup",
			"timeZone",
		},
		Defaults: map[string]any{
			"address.autoGeocode": false,
			"projectGroup":        core.OperationBlock{"assign": []any{}, "unassign": []any{}},
		},
		FillMissing: true,
		DataVersion: intPtr(1),
		Modes: map[core.Mode]core.ModeConfig{
			core.ModeInsert: {Mandatory: []string{"name"}},
		},
		Identify: []string{"name", "legacyidprojects"},
		Shape:    projectShape,
	})
}

// projectShape stamps the project's start and end dates with the batch clock.
func projectShape(t *core.Transformed) core.Record {
	stamp := t.Now.Format(dateTimeLayout)
	t.Values["dateStart"] = stamp
	t.Values["dateEnd"] = stamp
	return core.EnvelopeShape(t)
}

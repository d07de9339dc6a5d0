package adapters

import "github.com/JonMunkholm/csvmigrate/internal/core"

func init() {
	registerClassifications()
	registerPostcodes()
}

func registerClassifications() {
	core.Register(&core.AdapterDefinition{
		Info: core.AdapterInfo{
			Key:         "classifications",
			Group:       "Classifications",
			Label:       "Classifications",
			Description: "Classification tree; header rows become type 1, members type 2",
		},
		HeaderPolicy: core.HeaderStrict,
		Fields: []core.FieldSpec{
			{Label: "parent_id", Key: "parent_id", Target: "parentId", Type: core.FieldInt, Default: int64(0)},
			{Label: "name", Key: "name", Normalizer: NormalizeName},
			{Label: "description", Key: "description", Nullable: true},
			{Label: "header", Key: "header", Target: "classificationType", Type: core.FieldEnum,
				EnumValues: HeaderFlag, EnumDefault: 2},
		},
		Schema:   []string{"classificationType", "dataVersion", "deleted", "description", "name", "parentId"},
		Defaults: map[string]any{"dataVersion": 0, "deleted": false},
		Modes: map[core.Mode]core.ModeConfig{
			core.ModeInsert: {Mandatory: []string{"name"}},
		},
		Identify: []string{"name", "parent_id", "description", "header"},
	})
}

func registerPostcodes() {
	core.Register(&core.AdapterDefinition{
		Info: core.AdapterInfo{
			Key:         "classifications_postcode",
			Group:       "Classifications",
			Label:       "Postcodes",
			Description: "Postcode groups with derived hierarchy paths",
		},
		HeaderPolicy: core.HeaderStrict,
		Fields: []core.FieldSpec{
			{Label: "Group ID", Key: "id", Target: core.ConsumedTarget},
			{Label: "Name", Key: "name", Normalizer: NormalizeName},
			{Label: "Parent ID", Key: "parent_id", Target: core.ConsumedTarget},
			{Label: "Hierarchy", Key: "hierarchyLevel", Target: core.ConsumedTarget, Optional: true},
			{Label: "Description", Key: "description", Nullable: true},
		},
		Schema:    []string{"classificationType", "deleted", "description", "hierarchy", "hierarchyLevel", "name"},
		Defaults:  map[string]any{"deleted": false},
		Hierarchy: &core.HierarchySpec{IDKey: "id", ParentKey: "parent_id", RootType: "Postcode"},
		Modes: map[core.Mode]core.ModeConfig{
			core.ModeInsert: {Mandatory: []string{"name"}},
		},
		Identify: []string{"id", "name", "parent_id"},
		Shape:    core.FlatShape,
	})
}

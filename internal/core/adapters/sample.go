package adapters

import "github.com/JonMunkholm/csvmigrate/internal/core"

func init() {
	registerSample()
}

// registerSample is the minimal adapter used to check an installation.
func registerSample() {
	core.Register(&core.AdapterDefinition{
		Info: core.AdapterInfo{
			Key:         "sample",
			Group:       "Samples",
			Label:       "Sample",
			Description: "Name, Email and Role to a flat record",
		},
		HeaderPolicy: core.HeaderStrict,
		Fields: []core.FieldSpec{
			{Label: "Name", Key: "name"},
			{Label: "Email", Key: "email", Normalizer: core.LowerEmail},
			{Label: "Role", Key: "role", Normalizer: core.UpperFirst},
		},
		Schema: []string{"name", "email", "role"},
		Modes: map[core.Mode]core.ModeConfig{
			core.ModeInsert: {Mandatory: []string{"name"}},
		},
		Identify: []string{"name", "email"},
		Shape:    core.FlatShape,
	})
}

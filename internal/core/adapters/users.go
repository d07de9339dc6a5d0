package adapters

import "github.com/JonMunkholm/csvmigrate/internal/core"

// DefaultRole is assigned when a user row names no system role.
const DefaultRole = "StandardUser"

// KnownEmailsFile is the default export of e-mails already in the destination.
const KnownEmailsFile = "KnownUserEmails.csv"

// userSchema is the whitelist of user values, in output order.
var userSchema = []string{
	"department",
	"email",
	"fax",
	"firstName",
	"lastName",
	"mobile",
	"notes",
	"organisation",
	"phone",
	"position",
	"useLegacyLogin",
	"usersourceid",
}

func init() {
	registerUsers()
	registerUsersInsert()
}

// userFields are the profile columns shared by both user adapters.
func userFields() []core.FieldSpec {
	return []core.FieldSpec{
		{Label: "Source Id (Admin Only)", Key: "usersourceid"},
		{Label: "First Name", Key: "firstName"},
		{Label: "Last Name", Key: "lastName"},
		{Label: "Position", Key: "position"},
		{Label: "Department", Key: "department"},
		{Label: "Organisation", Key: "organisation"},
		{Label: "Phone", Key: "phone"},
		{Label: "Mobile", Key: "mobile"},
		{Label: "Fax", Key: "fax"},
		{Label: "Email", Key: "email"},
		{Label: "Login", Key: "login"},
		// Never taken from the file; always false in the destination.
		{Label: "useLegacyLogin", Key: "useLegacyLogin", Target: core.ConsumedTarget, Optional: true},
	}
}

func registerUsers() {
	fields := append(userFields(),
		core.FieldSpec{Label: "System Role", Key: "systemrole", Type: core.FieldRelation, Labels: true,
			Separators: ";", DefaultTokens: []string{DefaultRole}, Target: "stereotypeOperations"},
		core.FieldSpec{Label: "Id", Key: "id", Target: core.ConsumedTarget, Optional: true},
	)

	core.Register(&core.AdapterDefinition{
		Info: core.AdapterInfo{
			Key:         "users",
			Group:       "Users",
			Label:       "Users",
			Description: "User profiles with system roles; update mode requires Id",
		},
		Fields:      fields,
		Schema:      userSchema,
		Defaults:    map[string]any{"useLegacyLogin": false},
		FillMissing: true,
		DataVersion: intPtr(1),
		Modes: map[core.Mode]core.ModeConfig{
			core.ModeInsert: {Extra: map[string]any{"sendOnboardingEmail": false}},
			core.ModeUpdate: {IDKey: "id"},
		},
		Identify: []string{"id", "email", "firstName", "lastName"},
	})
}

func registerUsersInsert() {
	fields := userFields()
	for i := range fields {
		if fields[i].Key == "email" {
			fields[i].Normalizer = core.LowerEmail
			fields[i].SkipIfKnown = "known_emails"
		}
	}

	core.Register(&core.AdapterDefinition{
		Info: core.AdapterInfo{
			Key:         "users_insert",
			Group:       "Users",
			Label:       "New Users",
			Description: "Inserts users whose e-mail is not yet known to the destination",
		},
		Fields:      fields,
		Schema:      userSchema,
		Defaults:    map[string]any{"useLegacyLogin": false},
		FillMissing: true,
		DataVersion: intPtr(1),
		Modes: map[core.Mode]core.ModeConfig{
			core.ModeInsert: {
				Mandatory: []string{"firstName", "email"},
				Extra: map[string]any{
					"sendOnboardingEmail":  false,
					"stereotypeOperations": core.OperationBlock{"relate": []any{DefaultRole}, "unrelate": []any{}},
				},
			},
		},
		Identify: []string{"email", "firstName", "lastName"},
		Lookups: []core.LookupSource{
			{Name: "known_emails", Path: KnownEmailsFile, LabelColumn: "Email", Fold: true},
		},
	})
}

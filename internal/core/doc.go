// Package core provides the row transformation pipeline shared by every
// migration adapter.
//
// This package holds all domain logic independent of any UI or transport
// layer. The CLI, the HTTP front end and tests use it without modification.
//
// # Architecture
//
// A migration flows through five stages, leaf-first:
//
//   - Header normalization: [NormalizeHeaders] maps raw labels to canonical
//     keys and [ValidateHeaders] applies the adapter's strict or lenient policy.
//   - Lookup resolution: [LookupTable] and [ResolveTokens] turn free-text
//     references into identifiers; numeric tokens pass through untouched.
//   - Row transformation: a [Transformer] coerces one [CanonicalRow] into a
//     [Record] or decides to skip it.
//   - Outcome classification: [Classify] produces exactly one [RowOutcome]
//     per data line.
//   - Batch aggregation: an [Aggregator] collects records and counts into a
//     [BatchResult], whose [BatchResult.Payload] is the output envelope.
//
// [Run] wires the stages together for one input; [Service] adds lookup
// loading, run ids and side files.
//
// # Adapter Registry
//
// Adapters are registered at init time using [Register]. Each
// [AdapterDefinition] contains everything needed to migrate one entity type:
//
//	core.Register(&core.AdapterDefinition{
//	    Info: core.AdapterInfo{Key: "teams", Group: "Teams", Label: "Teams"},
//	    Fields: []core.FieldSpec{
//	        {Label: "Name", Key: "name", Normalizer: core.SanitizeName},
//	        {Label: "Projects", Key: "projects", Type: core.FieldRelation,
//	            Lookup: "projects", Target: "projectOperations"},
//	    },
//	    Schema: []string{"description", "name"},
//	    Modes:  map[core.Mode]core.ModeConfig{core.ModeInsert: {Mandatory: []string{"name"}}},
//	})
//
// # Error Handling
//
// Batch-start problems are returned as [*FatalError] with a support code
// (see error_messages.go). Row problems never abort a batch: a
// [ValidationError] marks the row Skipped, any other error or a recovered
// panic marks it Error.
package core

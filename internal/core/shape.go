package core

// Record shapes. A ShapeFunc receives the coerced values, operation blocks
// and mode extras of one row and lays them out as the destination expects.

// EnvelopeShape builds {dataVersion?, id?, values, <target>Operations..., extras...}.
func EnvelopeShape(t *Transformed) Record {
	rec := make(Record, len(t.Operations)+len(t.Extra)+3)
	if t.DataVersion != nil {
		rec["dataVersion"] = *t.DataVersion
	}
	if t.ID != "" {
		rec["id"] = toIdentifier(t.ID)
	}
	for target, block := range t.Operations {
		rec[target] = block
	}
	for k, v := range t.Extra {
		rec[k] = v
	}
	values := t.Values
	if values == nil {
		values = map[string]any{}
	}
	rec["values"] = values
	return rec
}

// FlatShape places the values at the top level of the record.
func FlatShape(t *Transformed) Record {
	rec := make(Record, len(t.Values)+len(t.Operations)+len(t.Extra)+1)
	for k, v := range t.Values {
		rec[k] = v
	}
	for target, block := range t.Operations {
		rec[target] = block
	}
	for k, v := range t.Extra {
		rec[k] = v
	}
	if t.ID != "" {
		rec["id"] = toIdentifier(t.ID)
	}
	return rec
}

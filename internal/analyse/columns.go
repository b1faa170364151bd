package analyse

import "context"

// validateMandatoryColumns checks that every required field has a header
// column.
func (a *Analyser) validateMandatoryColumns(_ context.Context) (bool, error) {
	ok := true
	for i := range a.schema.Fields {
		f := &a.schema.Fields[i]
		if !f.Required() {
			continue
		}
		if _, found := a.src.Position(f.Name); found {
			continue
		}
		a.fail(0, MsgRequiredColumnMissing, f.Name)
		ok = false
		if a.stop {
			return false, nil
		}
	}
	return ok, nil
}

// validateUnspecifiedColumns checks that every header column is declared in
// the schema.
func (a *Analyser) validateUnspecifiedColumns(_ context.Context) (bool, error) {
	ok := true
	for _, h := range a.src.HeaderColumns() {
		if _, found := a.schema.FieldByName(h); found {
			continue
		}
		a.fail(0, MsgUnspecifiedColumn, h)
		ok = false
		if a.stop {
			return false, nil
		}
	}
	return ok, nil
}

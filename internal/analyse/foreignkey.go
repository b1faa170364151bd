package analyse

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"jsontable/internal/schema"
)

// validateForeignKeys looks up every row's foreign key values in the
// referenced resource.
func (a *Analyser) validateForeignKeys(ctx context.Context) (bool, error) {
	if !a.schema.HasForeignKeys() {
		return true, nil
	}

	ok := true
	for i := range a.schema.ForeignKeys {
		fk := &a.schema.ForeignKeys[i]

		pkg, valid := fk.Reference.DataPackageName()
		if !valid || pkg != schema.DefaultDataPackage {
			return false, fmt.Errorf("%w: %s; only %q foreign keys are supported",
				ErrUnsupportedDataPackage, pkg, schema.DefaultDataPackage)
		}
		v, found := a.fks.Lookup(pkg)
		if !found {
			return false, fmt.Errorf("%w: no validator registered for %q", ErrUnsupportedDataPackage, pkg)
		}

		fields := []string(fk.Fields)
		pos, missing := a.positions(fields)
		if len(missing) > 0 {
			if len(fields) == 1 {
				a.log.Debug("foreign key column not in file, skipping",
					zap.String("field", fields[0]),
					zap.String("resource", fk.Reference.Resource))
				continue
			}
			return false, fmt.Errorf("%w: the foreign key field %q was not in the file but is required as part of a multi field foreign key",
				schema.ErrSchema, missing[0])
		}

		cols := strings.Join(fields, keySeparator)
		ref := []string(fk.Reference.Fields)
		stopped := false
		err := a.scan(ctx, func(row int, rec []string) (bool, error) {
			hash := joinCells(rec, pos)
			match, err := v.Validate(ctx, hash, fk.Reference.Resource, ref)
			if err != nil {
				return false, err
			}
			if match {
				return true, nil
			}
			a.fail(row, MsgInvalidForeignKey,
				fmt.Sprintf(`The value(s) of "%s" in column(s) %s on row %d doesn't match a foreign key.`,
					hash, cols, row))
			ok = false
			if a.stop {
				stopped = true
				return false, nil
			}
			return true, nil
		})
		if err != nil {
			return false, err
		}
		if stopped {
			return false, nil
		}
	}
	return ok, nil
}

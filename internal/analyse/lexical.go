package analyse

import (
	"context"
	"fmt"

	"jsontable/internal/schema"
	"jsontable/internal/validate/format"
)

type column struct {
	field *schema.Field
	v     format.Validator
}

// columns resolves the schema field and validator of each header position.
// Positions without a field are nil.
func (a *Analyser) columns() ([]*column, error) {
	header := a.src.HeaderColumns()
	out := make([]*column, len(header))
	for i, h := range header {
		f, ok := a.schema.FieldByName(h)
		if !ok {
			continue
		}
		v, err := format.Resolve(f.Type, f.Format)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		out[i] = &column{field: f, v: v}
	}
	return out, nil
}

// validateLexical checks row width, required data, format and pattern of
// every cell.
func (a *Analyser) validateLexical(ctx context.Context) (bool, error) {
	cols, err := a.columns()
	if err != nil {
		return false, err
	}
	width := len(cols)

	ok := true
	err = a.scan(ctx, func(row int, rec []string) (bool, error) {
		a.stats.analysed = row

		if len(rec) != width {
			a.fail(row, MsgIncorrectColumnCount,
				fmt.Sprintf("Row %d has %d columns but should have %d.", row, len(rec), width))
			ok = false
		}

		for i := 0; i < min(len(rec), width); i++ {
			c := cols[i]
			if c == nil {
				continue
			}
			value := rec[i]

			if value == "" && c.field.Required() {
				a.fail(row, MsgRequiredFieldMissing,
					fmt.Sprintf("%s on row %d is missing.", c.field.Name, row))
				ok = false
				if a.stop {
					return false, nil
				}
			}

			valid, err := format.Apply(c.v, c.field.Type, c.field.Format, value)
			if err != nil {
				return false, fmt.Errorf("field %q: %w", c.field.Name, err)
			}
			if !valid {
				a.fail(row, MsgInvalidFormat,
					fmt.Sprintf("The data in column %s on row %d doesn't match the required format of %s.",
						c.field.Name, row, c.field.Format))
				ok = false
				if a.stop {
					return false, nil
				}
			}

			if re := c.field.Pattern(); re != nil && value != "" && !re.MatchString(value) {
				a.fail(row, MsgInvalidPattern,
					fmt.Sprintf("The data in column %s on row %d doesn't match the required pattern of %s.",
						c.field.Name, row, c.field.Constraints.Pattern))
				ok = false
				if a.stop {
					return false, nil
				}
			}
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

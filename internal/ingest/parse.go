package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/huangsam/foothold/schema"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// OriginEntity is the synthetic all-zero entity appended by WithOrigin.
const OriginEntity = "origin"

// Row positions of the tabular layout.
const (
	headerRow = 0 // entity column title, then criterion names
	sphereRow = 1 // sphere label per criterion column
	firstData = 2
)

// Parse turns raw rows into a Dataset. Row 0 holds the criterion names, row 1 the
// sphere label of each criterion and every following row one entity, whose name is
// in the first column. Columns with an unrecognized sphere label are skipped.
// Non-numeric cells become missing values.
func Parse(rows [][]string) (schema.Dataset, error) {
	if len(rows) <= firstData {
		return schema.Dataset{}, eris.Errorf("ingest: need a header row, a sphere row and at least one entity row, got %d rows", len(rows))
	}
	header, spheres := rows[headerRow], rows[sphereRow]

	var criteria []schema.Criterion
	columns := make(map[string]int)
	for col := 1; col < len(header); col++ {
		name := strings.TrimSpace(header[col])
		if name == "" {
			continue
		}
		label := ""
		if col < len(spheres) {
			label = spheres[col]
		}
		sphere, ok := schema.ParseSphere(label)
		if !ok {
			zap.L().Warn("skipping column without a known sphere",
				zap.String("criterion", name), zap.String("label", label))
			continue
		}
		criteria = append(criteria, schema.Criterion{Name: name, Sphere: sphere})
		columns[name] = col
	}
	if len(criteria) == 0 {
		return schema.Dataset{}, eris.New("ingest: no criterion column has a recognized sphere label")
	}

	layout, err := schema.NewLayout(criteria)
	if err != nil {
		return schema.Dataset{}, eris.Wrap(err, "ingest: build layout")
	}
	flat := layout.Flatten()

	ds := schema.Dataset{Layout: layout}
	seen := make(map[string]int)
	for i := firstData; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" {
			return schema.Dataset{}, eris.Errorf("ingest: row %d has values but no entity name", i+1)
		}
		if prev, ok := seen[name]; ok {
			return schema.Dataset{}, eris.Errorf("ingest: entity %q appears on rows %d and %d", name, prev, i+1)
		}
		seen[name] = i + 1

		raw := make([]float64, len(flat))
		for k, criterion := range flat {
			col := columns[criterion]
			if col < len(row) {
				raw[k] = ParseNumber(row[col])
			} else {
				raw[k] = math.NaN()
			}
		}
		ds.Entities = append(ds.Entities, schema.EntityRow{Name: name, Raw: raw})
	}
	if len(ds.Entities) == 0 {
		return schema.Dataset{}, eris.New("ingest: no entity rows found")
	}
	return ds, nil
}

// WithOrigin appends the all-zero OriginEntity so that zero anchors the lower end
// of every criterion.
func WithOrigin(ds schema.Dataset) (schema.Dataset, error) {
	for _, e := range ds.Entities {
		if e.Name == OriginEntity {
			return schema.Dataset{}, eris.Errorf("ingest: entity name %q is reserved for the origin anchor", OriginEntity)
		}
	}
	out := schema.Dataset{Layout: ds.Layout, Entities: append([]schema.EntityRow(nil), ds.Entities...)}
	out.Entities = append(out.Entities, schema.EntityRow{Name: OriginEntity, Raw: make([]float64, ds.Layout.Len())})
	return out, nil
}

var numberCleaner = strings.NewReplacer(
	" ", "",
	"\u00a0", "", // no-break space
	"\u202f", "", // narrow no-break space
	"\u2009", "", // thin space
	"'", "",
)

// commaGrouped matches integers grouped in threes by at least two commas.
var commaGrouped = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3}){2,}$`)

// ParseNumber reads a spreadsheet cell as a float. It accepts thousand separators
// made of spaces, comma grouping next to a decimal point ("1,234.5") or repeated
// without one ("1,234,567"), and a decimal comma. A single comma with no point is
// ambiguous; it is read as a decimal comma, so "1,234" is 1.234. Anything else,
// including a blank cell or a non-finite value, is NaN.
func ParseNumber(s string) float64 {
	v := numberCleaner.Replace(strings.TrimSpace(s))
	if v == "" {
		return math.NaN()
	}
	switch {
	case commaGrouped.MatchString(v):
		v = strings.ReplaceAll(v, ",", "")
	case strings.Count(v, ",") == 1 && !strings.Contains(v, "."):
		v = strings.Replace(v, ",", ".", 1)
	case strings.Contains(v, ",") && strings.Contains(v, "."):
		v = strings.ReplaceAll(v, ",", "")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

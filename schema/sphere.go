package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Sphere is one of the four fixed domains that criteria belong to.
type Sphere int

// All spheres in canonical order.
const (
	Political Sphere = iota
	Economic
	Social
	Spiritual
)

// AllSpheres lists the spheres in the order vectors are laid out.
var AllSpheres = []Sphere{Political, Economic, Social, Spiritual}

var sphereNames = [...]string{"Political", "Economic", "Social", "Spiritual"}

// sphereStems maps folded label prefixes to spheres. Russian stems cover the
// labels used by the source spreadsheets.
var sphereStems = []struct {
	stem   string
	sphere Sphere
}{
	{"polit", Political},
	{"полит", Political},
	{"econ", Economic},
	{"эконом", Economic},
	{"soc", Social},
	{"соц", Social},
	{"spirit", Spiritual},
	{"духов", Spiritual},
}

// Valid reports whether s is one of the four spheres.
func (s Sphere) Valid() bool {
	return s >= Political && s <= Spiritual
}

// String implements fmt.Stringer.
func (s Sphere) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Sphere(%d)", int(s))
	}
	return sphereNames[s]
}

// MarshalJSON writes the sphere by name.
func (s Sphere) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON reads a sphere label.
func (s *Sphere) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	parsed, ok := ParseSphere(label)
	if !ok {
		return fmt.Errorf("unknown sphere %q", label)
	}
	*s = parsed
	return nil
}

// ParseSphere recognizes English or Russian sphere labels regardless of case,
// e.g. "political", "Economic sphere", "Социальная", "ДУХОВНАЯ".
func ParseSphere(label string) (Sphere, bool) {
	key := cases.Fold().String(norm.NFC.String(strings.TrimSpace(label)))
	if key == "" {
		return 0, false
	}
	for _, st := range sphereStems {
		if strings.HasPrefix(key, st.stem) {
			return st.sphere, true
		}
	}
	return 0, false
}

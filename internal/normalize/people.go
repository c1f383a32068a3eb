package normalize

import (
	"errors"
	"fmt"

	"tmdbetl/internal/warehouse"
)

// ErrRoleClassification reports a person whose aggregated sightings carry
// neither cast nor crew presence. Unreachable while the two credit lists
// are the only inputs; kept as a defensive check.
var ErrRoleClassification = errors.New("role classification failed")

// People is the classified person dimension in surrogate order, plus the
// natural→surrogate lookup the link stage re-keys through.
type People struct {
	Rows []warehouse.Person
	IDs  map[int64]int64
}

type personState struct {
	natural  int64
	name     string
	nameFrom byte // 'c' cast, 'w' crew
	gender   int64
	inCast   bool
	inCrew   bool
}

// ClassifyPeople merges person sightings from the cast and crew contexts of
// every credits row into one person dimension. Role derives from context
// presence: both contexts → both, cast only → cast, crew only → crew.
//
// Gender follows the placeholder rule: among all sightings of one person,
// rows carrying the unspecified placeholder defer to any row with a real
// gender; two different real genders are a conflict and abort the build.
// When the two contexts disagree on a person's name, the cast-context name
// wins; a name conflict within one context aborts.
func ClassifyPeople(credits []UnpackedCredit) (*People, error) {
	states := make(map[int64]*personState)
	var order []int64

	observe := func(movie int64, context byte, natural int64, name string, gender int64) error {
		if natural == 0 {
			return fmt.Errorf("movie %d: %s element missing person id", movie, contextName(context))
		}
		if gender < warehouse.GenderUnspecified || gender > warehouse.GenderMale {
			return fmt.Errorf("movie %d: person %d: unknown gender code %d", movie, natural, gender)
		}

		st, ok := states[natural]
		if !ok {
			st = &personState{natural: natural}
			states[natural] = st
			order = append(order, natural)
		}
		if context == 'c' {
			st.inCast = true
		} else {
			st.inCrew = true
		}

		if name != "" {
			switch {
			case st.name == "":
				st.name, st.nameFrom = name, context
			case st.name == name:
				// agreement; remember the stronger context
				if context == 'c' {
					st.nameFrom = 'c'
				}
			case st.nameFrom == context:
				return fmt.Errorf("%w: person %d named both %q and %q in the %s context",
					ErrDuplicateNaturalID, natural, st.name, name, contextName(context))
			case context == 'c':
				// cast context wins a cross-context disagreement
				st.name, st.nameFrom = name, context
			}
		}

		merged, ok := mergePlaceholder(st.gender, gender, warehouse.GenderUnspecified)
		if !ok {
			return fmt.Errorf("%w: person %d carries conflicting genders %d and %d",
				ErrDuplicateNaturalID, natural, st.gender, gender)
		}
		st.gender = merged
		return nil
	}

	for _, cr := range credits {
		movie := cr.Raw.MovieTMDBID
		for _, el := range cr.Cast {
			if err := observe(movie, 'c', el.ID, el.Name, el.Gender); err != nil {
				return nil, err
			}
		}
		for _, el := range cr.Crew {
			if err := observe(movie, 'w', el.ID, el.Name, el.Gender); err != nil {
				return nil, err
			}
		}
	}

	ppl := &People{
		Rows: make([]warehouse.Person, 0, len(order)),
		IDs:  make(map[int64]int64, len(order)),
	}
	for i, natural := range order {
		st := states[natural]
		if st.name == "" {
			return nil, fmt.Errorf("person %d has no name in any sighting", natural)
		}
		role, err := deriveRole(st.inCast, st.inCrew)
		if err != nil {
			return nil, fmt.Errorf("person %d: %w", natural, err)
		}
		id := int64(i + 1)
		ppl.Rows = append(ppl.Rows, warehouse.Person{
			PersonID: id,
			TMDBID:   natural,
			Name:     st.name,
			GenderID: st.gender,
			RoleID:   role,
		})
		ppl.IDs[natural] = id
	}
	return ppl, nil
}

// mergePlaceholder merges two sightings of an attribute whose placeholder
// value means "unspecified": the placeholder always defers to a real value.
// ok is false when two distinct real values collide.
func mergePlaceholder(current, next, placeholder int64) (merged int64, ok bool) {
	switch {
	case current == next:
		return current, true
	case current == placeholder:
		return next, true
	case next == placeholder:
		return current, true
	default:
		return current, false
	}
}

func deriveRole(inCast, inCrew bool) (int64, error) {
	switch {
	case inCast && inCrew:
		return warehouse.RoleBoth, nil
	case inCast:
		return warehouse.RoleCast, nil
	case inCrew:
		return warehouse.RoleCrew, nil
	default:
		return 0, ErrRoleClassification
	}
}

func contextName(c byte) string {
	if c == 'c' {
		return "cast"
	}
	return "crew"
}

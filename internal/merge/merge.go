// Package merge collapses duplicate production companies under an explicit,
// versioned equivalence dataset. Nothing here is fuzzy: the dataset says
// which source ids are the same company, the fold rewires every reference
// to the canonical row, and a name-similarity audit flags pairs whose names
// do not even match after accent and punctuation folding, since those are
// usually typos in the dataset rather than true duplicates.
package merge

import (
	"errors"
	"fmt"

	"tmdbetl/internal/normalize"
	"tmdbetl/internal/warehouse"
)

// ErrUnknownSupersededID reports an equivalence pair naming a company id
// that never appeared in this build. The dataset is maintained by hand
// against a moving source, so a stale entry aborts loudly instead of being
// skipped.
var ErrUnknownSupersededID = errors.New("unknown superseded id")

// Result reports what one apply pass did.
type Result struct {
	Folded   int      // pairs that collapsed a live company row
	Warnings []string // name-audit findings, one per suspicious pair
}

// Companies applies the dataset to the company dimension: superseded rows
// fold into their canonical rows, the movie links re-key onto the survivors
// and dedupe, and the surrogates compact back to a dense range. Re-applying
// a dataset, or listing the same fold twice, changes nothing.
func Companies(ds *Dataset, ents *normalize.Entities, links *normalize.Links) (Result, error) {
	var res Result

	// old surrogate of each folded row to the surrogate it folded into,
	// flattened so chains resolve in one hop
	foldedTo := make(map[int64]int64)

	for _, p := range ds.Pairs {
		supID, ok := ents.Companies.ID(p.Superseded)
		if !ok {
			return res, fmt.Errorf("%w: pair %d->%d: company %d did not appear in this build",
				ErrUnknownSupersededID, p.Superseded, p.Canonical, p.Superseded)
		}
		canID, ok := ents.Companies.ID(p.Canonical)
		if !ok {
			return res, fmt.Errorf("%w: pair %d->%d: canonical company %d did not appear in this build",
				ErrUnknownSupersededID, p.Superseded, p.Canonical, p.Canonical)
		}
		if supID == canID {
			// already the same row, either a repeated pair or an earlier
			// chain; applying again is a no-op
			continue
		}

		supName := ents.Companies.Name(p.Superseded)
		canName := ents.Companies.Name(p.Canonical)
		if FoldName(supName) != FoldName(canName) {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"dataset %s: pair %d->%d folds %q into %q, which do not match after folding",
				ds.Version, p.Superseded, p.Canonical, supName, canName))
		}

		ents.Companies.Fold(p.Superseded, p.Canonical)
		foldedTo[supID] = canID
		for k, v := range foldedTo {
			if v == supID {
				foldedTo[k] = canID
			}
		}
		res.Folded++
	}

	if res.Folded == 0 {
		return res, nil
	}

	remap := ents.Companies.Compact()

	rewritten := make([]warehouse.Pair, 0, len(links.MovieCompanies))
	seen := make(map[warehouse.Pair]struct{}, len(links.MovieCompanies))
	for _, pr := range links.MovieCompanies {
		id := pr.RefID
		if to, ok := foldedTo[id]; ok {
			id = to
		}
		np := warehouse.Pair{MovieID: pr.MovieID, RefID: remap[id]}
		if _, dup := seen[np]; dup {
			// two merged companies credited on the same movie
			continue
		}
		seen[np] = struct{}{}
		rewritten = append(rewritten, np)
	}
	links.MovieCompanies = rewritten

	return res, nil
}

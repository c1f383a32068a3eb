package merge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Pair declares that every reference to the superseded company belongs to
// the canonical one. Both sides are source company ids, never surrogates.
type Pair struct {
	Superseded int64 `json:"superseded"`
	Canonical  int64 `json:"canonical"`
}

// Dataset is a curated, versioned list of company equivalences maintained
// outside the source data. The version is stamped into warnings and logs so
// a build can always be traced to the dataset revision it applied.
type Dataset struct {
	Version string `json:"version"`
	Pairs   []Pair `json:"pairs"`
}

// Load reads and validates an equivalence dataset file.
func Load(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("equivalence dataset: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("equivalence dataset %s: %w", path, err)
	}
	if err := ds.validate(); err != nil {
		return nil, fmt.Errorf("equivalence dataset %s: %w", path, err)
	}
	return &ds, nil
}

func (ds *Dataset) validate() error {
	if ds.Version == "" {
		return errors.New("missing version")
	}
	for i, p := range ds.Pairs {
		if p.Superseded == 0 || p.Canonical == 0 {
			return fmt.Errorf("pair %d: both company ids are required", i)
		}
		if p.Superseded == p.Canonical {
			return fmt.Errorf("pair %d: company %d supersedes itself", i, p.Superseded)
		}
	}
	return nil
}

// Package all registers every storage backend. Import it for side
// effects from binaries that pick the backend at runtime.
package all

import (
	_ "tmdbetl/internal/storage/mssql"
	_ "tmdbetl/internal/storage/postgres"
	_ "tmdbetl/internal/storage/sqlite"
)

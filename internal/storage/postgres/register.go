package postgres

import "tmdbetl/internal/storage"

func init() {
	// registers the backend factory
	storage.Register("postgres", New)
}

// Package all registers every built-in storage backend. Importing it for
// side effects keeps the CLI free of direct driver imports.
package all

import (
	_ "discogsload/internal/storage/postgres"
	_ "discogsload/internal/storage/sqlite"
)

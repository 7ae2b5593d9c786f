// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories with the storage package. The kinds made available are:
//
//   - "postgres" (phenoextract/internal/storage/postgres)
//   - "sqlite"   (phenoextract/internal/storage/sqlite)
//
// A binary that needs only one backend can import that package directly
// instead.
package all

import (
	_ "phenoextract/internal/storage/postgres"
	_ "phenoextract/internal/storage/sqlite"
)

// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories with the storage package. After that the following kinds are
// available to storage.New:
//
//   - "snowflake" (objdeploy/internal/storage/snowflake)
//   - "postgres"  (objdeploy/internal/storage/postgres)
//   - "mssql"     (objdeploy/internal/storage/mssql)
//   - "mysql"     (objdeploy/internal/storage/mysql)
//   - "sqlite"    (objdeploy/internal/storage/sqlite)
//
// A binary that needs only a subset can import the backend packages it wants
// instead.
package all

import (
	_ "objdeploy/internal/storage/mssql"
	_ "objdeploy/internal/storage/mysql"
	_ "objdeploy/internal/storage/postgres"
	_ "objdeploy/internal/storage/snowflake"
	_ "objdeploy/internal/storage/sqlite"
)

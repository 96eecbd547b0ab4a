// Package database wraps GORM for the warehouse sink: connection retry,
// pool settings, a zerolog-backed GORM logger, auto-migration of the
// warehouse table and translation of driver errors into AppErrors.
//
// The default dialect is sqlite; Open takes the DSN as a file path.
//
//	db, err := database.Open(ctx, database.Config{Enabled: true, DSN: "warehouse.db"}, log)
//	if err != nil { ... }
//	defer db.Close()
//	_ = db.AutoMigrateTable("transactions", &database.Row{})
package database

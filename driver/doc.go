// Package driver provides the database/sql connector behind the retailsql dataset store.
//
// The connector opens an in-memory SQLite database and wraps its connection with a
// statement policy. Until the connector is sealed every statement is accepted, which is
// how the dataset table is created and filled. After Seal only read statements and view
// maintenance (CREATE VIEW, DROP VIEW) are accepted, so catalog queries cannot modify the
// loaded dataset.
//
// Usage:
//
//	connector := driver.NewConnector("file:retail?mode=memory&cache=shared")
//	db := sql.OpenDB(connector)
//	// ... CREATE TABLE / INSERT ...
//	connector.Seal()
package driver

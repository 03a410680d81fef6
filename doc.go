// Package nodeattr is the composition root for editing the user attributes
// of nodes.
//
// It connects the core editing domain (declared types, validation and the
// diff-based commit) with the storage adapters using the Hexagonal
// Architecture pattern.
//
// A node is a named thing carrying attributes: a YAML, JSON or Markdown file
// in a data tree, or a set of rows in a SQLite database. An edit session
// takes a sheet (the table of name, value, type rows a user typed), validates
// every row against its declared type, and then makes the node hold exactly
// the attributes of the sheet. Attributes absent from the sheet are deleted;
// array attributes are passed through untouched.
//
// Usage:
//
//	src, err := nodeattr.Open("./nodes", nodeattr.WithLogger(logger))
//	store, err := src.Node(ctx, "plant/pump", false)
//
//	s, err := nodeattr.ReadSheet("pump.yaml")
//	res, err := nodeattr.Apply(ctx, store, s)
package nodeattr

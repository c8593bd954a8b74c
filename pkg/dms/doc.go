// Package dms implements the document hierarchy: sections contain folders,
// folders contain files, and files carry typed metadata, tags, related-file
// links, reminders, and comments.
//
// Every store method takes the account id explicitly. A lookup that finds
// nothing, or finds a row belonging to a different account, reports
// not-found; cross-tenant existence never leaks. Section and folder deletes
// are hard and cascade downward. File deletes are soft by default, with
// separate restore and permanent-delete paths; soft-deleted files stay out
// of listings and search but remain readable by id.
package dms

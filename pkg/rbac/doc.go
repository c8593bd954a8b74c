// Package rbac implements docvault's multi-tenant authorization model.
//
// Accounts are the tenant boundary. A Role bundles Permission rows, one
// per Module from a fixed catalog, each granting up to five capabilities
// (create, read, update, delete, admin). Roles reach users directly or
// through account-scoped Groups, and a user's coarse standing within an
// account (owner, admin, member) is tracked separately on the membership
// row. API keys are account-scoped bearer credentials stored as hashes.
//
// The Checker answers "can user U perform action A on module M within
// account X" with a fixed resolution order:
//
//  1. Super admins are always allowed.
//  2. Account owners and admins pass every check within their account.
//  3. Otherwise the user's direct roles and group roles are flattened,
//     filtered to global roles and roles of the target account, and the
//     module's permission row is consulted for the requested capability.
//
// Ambiguous or failed lookups deny. Decisions are cached in an
// in-process LRU and optionally in Redis; callers invalidate a user's
// entries after mutating their assignments.
package rbac

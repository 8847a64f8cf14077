// Package internal holds the RoamPlan server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem rendering, and routing
// - domain: plans, activities, and users business logic
// - storage: sqlite and postgres repositories
// - geocoding, email, export: outbound integrations and formats
// - auth, config, metrics, sanitize: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal

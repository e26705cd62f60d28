// Package api serves a read-only JSON view of benchmgr state.
//
// Routes:
//
//	GET /api/health               store reachability and pipeline readiness
//	GET /api/runs                 recent definition outcomes (?run=<id>&limit=N)
//	GET /api/definitions/{kind}   stored alert or report definitions
//	GET /api/alerts               alert history (?name=<alert>&test=<test>&limit=N)
//
// DTOs use camelCase JSON tags and RFC3339 timestamps with milliseconds.
package api

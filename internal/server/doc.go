// Package server hosts the Fiber HTTP service: the JSON API over the domain
// cache plus the /-/ operator surface (health, verbose toggle, refresh,
// backup, recover). Middleware attaches a request ID and completion logging;
// handlers treat "resource unavailable" as an ordinary 404/409 outcome, never
// as a reason to crash the process. Exports stay narrow and dependencies are
// accepted explicitly so main and tests can build apps the same way.
package server

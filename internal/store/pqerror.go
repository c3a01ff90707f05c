package store

import "github.com/lib/pq"

// asPQError unwraps err into a *pq.Error, if it is one. Centralized here
// so callers can branch on Postgres error codes (e.g. unique_violation)
// without importing lib/pq directly.
func asPQError(err error) (*pq.Error, bool) {
	pe, ok := err.(*pq.Error)
	return pe, ok
}

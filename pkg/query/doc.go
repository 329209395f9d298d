// Package query is the read-through cache shared by every view of the dashboard.
//
// Query fetches a value at most once per key at a time and serves it from the
// cache while it is fresh. Mutate runs a write and, on success only, invalidates
// the keys that depend on it. Invalidation works on key prefixes: invalidating
// EntityKey("prospects") marks every prospects list and detail entry stale.
//
//	store := query.NewStore(query.WithLogger(logger))
//	defer store.Close()
//
//	prospects, err := query.Query(ctx, store, query.ListKey("prospects", filter.ToValues()),
//	  func(ctx context.Context) ([]crm.Prospect, error) {
//	    return cli.Prospects().List(ctx, filter)
//	  })
//
//	result := query.Mutate(ctx, store, func(ctx context.Context) (*crm.Prospect, error) {
//	  return cli.Prospects().Create(ctx, request)
//	}, query.Invalidates(query.EntityKey("prospects")))
//
// Values are stored JSON-encoded, so every caller decodes its own copy and no view
// can patch an object another view is holding.
//
// Each entry moves through Empty, Loading, Fresh or Error, and Stale. A fetch that
// completes after its entry was invalidated is not stored, and a mutation that
// completes after a newer mutation on the same target is reported as Superseded
// instead of overwriting the newer value.
package query

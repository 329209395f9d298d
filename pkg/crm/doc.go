// Package crm provides types, interfaces, and helpers for working with the
// prospect CRM REST API.
//
// # Overview
//
// The crm package defines the domain types (Prospect, User, Role, Permission,
// Comment, Interaction, Formation, Simulateur) and the interfaces of the
// resource clients (ProspectsClient, UsersClient, ...). A concrete implementation
// is provided by the crmclient package, which wires configuration and the shared
// transport. Most consumers construct a client there and use the interfaces
// exposed here.
//
//	cli, err := crmclient.New(ctx, &crm.Config{BaseURL: "https://crm.example.com/api"})
//	if err != nil { log.Fatal(err) }
//
//	prospects, err := cli.Prospects().List(ctx, &crm.ProspectFilter{
//	  Status:  crm.ProspectStatusNouveau,
//	  Country: "CI",
//	})
//
// # Enumerations
//
// Status, role, type and channel values are closed string types. Encoding refuses
// values outside the declared set, so an invalid stage can never reach the server.
//
// # Requests and filters
//
// Create requests carry required fields as values and can be checked with
// Validate before submission. Update requests are partial: fields are pointers and
// only non-nil ones are sent (see Ptr). Filters omit empty fields from the query
// string.
//
// # Errors
//
// TransportError, APIError, DecodeError and PermissionDeniedError describe the
// failure classes. APIError matches ErrNotFound, ErrInvalidInput, ErrUnauthorized,
// ErrForbidden and ErrConflict through errors.Is according to its HTTP status.
//
// # Interceptors and caching
//
// InterceptorChain lets callers observe or decorate every request. Cache backends
// (MemoryCache, NATSKVCache, CacheChain, NoOpCache) hold the values of the query
// store in the query package.
package crm

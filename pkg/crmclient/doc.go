// Package crmclient is the entry point for building a crm.Client.
//
// It normalizes the base URL, builds the single shared transport and wires every
// entity client onto it.
//
//	cli, err := crmclient.New(ctx, &crm.Config{BaseURL: "crm.example.com/api"})
//	if err != nil { log.Fatal(err) }
//
//	// Or open a session right away:
//	cli, err = crmclient.NewWithSession(ctx, "https://crm.example.com/api", "dg@example.com", "secret")
//
// The session lives in the httponly cookie the server sets on login; it is kept by
// the transport's cookie jar and can be persisted with Cookies / SetCookies.
package crmclient

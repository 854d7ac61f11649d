/*
Package parkdash is a client for the administrative API of a parking and
gate-access system.

It keeps one state slice per dashboard resource (users, RFID tags, RFID logs,
vehicle types, arrivals, parking reports and gate logs). Every remote call is an
operation whose lifecycle is pending, then fulfilled or rejected, and is
reflected in its slice. Subscribers receive every change.

# Concept

The store (pkg/store) is transport agnostic: operations are executed by a
ports.Executor, normally the REST client in pkg/adapters/rest. Credentials live
in a ports.CredentialStore (memory, JSON file or Redis) behind a session.Manager
whose guard supplies the bearer token and handles 401 responses. The Client in
this package wires all of it for one session.

# Usage

	ctx := context.Background()
	client, err := parkdash.New("https://parking.example.com/api",
		parkdash.WithCredentialStore(file.New("")),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close(ctx)

	if _, err := client.Login(ctx, "admin", "secret"); err != nil {
		log.Fatal(err)
	}

	page, err := client.Store.Arrivals.GetArrivals.Run(ctx, domain.Args{
		Query: &domain.Query{Page: 1, Limit: 10},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(page.Total)

	// the slice reflects the same result
	state := client.Store.Arrivals.State()
	fmt.Println(state.Pending, len(state.Data.Arrivals.Data))

# Overlapping dispatches

By default the latest dispatch of an operation wins: an older response that
settles later is discarded and the slice stays pending until the latest one
settles. store.LastSettledWins applies every response in arrival order instead.

# Surfaces

The cmd/parkdash binary exposes the store through a CLI, a local HTTP gateway
with a server-sent event stream (pkg/adapters/http) and an MCP server
(pkg/adapters/mcp).
*/
package parkdash

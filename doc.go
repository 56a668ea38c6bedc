/*
Package qbt is a thin, typed client for the qBittorrent Web API, built to
back the qbt-mcp tool server.

The client owns one authenticated session: Login stores the session
cookie, every call reuses it, and a 403 from any endpoint surfaces as an
AuthError so the caller can re-login. There is no automatic retry or
re-authentication.

Quick start:

	client, err := qbt.New(qbt.Config{
	    BaseURL:  "http://localhost:8080",
	    Username: "admin",
	    Password: "adminadmin",
	})
	if err != nil {
	    log.Fatal(err)
	}

	ctx := context.Background()
	if err := client.Login(ctx); err != nil {
	    log.Fatal(err)
	}
	defer client.Close()

	torrents, err := client.ListTorrents(ctx, qbt.ListOptions{Filter: "downloading"})

The blocking Search helper wraps the asynchronous search API: it starts a
job, polls its status up to SearchMaxPolls times, fetches results and
deletes the job, returning partial results if the job never stops within
the poll budget.
*/
package qbt

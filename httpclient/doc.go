// Package httpclient provides the pooled HTTP transport shared by the
// XRPL JSON-RPC client and the HTTP forwarding collector.
//
// One Client is safe for concurrent use by every fetch worker; idle
// connections are kept alive between requests.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://s1.ripple.com:51234",
//	    Timeout: 30 * time.Second,
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Body:   map[string]any{"method": "server_info"},
//	})
//
// Non-2xx responses come back as *Error values classified by status code.
package httpclient

// Package xrpl is the boundary between ledgerflow and a rippled node.
//
// Client covers the request/response calls the pipeline needs (ledger,
// ledger_data and the latest validated index) and is implemented over
// JSON-RPC by RPCClient. Subscriber covers the streaming side and is
// implemented over a websocket by WSSubscriber.
package xrpl

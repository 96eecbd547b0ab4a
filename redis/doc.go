// Package redis wraps go-redis with ledgerflow logging, configuration
// conventions and component lifecycle. TypedStore layers JSON values on top
// and backs the Redis checkpoint store:
//
//	client, _ := redis.New(redis.Config{Enabled: true, Addr: "localhost:6379"}, log)
//	store := redis.NewTypedStore[state](client, "ledgerflow")
package redis

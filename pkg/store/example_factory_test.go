package store_test

import (
	"context"
	"fmt"
	"log"

	"github.com/go-training/mcp-calculator/pkg/core"
	"github.com/go-training/mcp-calculator/pkg/store"
)

// Example demonstrates queueing a response for a connected SSE client.
func Example() {
	s, err := store.NewStore(store.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.CreateSession(ctx, &core.Session{ID: "example-client"}); err != nil {
		log.Fatal(err)
	}
	if err := s.Enqueue(ctx, "example-client", []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`)); err != nil {
		log.Fatal(err)
	}

	msgs, err := s.Dequeue(ctx, "example-client", 10)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(msgs), string(msgs[0]))
	// Output: 1 {"jsonrpc":"2.0","id":1,"result":{}}
}

// Example_parseStoreType demonstrates parsing store types from strings.
func Example_parseStoreType() {
	memoryType := store.ParseStoreType("memory")
	redisType := store.ParseStoreType("redis")
	invalidType := store.ParseStoreType("invalid")

	fmt.Printf("memory: %s (valid: %v)\n", memoryType, memoryType.IsValid())
	fmt.Printf("redis: %s (valid: %v)\n", redisType, redisType.IsValid())
	fmt.Printf("invalid: %s (valid: %v)\n", invalidType, invalidType.IsValid())

	// Output:
	// memory: memory (valid: true)
	// redis: redis (valid: true)
	// invalid: memory (valid: true)
}

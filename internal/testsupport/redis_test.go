package testsupport

import (
	"context"
	"testing"
	"time"
)

func TestRedisClientFlushesBetweenTests(t *testing.T) {
	configs := LoadDatabaseConfigsFromEnv(t)
	client := NewRedisClient(t, configs.Redis)
	ctx := context.Background()

	if err := client.Set(ctx, "credit_report:scratch", "cached", time.Minute).Err(); err != nil {
		t.Fatalf("failed to set scratch key: %v", err)
	}

	val, err := client.Get(ctx, "credit_report:scratch").Result()
	if err != nil {
		t.Fatalf("failed to read scratch key: %v", err)
	}
	if val != "cached" {
		t.Fatalf("unexpected scratch value: %s", val)
	}

	// A second helper connection starts from a flushed database.
	fresh := NewRedisClient(t, configs.Redis)
	n, err := fresh.Exists(ctx, "credit_report:scratch").Result()
	if err != nil {
		t.Fatalf("failed to check scratch key: %v", err)
	}
	if n != 0 {
		t.Fatal("expected the key to be flushed for a new test connection")
	}
}

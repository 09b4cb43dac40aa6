package main

import (
	"context"
	"log"
	"os"

	"github.com/Sam-Sparxz/Portfolio/src/api/data"
	"github.com/Sam-Sparxz/Portfolio/src/api/types"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "sqlite://portfolio.db"
	}

	db, err := data.Open(dsn)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer data.Close(db)

	if err := data.EnsureSchema(db); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	store := data.NewMessageStore(db)
	ctx := context.Background()

	msg := types.ContactMessage{
		Name:    "Storage Test",
		Email:   "storage@example.com",
		Subject: "Storage round trip",
		Message: "Written by scripts/storage/test_storage.go",
	}
	if err := store.Insert(ctx, &msg); err != nil {
		log.Fatalf("Insert failed: %v", err)
	}
	log.Printf("Inserted message %d at %s", msg.ID, msg.CreatedAt)

	msgs, err := store.List(ctx, 5)
	if err != nil {
		log.Fatalf("List failed: %v", err)
	}
	log.Printf("Latest %d messages:", len(msgs))
	for _, m := range msgs {
		log.Printf("  #%d %s <%s> %q (%s)", m.ID, m.Name, m.Email, m.Subject, m.CreatedAt)
	}

	if len(msgs) == 0 || msgs[0].ID != msg.ID {
		log.Fatal("Newest message is not the one just inserted")
	}
}

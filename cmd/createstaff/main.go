package main

import (
	"context"
	"flag"
	"log"

	"eventqr/internal/auth"
	"eventqr/internal/config"
	"eventqr/internal/store"
)

// Creates a staff account for the portal. Run once after deploy:
//
//	createstaff -username ms.reyes -password <secret>
func main() {
	username := flag.String("username", "", "staff username")
	password := flag.String("password", "", "staff password")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("both -username and -password are required")
	}

	cfg := config.Load()
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	repo := auth.NewRepository(db.Client)
	st, err := repo.CreateStaff(context.Background(), *username, hash)
	if err != nil {
		log.Fatalf("create staff: %v", err)
	}
	log.Printf("created staff %s (%s)", st.Username, st.ID)
}

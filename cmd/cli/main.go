package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kinhtot/marketplace/internal/auth"
	"github.com/kinhtot/marketplace/internal/config"
	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
	"github.com/kinhtot/marketplace/internal/store"
)

func main() {
	addUserCmd := flag.NewFlagSet("add-user", flag.ExitOnError)
	email := addUserCmd.String("email", "", "Email for the new user")
	password := addUserCmd.String("password", "", "Password for the new user")
	name := addUserCmd.String("name", "", "Full name for the new user")
	role := addUserCmd.String("role", models.RoleAdmin, "Role: BUYER, SELLER, STAFF or ADMIN")

	if len(os.Args) < 2 {
		fmt.Println("expected 'add-user' or 'seed-categories' subcommand")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add-user":
		addUserCmd.Parse(os.Args[2:])
		if *email == "" || *password == "" {
			fmt.Println("email and password are required")
			addUserCmd.PrintDefaults()
			os.Exit(1)
		}
		if !models.ValidRole(*role) {
			fmt.Printf("invalid role %q\n", *role)
			os.Exit(1)
		}
		createUser(*email, *password, *name, *role)
	case "seed-categories":
		seedCategories()
	default:
		fmt.Println("expected 'add-user' or 'seed-categories' subcommand")
		os.Exit(1)
	}
}

func openDB() *sql.DB {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	return db
}

func createUser(email, password, name, role string) {
	db := openDB()
	defer db.Close()

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Hash password: %v", err)
	}

	if name == "" {
		name = email
	}

	user, err := store.CreateUser(context.Background(), db, email, hash, name, "", role)
	if err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			log.Fatalf("A user with email %q already exists", email)
		}
		log.Fatalf("Create user: %v", err)
	}

	fmt.Printf("%s user '%s' created with id %d.\n", user.Role, user.Email, user.ID)
}

func seedCategories() {
	db := openDB()
	defer db.Close()

	categories := []struct {
		name string
		slug string
	}{
		{"Gọng kính cận", "gong-kinh-can"},
		{"Kính râm", "kinh-ram"},
		{"Kính trẻ em", "kinh-tre-em"},
		{"Tròng kính", "trong-kinh"},
		{"Phụ kiện", "phu-kien"},
	}

	ctx := context.Background()
	for _, c := range categories {
		category, err := store.CreateCategory(ctx, db, c.name, c.slug)
		if err != nil {
			if errors.Is(err, database.ErrSlugTaken) {
				fmt.Printf("Category '%s' already exists, skipping.\n", c.name)
				continue
			}
			log.Fatalf("Create category %q: %v", c.name, err)
		}
		fmt.Printf("Category '%s' created with id %d.\n", category.Name, category.ID)
	}
}

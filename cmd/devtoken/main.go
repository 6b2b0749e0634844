// cmd/devtoken/main.go
//
// devtoken mints a bearer token for local testing against the API.
//
//	go run ./cmd/devtoken -user 1 -role admin
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"finflow-requests/internal/auth"
	"finflow-requests/internal/domain"
)

func main() {
	_ = godotenv.Load()

	userID := flag.Int64("user", 1, "user id to embed in the token")
	role := flag.String("role", string(domain.RoleUser), "role: user or admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "signing secret (defaults to $JWT_SECRET)")
	flag.Parse()

	token, err := auth.IssueToken(*secret, *userID, domain.Role(*role), *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

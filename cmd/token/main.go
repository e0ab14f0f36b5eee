package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/token"
)

func main() {
	userID := flag.String("user", "", "User UUID to mint a token for")
	secret := flag.String("secret", "", "HMAC secret (defaults to $JWT_SECRET)")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "Usage: token -user <user-uuid> [-secret <hmac-secret>] [-ttl <duration>]")
		os.Exit(1)
	}

	id, err := uuid.Parse(*userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user ID: %v\n", err)
		os.Exit(1)
	}

	key := *secret
	if key == "" {
		key = os.Getenv("JWT_SECRET")
	}
	if key == "" {
		key = "dev-secret"
	}

	signed, err := token.NewVerifier(key).Mint(id, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(signed)
}

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/acadio/acadio-backend/internal/config"
	"github.com/acadio/acadio-backend/internal/service"
)

// mint-token issues a signed JWT for a student or admin. Identity is managed
// by the upstream LMS; this tool exists for ops and local testing.
func main() {
	var (
		tokenType string
		userID    int
	)
	flag.StringVar(&tokenType, "type", "student", "Token type: student or admin")
	flag.IntVar(&userID, "user", 0, "User ID to embed in the token")
	flag.Parse()

	if userID < 1 {
		fmt.Fprintln(os.Stderr, "Error: -user is required and must be positive")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.Load()
	authService := service.NewAuthService(cfg)

	var (
		token string
		err   error
	)
	switch tokenType {
	case "student":
		token, err = authService.GenerateStudentToken(userID)
	case "admin":
		token, err = authService.GenerateAdminToken(userID)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown token type %q\n", tokenType)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}

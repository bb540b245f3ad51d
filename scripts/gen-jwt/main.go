// Gen-jwt prints an HS256 token accepted by the write endpoints.
// Run from project root: go run ./scripts/gen-jwt -sub alice -ttl 1h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"

	"todo-api/internal/config"
)

func main() {
	subject := flag.String("sub", "test-user", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := config.Get().JWTSecret
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set; writes are unauthenticated")
		os.Exit(1)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   *subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		panic(err)
	}

	fmt.Println(signed)
}

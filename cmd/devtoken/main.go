// Command devtoken prints a bearer token for a uid, signed with
// JWT_SECRET, so the API can be exercised locally without the identity
// provider.
//
//	go run ./cmd/devtoken -uid test-farmer-id-1
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/agrirelief/internal/utils"
)

func main() {
	_ = godotenv.Load()
	uid := flag.String("uid", "test-farmer-id-1", "token subject (identity provider uid)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	tok, err := utils.NewAccessToken(os.Getenv("JWT_SECRET"), *uid, *ttl)
	if err != nil {
		log.Fatalf("devtoken: %v", err)
	}
	fmt.Println(tok.Token)
}

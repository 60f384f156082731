package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/tuitionpay/escrowhub/lib/tokens"
)

type tokenConfig struct {
	JWTSecret            []byte `envconfig:"JWT_SECRET" required:"true"`
	JWTAccessTokenExpiry int    `envconfig:"JWT_ACCESS_EXPIRY" default:"172800"`
}

// prints an access token for an address, e.g. go run ./cmd/tokens -address 0x...
func main() {
	address := flag.String("address", "", "address the token identifies")
	expiry := flag.Int("expiry", 0, "token lifetime in seconds, defaults to JWT_ACCESS_EXPIRY")
	flag.Parse()

	c := &tokenConfig{}
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}
	if *expiry <= 0 {
		*expiry = c.JWTAccessTokenExpiry
	}

	token, err := tokens.GenerateAccessToken(c.JWTSecret, *expiry, *address)
	if err != nil {
		log.Fatalf("Error generating access token: %v", err)
	}
	fmt.Println(token)
}

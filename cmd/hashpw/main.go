// Package main prints the argon2id hash of a host password for HOST_PASSWORD_HASH.
//
// Usage:
//
//	go run ./cmd/hashpw 'correct horse battery staple'
//	echo -n 'secret' | go run ./cmd/hashpw
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/digitalrsvp/rsvp-server/internal/auth"
)

func main() {
	var password string
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("Failed to read password: %v", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if password == "" {
		log.Fatal("Password must not be empty")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	fmt.Println(hash)
}

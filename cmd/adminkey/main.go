package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/angelmondragon/seedling-limiter/api/middleware"
	"github.com/angelmondragon/seedling-limiter/pkg/config"
	"github.com/angelmondragon/seedling-limiter/pkg/security"
)

// adminkey prints an argon2id hash for SEEDLING_ADMIN_KEY_HASH. The key is
// read from stdin unless -generate is set.
func main() {
	generate := flag.Bool("generate", false, "generate a random key and print it with its hash")
	length := flag.Int("length", 40, "generated key length")
	flag.Parse()

	var key string
	if *generate {
		generated, err := security.GenerateKey(*length)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate key: %v\n", err)
			os.Exit(1)
		}
		key = generated
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "expected the admin key on stdin")
			os.Exit(1)
		}
		key = strings.TrimSpace(line)
	}

	hash, err := security.HashKey(key, security.DefaultParams())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash key: %v\n", err)
		os.Exit(1)
	}

	if *generate {
		fmt.Fprintf(os.Stderr, "admin key (send as %s): %s\n", middleware.AdminKeyHeader, key)
	}
	fmt.Printf("%s=%s\n", config.EnvAdminKeyHash, hash)
}

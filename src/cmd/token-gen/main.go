// FILE: src/cmd/token-gen/main.go
package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"logroute/src/internal/core"
)

func main() {
	var (
		tokenLen = flag.Int("l", core.DefaultTokenLength, "Token length in bytes")
		genKey   = flag.Bool("k", false, "Generate a JWT signing key instead of a bearer token")
		custom   = flag.Bool("c", false, "Format a token entered at the prompt instead of generating one")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "LogRoute Admin Token Utility\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  Generate bearer token:   %s [-l <length>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  Generate signing key:    %s -k [-l <length>]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  Format an existing one:  %s -c\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *tokenLen < 16 {
		fmt.Fprintf(os.Stderr, "Warning: token length < 16 bytes is insecure\n")
	}

	var token string
	if *custom {
		token = promptToken("Enter token: ")
		confirm := promptToken("Confirm token: ")
		if token != confirm {
			fmt.Fprintf(os.Stderr, "Error: tokens don't match\n")
			os.Exit(1)
		}
	} else {
		raw := make([]byte, *tokenLen)
		if _, err := rand.Read(raw); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
			os.Exit(1)
		}
		token = base64.RawURLEncoding.EncodeToString(raw)
	}

	if *genKey {
		fmt.Println("\n# Add to logroute.toml under [admin]:")
		fmt.Printf("jwt_signing_key = \"%s\"\n", token)
		return
	}

	fmt.Println("\n# Add to logroute.toml under [admin]:")
	fmt.Printf("bearer_tokens = [\"%s\"]\n", token)
	fmt.Printf("\n# Token: %s\n", token)
}

func promptToken(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	token, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading token: %v\n", err)
		os.Exit(1)
	}
	return string(token)
}

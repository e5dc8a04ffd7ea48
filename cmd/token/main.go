// Command token mints a development JWT for exercising the location API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"quickbite/internal/domain/user"
	"quickbite/internal/jwt"
)

func main() {
	userID := flag.String("user-id", "", "subject user id")
	roleFlag := flag.String("role", "DRIVER", "role: CUSTOMER | RESTAURANT | DRIVER | ADMIN")
	secret := flag.String("secret", "", "JWT signing secret (must match the service config)")
	ttl := flag.Duration("ttl", 2*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" || *secret == "" {
		fmt.Fprintln(os.Stderr, "usage: token --user-id <id> --secret <key> [--role DRIVER] [--ttl 2h]")
		os.Exit(2)
	}

	role, err := user.ParseRole(*roleFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v: %q\n", err, *roleFlag)
		os.Exit(2)
	}

	signed, claims, err := jwt.NewManager(*secret, *ttl).IssueUserToken(*userID, role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(signed)
	fmt.Fprintf(os.Stderr, "subject=%s role=%s expires=%s\n",
		claims.Subject, claims.Role, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
}

// cmd/fundingconnect/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/palmtreesdigital/fundingconnect/app"
	"github.com/palmtreesdigital/fundingconnect/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

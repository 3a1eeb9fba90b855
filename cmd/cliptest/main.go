//go:build ignore

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/scottviteri/r1-chat/internal/clipboard"
)

func main() {
	text := "r1-chat clipboard test"
	if len(os.Args) > 1 {
		text = strings.Join(os.Args[1:], " ")
	}
	fmt.Printf("Testing clipboard write of %q...\n", text)
	if err := clipboard.WriteText(text); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Written. Paste somewhere to check.")
}

// Command schema writes JSON schema of scrollfeed configuration,
// the result is embedded into pkg/config and used to verify loaded configs.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/umputun/scrollfeed/pkg/config"
)

func main() {
	outputPath := "schema.json"
	if len(os.Args) > 1 {
		outputPath = os.Args[1]
	}

	schema, err := config.GenerateSchema()
	if err != nil {
		log.Fatalf("[ERROR] can't generate schema: %v", err)
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("[ERROR] can't marshal schema: %v", err)
	}

	if err := os.WriteFile(outputPath, append(data, '\n'), 0o600); err != nil {
		log.Fatalf("[ERROR] can't write schema to %s: %v", outputPath, err)
	}
	fmt.Printf("config schema written to %s\n", outputPath)
}

// Command schema writes a JSON Schema document for every component
// message kind.
package main

import (
	"flag"
	"log"

	"github.com/roach88/mintgate/internal/schemagen"
)

func main() {
	out := flag.String("out", "schemas", "output directory")
	flag.Parse()

	paths, err := schemagen.Write(*out)
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range paths {
		log.Printf("wrote %s", p)
	}
}

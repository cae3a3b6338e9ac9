// Command query-index runs a batch of basic graph patterns against a
// ring index, printing one CSV line per query: idx;nresults;nanoseconds.
// Results are capped at 1,000 per query and search time at 600 seconds.
package main

import (
	"fmt"
	"os"
	"time"

	"ringstore/ltj"
	"ringstore/persist"
	"ringstore/queryfile"
)

const (
	resultLimit  = 1000
	queryTimeout = 600 * time.Second
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <index> <queries>\n", os.Args[0])
		os.Exit(1)
	}
	indexPath, queriesPath := os.Args[1], os.Args[2]

	queries, err := queryfile.ReadFile(queriesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read queries %s: %v\n", queriesPath, err)
		os.Exit(1)
	}

	fmt.Print(" Loading the index...")
	ring, err := persist.LoadFile(indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\ncannot load index %s: %v\n", indexPath, err)
		os.Exit(1)
	}
	if fi, err := os.Stat(indexPath); err == nil {
		fmt.Printf("\n Index loaded %d bytes\n", fi.Size())
	} else {
		fmt.Println()
	}

	for i, q := range queries {
		start := time.Now()
		algo := ltj.New(q, ring)
		res := algo.Join(resultLimit, queryTimeout)
		elapsed := time.Since(start)
		fmt.Printf("%d;%d;%d\n", i, len(res), elapsed.Nanoseconds())
	}
}

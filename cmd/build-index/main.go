// Command build-index reads a plain-text triple dataset and writes a
// ring index next to it as <dataset>.<type>, where <type> selects the
// bit-vector flavor: ring (plain), c-ring (compressed), ring-sel
// (plain with a select index).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"ringstore/bitvector"
	"ringstore/dataset"
	"ringstore/persist"
	"ringstore/ringidx"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <dataset> [ring|c-ring|ring-sel]\n", os.Args[0])
	os.Exit(1)
}

func main() {
	if len(os.Args) != 3 {
		usage()
	}
	path, indexType := os.Args[1], os.Args[2]

	var flavor bitvector.Flavor
	switch indexType {
	case "ring":
		flavor = bitvector.FlavorPlain
	case "c-ring":
		flavor = bitvector.FlavorRSDic
	case "ring-sel":
		flavor = bitvector.FlavorPlainSelect
	default:
		usage()
	}
	output := path + "." + indexType

	bar := progressbar.Default(3, "build-index")

	triples, err := dataset.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read dataset %s: %v\n", path, err)
		os.Exit(1)
	}
	bar.Add(1)
	fmt.Printf("--Indexing %s triples\n", humanize.Comma(int64(len(triples))))

	start := time.Now()
	ring := ringidx.New(triples, flavor)
	bar.Add(1)

	if err := persist.SaveFile(output, ring); err != nil {
		fmt.Fprintf(os.Stderr, "cannot write index %s: %v\n", output, err)
		os.Exit(1)
	}
	bar.Add(1)
	elapsed := time.Since(start)

	size := uint64(0)
	if fi, err := os.Stat(output); err == nil {
		size = uint64(fi.Size())
	}
	fmt.Printf("  Index built  %s\n", humanize.Bytes(size))
	fmt.Println("Index saved")
	fmt.Printf("%d seconds.\n", int64(elapsed.Seconds()))
}

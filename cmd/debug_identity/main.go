package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"dailies/core/config"
	"dailies/core/index"
	"dailies/core/pipeline"
)

// Shows how every file under a root whose name contains a substring resolves
// to an identity, and which other root files share that identity.
//
//	go run ./cmd/debug_identity /Volumes/POOL A001C003
func main() {
	if len(os.Args) != 3 {
		log.Fatalf("usage: %s <root> <name-substring>", os.Args[0])
	}
	root, needle := os.Args[1], strings.ToLower(os.Args[2])

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}
	resolver, err := cfg.Index.Resolver()
	if err != nil {
		log.Fatal(err)
	}

	scan := pipeline.NewScan(cfg.Index, cfg.Retry, nil)
	ctx := context.Background()

	fmt.Printf("Indexing %s...\n", root)
	idx, err := index.NewIndexer(resolver, nil).Index(ctx, scan.FS(root), index.RootPool)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Indexed %d identities (partial: %v)\n", idx.Len(), idx.Partial())

	fmt.Printf("\n=== Files containing '%s' ===\n", needle)
	count := 0
	for _, e := range idx.Entries() {
		paths := append([]string{e.RelativePath}, e.DuplicatePaths...)
		for _, p := range paths {
			if !strings.Contains(strings.ToLower(p), needle) {
				continue
			}
			count++
			fmt.Printf("File: %s\n  -> stem: %s, key: %s, derived: %s\n", p, e.Identity.Stem, e.Identity.Key(), e.Identity.Derived().Key())
			if e.CaptureAt.IsZero() {
				fmt.Println("  ⚠️  No capture time, size is part of the key")
			}
			if e.Duplicates > 0 {
				fmt.Printf("  ✅ Confirmed duplicate of %d other file(s)\n", e.Duplicates)
			}
		}
	}
	for _, c := range idx.Collisions {
		if strings.Contains(strings.ToLower(c.Paths[0]+c.Paths[1]), needle) {
			fmt.Printf("Collision: %s <> %s: %s\n", c.Paths[0], c.Paths[1], c.Message)
		}
	}

	fmt.Printf("\nTotal files containing '%s': %d\n", needle, count)
}

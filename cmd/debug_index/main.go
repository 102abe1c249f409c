package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"

	"dailies/core/config"
	"dailies/core/index"
	"dailies/core/pipeline"
	"dailies/core/reconcile"
	"dailies/core/storage"

	"github.com/spf13/pflag"
)

// Dumps the index of one root, or the classification of two roots, as JSON.
//
//	go run ./cmd/debug_index --source /Volumes/CARD
//	go run ./cmd/debug_index -s /Volumes/POOL -t /Volumes/BACKUP
//	go run ./cmd/debug_index -s /Volumes/POOL --bucket dailies
func main() {
	a, err := parseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	// Load config
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}
	resolver, err := cfg.Index.Resolver()
	if err != nil {
		log.Fatal(err)
	}

	ix := index.NewIndexer(resolver, nil)
	scan := pipeline.NewScan(cfg.Index, cfg.Retry, nil)
	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	src, err := ix.Index(ctx, scan.FS(a.source), index.RootPool)
	if err != nil {
		log.Fatal(err)
	}

	// Single root: the index itself
	var dst index.Scanner
	switch {
	case a.bucket != "":
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			log.Fatal(err)
		}
		dst = scan.Object(client, a.bucket, cfg.Storage.Prefix)
	case a.target != "":
		dst = scan.FS(a.target)
	default:
		if err := enc.Encode(src); err != nil {
			log.Fatal(err)
		}
		return
	}

	// Two roots: the classification
	tgt, err := ix.Index(ctx, dst, index.RootBackup)
	if err != nil {
		log.Fatal(err)
	}
	results := reconcile.Reconcile(src, tgt)
	if err := enc.Encode(results); err != nil {
		log.Fatal(err)
	}
}

type args struct {
	source string
	target string
	bucket string
}

func parseArgs(argv []string) (args, error) {
	var a args
	fs := pflag.NewFlagSet("debug_index", pflag.ContinueOnError)
	fs.StringVarP(&a.source, "source", "s", "", "source root")
	fs.StringVarP(&a.target, "target", "t", "", "target root")
	fs.StringVarP(&a.bucket, "bucket", "b", "", "target bucket (uses STORAGE_* settings)")
	if err := fs.Parse(argv); err != nil {
		return a, err
	}
	if a.source == "" {
		return a, errors.New("--source is required")
	}
	if a.target != "" && a.bucket != "" {
		return a, errors.New("--target and --bucket are exclusive")
	}
	return a, nil
}

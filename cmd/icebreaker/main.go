package main

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/pflag"

	"github.com/vadviktor/icebreaker/pkg/logging"
	"github.com/vadviktor/icebreaker/pkg/restore"
)

func main() {
	f := pflag.NewFlagSet("icebreaker", pflag.ExitOnError)
	path := f.String("path", "", "The S3 path to restore (e.g. s3://mybucket/myfolder)")
	days := f.Int32("days", 1, "Number of days to keep restored objects available")
	dryRun := f.Bool("dry-run", false, "List affected objects without restoring")
	verbosity := f.String("verbosity", "", "Log verbosity: trace, debug, warn or error")
	if err := f.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logging.SetLevel(logging.LevelFromVerbosity(*verbosity))

	if *path == "" {
		fmt.Fprintln(os.Stderr, "Error: --path is required")
		f.PrintDefaults()
		os.Exit(1)
	}

	bucket, prefix, err := restore.ParsePath(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logging.Fatal("unable to load AWS SDK config", "error", err)
	}

	r := restore.New(s3.NewFromConfig(cfg), bucket, prefix, *days, *dryRun)
	if _, err := r.Run(ctx); err != nil {
		logging.Fatal("restore run failed", "error", err)
	}
}

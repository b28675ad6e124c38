// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command databench drives a synthetic pipeline end to end (textfile
// source, shuffle, xmap, batch) so the engine's throughput and
// correctness can be exercised without a real training recipe.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"code.hybscloud.com/datareader/pipeline"
	"code.hybscloud.com/datareader/source"
	"code.hybscloud.com/datareader/xmap"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "databench",
		Short:   "drive the data-loading pipeline engine over a directory of text files",
		Version: fmt.Sprintf("databench %s", version),
	}
	cmd.AddCommand(newRunCmd())
	return cmd
}

type runOptions struct {
	dir         string
	workers     int
	shuffle     int
	batch       int
	preserveOrd bool
	verbose     bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "read every record under --dir through shuffle, xmap, and batch stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(opts)
		},
	}
	cmd.Flags().StringVar(&opts.dir, "dir", ".", "directory of textfiles to read")
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "xmap worker count")
	cmd.Flags().IntVar(&opts.shuffle, "shuffle", 256, "shuffle window, 0 disables")
	cmd.Flags().IntVar(&opts.batch, "batch", 32, "batch size")
	cmd.Flags().BoolVar(&opts.preserveOrd, "preserve-order", false, "preserve xmap output order")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log per-batch progress")
	return cmd
}

func runBench(opts *runOptions) error {
	if opts.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	src, err := source.New(source.Config{
		URI:       opts.dir,
		PartCount: 1,
		FileType:  source.TextFile,
	})
	if err != nil {
		return fmt.Errorf("databench: %w", err)
	}

	p := pipeline.New(source.PipelineFactory(src.Reader(1)), false)
	if opts.shuffle != 0 {
		p.Shuffle(opts.shuffle)
	}
	p.Xmap(xmap.Config[pipeline.Sample]{
		Mapper:        identityMapper,
		WorkerCount:   opts.workers,
		BufferSize:    opts.workers * 4,
		PreserveOrder: opts.preserveOrd,
	})
	p.Batch(opts.batch, false)

	factory, err := p.Reader(false)
	if err != nil {
		return fmt.Errorf("databench: %w", err)
	}

	rd := factory()
	records, batches := 0, 0
	for {
		s, err := rd.Next()
		if err != nil {
			break
		}
		batches++
		records += len(s[0].(pipeline.Batch))
		if opts.verbose {
			logrus.Debugf("batch %d: %d records (total %d)", batches, len(s[0].(pipeline.Batch)), records)
		}
	}

	fmt.Printf("read %d records in %d batches\n", records, batches)
	return nil
}

func identityMapper(s pipeline.Sample) (pipeline.Sample, error) { return s, nil }

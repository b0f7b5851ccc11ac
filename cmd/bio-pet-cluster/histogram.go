// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/petcluster/pet"
	"github.com/guptarohit/asciigraph"
	"v.io/x/lib/cmdline"
)

func newCmdHistogram() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "histogram",
		Short:    "Print the distribution of cluster counts",
		ArgsName: "clusters.bedpe",
	}
	nBins := cmd.Flags.Int("bins", 100, "Report counts 0 .. bins-1")
	plot := cmd.Flags.Bool("plot", true, "Also draw the histogram")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("histogram takes one cluster file, but got %v", argv)
		}
		if *nBins <= 0 {
			return fmt.Errorf("-bins must be positive")
		}
		return histogram(vcontext.Background(), env.Stdout, argv[0], *nBins, *plot)
	})
	return cmd
}

func histogram(ctx context.Context, out io.Writer, path string, nBins int, plot bool) error {
	clusters, err := pet.ReadClusters(ctx, path)
	if err != nil {
		return err
	}
	s := pet.Summarize(clusters)
	fmt.Fprintf(out, "clusters: %d  total count: %d  mean: %.2f  median: %.1f  max: %d\n",
		s.NClusters, s.TotalCount, s.MeanCount, s.MedianCount, s.MaxCount)
	hist, percent := pet.CountHistogram(clusters, nBins)
	series := make([]float64, len(hist))
	for i, h := range hist {
		fmt.Fprintf(out, "%d %d %.4f%%\n", i, h, percent[i])
		series[i] = float64(h)
	}
	if plot && len(clusters) > 0 {
		fmt.Fprintln(out, asciigraph.Plot(series, asciigraph.Height(10), asciigraph.Precision(0),
			asciigraph.Caption("clusters per count")))
	}
	return nil
}

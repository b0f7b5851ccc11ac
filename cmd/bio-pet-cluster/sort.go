// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/petcluster/interval"
	"github.com/grailbio/petcluster/pet"
	"v.io/x/lib/cmdline"
)

func newCmdSort() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "sort",
		Short:    "Sort a cluster file by all columns",
		ArgsName: "in.bedpe out.bedpe",
	}
	region := cmd.Flags.String("region", "", "Keep only clusters with both anchors inside this region. Format as <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or just <contig ID>")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("sort takes in.bedpe out.bedpe, but got %v", argv)
		}
		return sortClusters(vcontext.Background(), argv[0], argv[1], *region)
	})
	return cmd
}

func sortClusters(ctx context.Context, inPath, outPath, region string) error {
	clusters, err := pet.ReadClusters(ctx, inPath)
	if err != nil {
		return err
	}
	if region != "" {
		entry, err := interval.ParseRegionString(region)
		if err != nil {
			return err
		}
		n := len(clusters)
		clusters = pet.FilterRegion(clusters, entry)
		log.Printf("%d of %d clusters in %s", len(clusters), n, region)
	}
	pet.SortClusters(clusters)
	return pet.WriteClusters(ctx, outPath, clusters)
}

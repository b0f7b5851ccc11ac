// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/petcluster/pet"
	"v.io/x/lib/cmdline"
)

func newCmdCluster() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "cluster",
		Short:    "Cluster PETs whose anchors overlap",
		ArgsName: "pets.bedpe...",
		Long: `
Reads PETs (tab-separated chrom1 start1 end1 chrom2 start2 end2 count, no
header; .gz inputs are decompressed) and repeatedly merges PETs on the same
chromosome whose two anchors both overlap, until no merge is possible.
Clusters whose total count reaches -cluster-cutoff are written to -out in the
same seven-column format.`,
	}
	opts := pet.DefaultOpts
	cmd.Flags.Int64Var(&opts.SelfLigation, "self-ligation", opts.SelfLigation, "Self-ligation genomic span: PETs whose anchors are closer than this are dropped")
	cmd.Flags.Int64Var(&opts.Extension, "extension", opts.Extension, "Number of base pairs to extend both ends of both anchors")
	cmd.Flags.Uint64Var(&opts.PETCutoff, "pet-cutoff", opts.PETCutoff, "Minimum count of a PET to take it into consideration")
	cmd.Flags.Uint64Var(&opts.ClusterCutoff, "cluster-cutoff", opts.ClusterCutoff, "Minimum total count of a cluster to report it")
	cmd.Flags.StringVar(&opts.PeaksPath, "peaks", "", "Optional peak BED file; both anchors of a PET must intersect a peak")
	cmd.Flags.IntVar(&opts.Parallelism, "parallelism", opts.Parallelism, "Number of chromosomes clustered concurrently; 0 = runtime.NumCPU()")
	cmd.Flags.IntVar(&opts.MaxRounds, "max-rounds", opts.MaxRounds, "Fail if clustering has not converged after this many rounds; 0 = unbounded")
	cmd.Flags.BoolVar(&opts.SymmetricOverlap, "symmetric-overlap", opts.SymmetricOverlap, "Merge PETs whose anchors overlap in any way, including a second anchor nested in another")
	cmd.Flags.IntVar(&opts.MaxRecords, "nrows", opts.MaxRecords, "If positive, read at most this many PETs from each input file")
	outPath := cmd.Flags.String("out", "", "Output cluster path (.gz to compress)")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("cluster takes at least one PET file, but got none")
		}
		if *outPath == "" {
			return fmt.Errorf("-out must be set")
		}
		_, err := pet.Run(vcontext.Background(), argv, *outPath, &opts)
		return err
	})
	return cmd
}

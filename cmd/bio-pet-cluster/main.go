// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
bio-pet-cluster clusters ChIA-PET paired-end tags into chromatin loops, and
provides small utilities for inspecting the resulting cluster files.

  bio-pet-cluster cluster [flags] -out clusters.bedpe pets.bedpe [pets2.bedpe ...]
  bio-pet-cluster sort [-region chr8:57980001-59000000] in.bedpe out.bedpe
  bio-pet-cluster histogram [-bins 100] clusters.bedpe
*/
package main

import (
	"v.io/x/lib/cmdline"
)

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-pet-cluster",
		Short:    "Cluster paired-end tags from chromatin-interaction sequencing",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdCluster(),
			newCmdSort(),
			newCmdHistogram(),
		},
	}
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdRoot())
}

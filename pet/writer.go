// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pet

import (
	"context"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
)

// WriteClusters writes clusters to path, one tab-separated line of seven
// fields (chrom1 start1 end1 chrom2 start2 end2 count) per cluster, without a
// header.  Paths ending in .gz are gzip-compressed.
func WriteClusters(ctx context.Context, path string, clusters []Record) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	defer func() {
		if cerr := out.Close(ctx); cerr != nil && err == nil {
			err = errors.E(cerr, "close", path)
		}
	}()
	var (
		w  = out.Writer(ctx)
		gz *gzip.Writer
	)
	if fileio.DetermineType(path) == fileio.Gzip {
		gz = gzip.NewWriter(w)
		w = gz
	}
	if err = writeClusters(w, clusters); err != nil {
		return errors.E(err, "write", path)
	}
	if gz != nil {
		if err = gz.Close(); err != nil {
			return errors.E(err, "gzip", path)
		}
	}
	return nil
}

func writeClusters(w io.Writer, clusters []Record) error {
	tw := tsv.NewWriter(w)
	for i := range clusters {
		c := &clusters[i]
		tw.WriteString(c.Chrom1)
		tw.WriteInt64(c.Start1)
		tw.WriteInt64(c.End1)
		tw.WriteString(c.Chrom2)
		tw.WriteInt64(c.Start2)
		tw.WriteInt64(c.End2)
		tw.WriteString(strconv.FormatUint(c.Count, 10))
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

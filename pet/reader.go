// Copyright 2020 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pet

import (
	"bufio"
	"context"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/petcluster/interval"
	"github.com/klauspost/compress/gzip"
)

// nFields is the number of columns of a PET or cluster line.
const nFields = 7

// maxMalformedLogged bounds the number of malformed lines reported per file.
const maxMalformedLogged = 5

// LoadStats counts what happened to the lines of the input files.
type LoadStats struct {
	// Lines is the number of nonempty lines seen.
	Lines int
	// Records is the number of records parsed.
	Records int
	// Malformed is the number of lines dropped because of a wrong field count
	// or an unparseable coordinate or count.
	Malformed int
}

func (s *LoadStats) add(o LoadStats) {
	s.Lines += o.Lines
	s.Records += o.Records
	s.Malformed += o.Malformed
}

// openReader opens path for reading, decompressing gzip files.  The returned
// function closes the underlying file.
func openReader(ctx context.Context, path string) (io.Reader, func() error, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, errors.E(err, "open", path)
	}
	closer := func() error { return in.Close(ctx) }
	r := io.Reader(in.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		gz, err := gzip.NewReader(r)
		if err != nil {
			_ = closer()
			return nil, nil, errors.E(err, "gunzip", path)
		}
		r = gz
	}
	return r, closer, nil
}

// ReadRecords reads PETs from the given files and concatenates them.  At most
// maxRecords records are read from each file when maxRecords > 0.  Malformed
// lines are logged and skipped; only failures to read a file are returned as
// errors.
func ReadRecords(ctx context.Context, paths []string, maxRecords int) ([]Record, LoadStats, error) {
	var (
		records []Record
		total   LoadStats
	)
	for _, path := range paths {
		log.Printf("Reading PETs from %s ...", path)
		r, closer, err := openReader(ctx, path)
		if err != nil {
			return nil, total, err
		}
		var stats LoadStats
		records, stats, err = parseRecords(records, r, path, maxRecords)
		if cerr := closer(); cerr != nil && err == nil {
			err = errors.E(cerr, "close", path)
		}
		if err != nil {
			return nil, total, err
		}
		total.add(stats)
	}
	log.Printf("Read %d PETs (%d malformed lines skipped).", total.Records, total.Malformed)
	return records, total, nil
}

// ParseRecords parses PETs from r.  name is used in log messages only.
func ParseRecords(r io.Reader, name string) ([]Record, LoadStats, error) {
	return parseRecords(nil, r, name, 0)
}

func parseRecords(records []Record, r io.Reader, name string, maxRecords int) ([]Record, LoadStats, error) {
	var stats LoadStats
	scanner := bufio.NewScanner(bufio.NewReaderSize(r, 64<<10))
	// One map per file keeps the number of distinct chromosome strings equal to
	// the number of chromosomes instead of the number of lines.
	chroms := map[string]string{}
	intern := func(b []byte) string {
		if s, ok := chroms[gunsafe.BytesToString(b)]; ok {
			return s
		}
		s := string(b)
		chroms[s] = s
		return s
	}
	// One extra slot detects lines with too many fields.
	var tokens [nFields + 1][]byte
	lineIdx := 0
	for scanner.Scan() {
		if maxRecords > 0 && stats.Records >= maxRecords {
			break
		}
		lineIdx++
		nToken := interval.GetTokens(tokens[:], scanner.Bytes())
		if nToken == 0 {
			continue
		}
		stats.Lines++
		rec, ok := parseTokens(tokens[:nToken], intern)
		if !ok {
			stats.Malformed++
			if stats.Malformed <= maxMalformedLogged {
				log.Printf("%s:%d: malformed PET line ignored: %q", name, lineIdx, scanner.Text())
			}
			continue
		}
		records = append(records, rec)
		stats.Records++
	}
	if err := scanner.Err(); err != nil {
		return records, stats, errors.E(err, "read", name)
	}
	if stats.Malformed > maxMalformedLogged {
		log.Printf("%s: %d malformed PET lines ignored in total", name, stats.Malformed)
	}
	return records, stats, nil
}

func parseTokens(tokens [][]byte, intern func([]byte) string) (rec Record, ok bool) {
	if len(tokens) != nFields {
		return
	}
	var coords [4]int64
	for i, tokenIdx := range [4]int{1, 2, 4, 5} {
		v, err := strconv.ParseInt(gunsafe.BytesToString(tokens[tokenIdx]), 10, 64)
		if err != nil || v < 0 {
			return
		}
		coords[i] = v
	}
	count, err := strconv.ParseUint(gunsafe.BytesToString(tokens[6]), 10, 64)
	if err != nil {
		return
	}
	rec = Record{
		Chrom1: intern(tokens[0]),
		Start1: coords[0],
		End1:   coords[1],
		Chrom2: intern(tokens[3]),
		Start2: coords[2],
		End2:   coords[3],
		Count:  count,
	}
	return rec, true
}

// clusterRow is one line of a cluster file, in column order.
type clusterRow struct {
	Chrom1 string
	Start1 int64
	End1   int64
	Chrom2 string
	Start2 int64
	End2   int64
	Count  uint64
}

// ReadClusters reads a file written by WriteClusters.  Unlike ReadRecords it
// is strict: any malformed line is an error.
func ReadClusters(ctx context.Context, path string) (clusters []Record, err error) {
	r, closer, err := openReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := closer(); cerr != nil && err == nil {
			err = errors.E(cerr, "close", path)
		}
	}()
	tr := tsv.NewReader(bufio.NewReaderSize(r, 64<<10))
	var row clusterRow
	for {
		if err = tr.Read(&row); err != nil {
			if err == io.EOF {
				err = nil
				break
			}
			return nil, errors.E(err, "read clusters", path)
		}
		clusters = append(clusters, Record(row))
	}
	return clusters, nil
}

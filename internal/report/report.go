// Package report summarizes runs and the files held in a destination.
//
// Everything here only reads storage. The undersized-file scan is a
// heuristic for spotting truncated downloads, not an integrity guarantee.
package report

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/ligustah/tlcfetch/internal/catalog"
	"github.com/ligustah/tlcfetch/internal/downloader"
	"github.com/ligustah/tlcfetch/internal/progress"
	"github.com/ligustah/tlcfetch/internal/storage"
)

// DefaultMinSize is the size below which a file is flagged by Scan.
const DefaultMinSize = 1000

const fileSuffix = ".parquet"

// CategoryInventory lists the files stored for one category.
type CategoryInventory struct {
	Category  catalog.Category
	Files     []string // file names, sorted
	TotalSize int64
}

// First returns the earliest file name, or "".
func (c CategoryInventory) First() string {
	if len(c.Files) == 0 {
		return ""
	}
	return c.Files[0]
}

// Last returns the latest file name, or "".
func (c CategoryInventory) Last() string {
	if len(c.Files) == 0 {
		return ""
	}
	return c.Files[len(c.Files)-1]
}

// Suspect is a file smaller than the scan threshold.
type Suspect struct {
	Name string
	Size int64
}

// ScanResult is the outcome of scanning one category.
type ScanResult struct {
	Category catalog.Category
	Files    int
	Suspects []Suspect
}

// Inventory lists the parquet files stored for each category.
func Inventory(ctx context.Context, store *storage.Store, categories []catalog.Category) ([]CategoryInventory, error) {
	out := make([]CategoryInventory, 0, len(categories))
	for _, c := range categories {
		objs, err := store.List(ctx, string(c)+"/", fileSuffix)
		if err != nil {
			return nil, err
		}

		inv := CategoryInventory{Category: c}
		for _, o := range objs {
			inv.Files = append(inv.Files, path.Base(o.Key))
			inv.TotalSize += o.Size
		}
		sort.Strings(inv.Files)
		out = append(out, inv)
	}
	return out, nil
}

// Scan flags every parquet file smaller than minSize bytes.
func Scan(ctx context.Context, store *storage.Store, categories []catalog.Category, minSize int64) ([]ScanResult, error) {
	out := make([]ScanResult, 0, len(categories))
	for _, c := range categories {
		objs, err := store.List(ctx, string(c)+"/", fileSuffix)
		if err != nil {
			return nil, err
		}

		res := ScanResult{Category: c, Files: len(objs)}
		for _, o := range objs {
			if o.Size < minSize {
				res.Suspects = append(res.Suspects, Suspect{Name: path.Base(o.Key), Size: o.Size})
			}
		}
		sort.Slice(res.Suspects, func(i, j int) bool {
			return res.Suspects[i].Name < res.Suspects[j].Name
		})
		out = append(out, res)
	}
	return out, nil
}

// Flagged returns the number of suspects across results.
func Flagged(results []ScanResult) int {
	n := 0
	for _, r := range results {
		n += len(r.Suspects)
	}
	return n
}

// monthOf extracts "YYYY-MM" from a catalog file name.
func monthOf(c catalog.Category, name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, string(c)+"_"), fileSuffix)
}

// PrintSummary writes the run totals and each failure.
func PrintSummary(w io.Writer, sum downloader.Summary) {
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintln(w, "Download Summary:")
	fmt.Fprintf(w, "Successful: %d (%d already present)\n", sum.Successful, sum.Skipped)
	fmt.Fprintf(w, "Failed: %d\n", sum.Failed)
	fmt.Fprintf(w, "Total: %d\n", sum.Total)
	fmt.Fprintf(w, "Transferred: %s in %s\n",
		progress.FormatBytes(sum.Bytes),
		progress.FormatDuration(sum.Elapsed),
	)
	for _, f := range sum.Failures {
		fmt.Fprintf(w, "Failed: %s: %v\n", path.Base(f.Task.Key), f.Err)
	}
}

// PrintInventory writes the per-category file listing.
func PrintInventory(w io.Writer, dest string, inv []CategoryInventory) {
	fmt.Fprintf(w, "Files in %s:\n", dest)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	for _, c := range inv {
		fmt.Fprintf(w, "\n%s:\n", strings.ToUpper(string(c.Category)))
		fmt.Fprintf(w, "  Count: %d files\n", len(c.Files))
		if len(c.Files) == 0 {
			continue
		}
		fmt.Fprintf(w, "  Total size: %s\n", progress.FormatBytes(c.TotalSize))
		fmt.Fprintf(w, "  Date range: %s to %s\n",
			monthOf(c.Category, c.First()),
			monthOf(c.Category, c.Last()),
		)
	}
}

// PrintScan writes the scan results.
func PrintScan(w io.Writer, results []ScanResult) {
	for _, r := range results {
		if len(r.Suspects) == 0 {
			fmt.Fprintf(w, "All %s files appear valid (%d files)\n", r.Category, r.Files)
			continue
		}
		names := make([]string, len(r.Suspects))
		for i, s := range r.Suspects {
			names[i] = fmt.Sprintf("%s (%d B)", s.Name, s.Size)
		}
		fmt.Fprintf(w, "Potentially corrupted %s files: %s\n", r.Category, strings.Join(names, ", "))
	}
}

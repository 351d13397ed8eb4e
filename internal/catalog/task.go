package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultBaseURL is the origin serving the trip-record files.
const DefaultBaseURL = "https://d37ci6vzurychx.cloudfront.net/trip-data/"

// Task is one file to download. Tasks are created by Plan and never modified.
type Task struct {
	Category Category
	Month    Month

	// URL is the remote location of the file.
	URL string

	// Key is the slash-separated storage key, relative to the destination.
	Key string

	// Path is Key joined onto the destination root.
	Path string
}

func (t Task) String() string {
	return t.Key
}

// FileName returns "{category}_{YYYY}-{MM}.parquet".
func FileName(c Category, m Month) string {
	return fmt.Sprintf("%s_%s.parquet", c, m)
}

// URL returns the remote location of the file for c and m.
func URL(base string, c Category, m Month) string {
	return strings.TrimSuffix(base, "/") + "/" + FileName(c, m)
}

// Key returns the storage key "{category}/{file}".
func Key(c Category, m Month) string {
	return string(c) + "/" + FileName(c, m)
}

// Path returns the file location under root.
func Path(root string, c Category, m Month) string {
	return filepath.Join(root, string(c), FileName(c, m))
}

// Spec describes the tasks to plan.
type Spec struct {
	Base       string
	Root       string
	Categories []Category
	Months     []Month
}

// Plan returns one task per category and month, ordered by category and
// then by month.
func Plan(s Spec) []Task {
	tasks := make([]Task, 0, len(s.Categories)*len(s.Months))
	for _, c := range s.Categories {
		for _, m := range s.Months {
			tasks = append(tasks, Task{
				Category: c,
				Month:    m,
				URL:      URL(s.Base, c, m),
				Key:      Key(c, m),
				Path:     Path(s.Root, c, m),
			})
		}
	}
	return tasks
}

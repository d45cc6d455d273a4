package grafana

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DashboardFile is a dashboard found on disk.
type DashboardFile struct {
	Path  string
	Title string
}

// ScanDashboards lists the *.json files in dir, sorted by title. The title
// comes from the document, or the file name when the document has none or
// cannot be read. Subdirectories are not searched.
func ScanDashboards(dir string) ([]DashboardFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []DashboardFile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		files = append(files, DashboardFile{
			Path:  path,
			Title: dashboardTitle(path),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return strings.ToLower(files[i].Title) < strings.ToLower(files[j].Title)
	})
	return files, nil
}

func dashboardTitle(path string) string {
	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	data, err := os.ReadFile(path)
	if err != nil {
		return fallback
	}
	var doc struct {
		Title     string `json:"title"`
		Dashboard *struct {
			Title string `json:"title"`
		} `json:"dashboard"`
	}
	if json.Unmarshal(data, &doc) != nil {
		return fallback
	}
	switch {
	case doc.Title != "":
		return doc.Title
	case doc.Dashboard != nil && doc.Dashboard.Title != "":
		return doc.Dashboard.Title
	default:
		return fallback
	}
}

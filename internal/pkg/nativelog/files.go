package nativelog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	filePrefix = "blog_"
	fileSuffix = ".log"
)

// File describes one daily log file.
type File struct {
	Name string    `json:"filename"`
	Size int64     `json:"size"`
	Day  time.Time `json:"day"`
}

// ListFiles returns the daily log files in dir, newest day first. Other
// files are ignored.
func ListFiles(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []File{}, nil
	}
	if err != nil {
		return nil, err
	}
	files := []File{}
	for _, e := range entries {
		day, ok := parseDay(e.Name())
		if !ok || e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, File{Name: e.Name(), Size: info.Size(), Day: day})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Day.After(files[j].Day) })
	return files, nil
}

// Prune removes daily log files for days older than keep before now.
// The file for the current day is never removed.
func Prune(dir string, keep time.Duration, now time.Time) (int, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return 0, err
	}
	today := DailyFilename(now)
	cutoff := now.Add(-keep)
	removed := 0
	for _, f := range files {
		if f.Name == today || !f.Day.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, f.Name)); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func parseDay(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

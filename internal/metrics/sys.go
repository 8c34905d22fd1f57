package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// SysHealth is a point-in-time view of process and data-dir health,
// reported by the status surfaces.
type SysHealth struct {
	AllocMB     uint64
	SysMB       uint64
	NumGC       uint32
	Goroutines  int
	DataDirSize string
}

// GetSysHealth collects current health data. dataPath is the directory
// holding the SQLite database.
func GetSysHealth(dataPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SysHealth{
		AllocMB:     m.Alloc / 1024 / 1024,
		SysMB:       m.Sys / 1024 / 1024,
		NumGC:       m.NumGC,
		Goroutines:  runtime.NumGoroutine(),
		DataDirSize: dirSize(dataPath),
	}
}

func dirSize(path string) string {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})

	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

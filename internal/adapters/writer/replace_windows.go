//go:build windows

package writer

import "golang.org/x/sys/windows"

// osReplace swaps the temp file over dest in one call, even when dest exists.
func osReplace(tmpPath, dest string) error {
	from, err := windows.UTF16PtrFromString(tmpPath)
	if err != nil {
		return err
	}
	to, err := windows.UTF16PtrFromString(dest)
	if err != nil {
		return err
	}
	return windows.MoveFileEx(from, to, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH)
}

// syncDir is a no-op; MOVEFILE_WRITE_THROUGH already flushes the rename.
func syncDir(dir string) error { return nil }

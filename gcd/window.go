package gcd

import "time"

// ResolveWindow turns an optional stored run window into the effective
// (start, end) pair used for calibration resolution.
//
// A recorded window is returned verbatim, with a nil end meaning the run is
// open-ended. When no window was ever recorded for the run, the result covers
// all of recorded history up to now: runs that predate window tracking still
// generate usable snapshots, with the epoch start selecting each DOM's oldest
// record. Absence is a fallback, never an error.
func ResolveWindow(w *RunWindow, now time.Time) (time.Time, *time.Time) {
	if w != nil {
		return w.StartTime, w.EndTime
	}
	end := now
	return time.Unix(0, 0).UTC(), &end
}

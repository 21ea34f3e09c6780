// Package gcd contains the GCD domain records and the snapshot generation
// core: run window resolution, per-DOM calibration resolution, and snapshot
// assembly. Everything here is a pure transformation over already-fetched
// data; retrieval lives in the store package.
package gcd

import "time"

// DOMCal is the calibration payload for one DOM. The resolution engine treats
// it as opaque; the fields mirror what the calibration pipeline produces.
type DOMCal struct {
	ATWDGain        []float64 `json:"atwd_gain"`
	ATWDFreq        []float64 `json:"atwd_freq"`
	FADCGain        float64   `json:"fadc_gain"`
	FADCFreq        float64   `json:"fadc_freq"`
	PMTGain         float64   `json:"pmt_gain"`
	TransitTime     float64   `json:"transit_time"`
	RelativePMTGain float64   `json:"relative_pmt_gain"`
}

// Calibration is one timestamped calibration version for one DOM.
// Immutable once created; newer versions are separate records.
type Calibration struct {
	DOMID     uint32    `json:"dom_id"`
	DOMCal    DOMCal    `json:"domcal"`
	Timestamp time.Time `json:"timestamp"`
}

// GeoLocation is a DOM position in detector coordinates (meters).
type GeoLocation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Geometry places the DOM at (string, position) in the array.
type Geometry struct {
	String    uint32      `json:"string"`
	Position  uint32      `json:"position"`
	Location  GeoLocation `json:"location"`
	Timestamp time.Time   `json:"timestamp"`
}

// DetectorStatus is the operational state of one DOM during one run.
type DetectorStatus struct {
	DOMID     uint32    `json:"dom_id"`
	RunNumber uint32    `json:"run_number"`
	Status    string    `json:"status"`
	IsBad     bool      `json:"is_bad"`
	Timestamp time.Time `json:"timestamp"`
}

// RunWindow is the recorded time window of an operational run.
// EndTime is nil while the run is ongoing or was never closed.
type RunWindow struct {
	RunNumber         uint32     `json:"run_number"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	ConfigurationName string     `json:"configuration_name,omitempty"`
	Timestamp         time.Time  `json:"timestamp"`
}

// Snapshot is an immutable, uniquely identified GCD bundle for one run.
type Snapshot struct {
	CollectionID   string           `json:"collection_id"`
	RunNumber      uint32           `json:"run_number"`
	GeneratedAt    time.Time        `json:"generated_at"`
	GeneratedBy    string           `json:"generated_by"`
	Calibrations   []Calibration    `json:"calibrations"`
	Geometry       []Geometry       `json:"geometry"`
	DetectorStatus []DetectorStatus `json:"detector_status"`
}

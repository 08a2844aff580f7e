package datarecording

import (
	"os"
	"strings"
	"time"
)

// RunInfoTable is the table that describes the run that produced a
// database.
const RunInfoTable = "run_info"

// RunInfo is one property of a run.
type RunInfo struct {
	Property string
	Value    string
}

const timeLayout = "2006-01-02 15:04:05.000000000"

// RunRecorder records the command line, the configuration and the start and
// end time of a run.
type RunRecorder struct {
	recorder DataRecorder
	entries  []RunInfo
}

// NewRunRecorder creates the run table in the recorder.
func NewRunRecorder(recorder DataRecorder) (*RunRecorder, error) {
	if err := recorder.CreateTable(RunInfoTable, RunInfo{}); err != nil {
		return nil, err
	}

	return &RunRecorder{recorder: recorder}, nil
}

// Start notes the start time and the command line.
func (r *RunRecorder) Start() {
	r.entries = append(r.entries,
		RunInfo{"Start Time", time.Now().Format(timeLayout)},
		RunInfo{"Command", strings.Join(os.Args, " ")},
	)

	if wd, err := os.Getwd(); err == nil {
		r.entries = append(r.entries, RunInfo{"Working Directory", wd})
	}
}

// Set notes a property, usually a configuration value.
func (r *RunRecorder) Set(property, value string) {
	r.entries = append(r.entries, RunInfo{property, value})
}

// End notes the end time and writes all the properties.
func (r *RunRecorder) End() error {
	r.entries = append(r.entries,
		RunInfo{"End Time", time.Now().Format(timeLayout)})

	for _, e := range r.entries {
		if err := r.recorder.InsertData(RunInfoTable, e); err != nil {
			return err
		}
	}

	r.entries = nil

	return r.recorder.Flush()
}

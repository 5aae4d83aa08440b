package render

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/modoterra/sdstatus/pkg/core"
)

// Record is the JSON form of one unit's status.
type Record struct {
	Unit           string           `json:"unit"`
	State          core.ActiveState `json:"state"`
	SubState       string           `json:"sub_state"`
	ElapsedSeconds uint64           `json:"elapsed_seconds"`
	ClockSkew      bool             `json:"clock_skew"`
}

// Records flattens rs into records sorted by unit name.
func Records(rs core.ResultSet) []Record {
	names := rs.Names()
	out := make([]Record, 0, len(names))
	for _, name := range names {
		info := rs[name]
		out = append(out, Record{
			Unit:           name,
			State:          info.State.State,
			SubState:       info.State.SubState,
			ElapsedSeconds: uint64(info.TimeSinceTransition / time.Second),
			ClockSkew:      info.ClockSkew,
		})
	}
	return out
}

// JSON writes rs as an indented JSON array sorted by unit name.
func JSON(w io.Writer, rs core.ResultSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Records(rs))
}

// ParseJSON reads records written by JSON and validates their states.
func ParseJSON(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	for _, rec := range records {
		if _, err := core.ParseActiveState(string(rec.State)); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.Unit, err)
		}
	}
	return records, nil
}

// ResultSet rebuilds a result set from parsed records.
func ResultSet(records []Record) core.ResultSet {
	rs := make(core.ResultSet, len(records))
	for _, rec := range records {
		rs[rec.Unit] = core.UnitInfo{
			State:               core.UnitState{State: rec.State, SubState: rec.SubState},
			TimeSinceTransition: time.Duration(rec.ElapsedSeconds) * time.Second,
			ClockSkew:           rec.ClockSkew,
		}
	}
	return rs
}

package systemd

import (
	"context"
	"fmt"
	"slices"

	"github.com/mitchellh/mapstructure"

	"github.com/modoterra/sdstatus/pkg/core"
)

// unitProperties holds the org.freedesktop.systemd1.Unit properties read
// for a status report.
type unitProperties struct {
	ID          string `mapstructure:"Id"`
	ActiveState string
	SubState    string

	InactiveExitTimestampMonotonic  uint64
	ActiveEnterTimestampMonotonic   uint64
	ActiveExitTimestampMonotonic    uint64
	InactiveEnterTimestampMonotonic uint64
}

var requiredProperties = []string{
	"ActiveState",
	"SubState",
	"InactiveExitTimestampMonotonic",
	"ActiveEnterTimestampMonotonic",
	"ActiveExitTimestampMonotonic",
	"InactiveEnterTimestampMonotonic",
}

func decodeProperties(props map[string]interface{}) (*unitView, error) {
	var (
		up unitProperties
		md mapstructure.Metadata
	)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:   &up,
		Metadata: &md,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(props); err != nil {
		return nil, core.Transport("decode properties", err)
	}
	for _, name := range requiredProperties {
		if !slices.Contains(md.Keys, name) {
			return nil, core.Transport("decode properties", fmt.Errorf("missing property %s", name))
		}
	}
	return &unitView{props: up}, nil
}

// unitView serves a property snapshot taken when the handle was bound.
type unitView struct {
	props unitProperties
}

func (v *unitView) ActiveState(context.Context) (string, error) {
	return v.props.ActiveState, nil
}

func (v *unitView) SubState(context.Context) (string, error) {
	return v.props.SubState, nil
}

func (v *unitView) Timestamp(_ context.Context, kind core.TimestampKind) (uint64, error) {
	switch kind {
	case core.InactiveExit:
		return v.props.InactiveExitTimestampMonotonic, nil
	case core.ActiveEnter:
		return v.props.ActiveEnterTimestampMonotonic, nil
	case core.ActiveExit:
		return v.props.ActiveExitTimestampMonotonic, nil
	case core.InactiveEnter:
		return v.props.InactiveEnterTimestampMonotonic, nil
	default:
		return 0, fmt.Errorf("unknown timestamp kind %d", kind)
	}
}

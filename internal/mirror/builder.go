// internal/mirror/builder.go
package mirror

import (
	"errors"
	"log/slog"

	cfg "github.com/tamzrod/ppe-monitor/internal/config"
	mmodbus "github.com/tamzrod/ppe-monitor/internal/mirror/modbus"
)

// BuildStatusPlan converts the modbus mirror config into a plan.
// Assumes config has already passed validation.
func BuildStatusPlan(m cfg.ModbusConfig) (StatusPlan, error) {
	if m.Endpoint == "" {
		return StatusPlan{}, errors.New("mirror: modbus.endpoint required")
	}
	return StatusPlan{
		Endpoint:   m.Endpoint,
		UnitID:     m.UnitID,
		BaseSlot:   m.BaseSlot,
		DeviceName: m.DeviceName,
	}, nil
}

// BuildStatusMirror creates the endpoint client, block writer and mirror.
// The returned close func releases the connection.
func BuildStatusMirror(m cfg.ModbusConfig, log *slog.Logger) (*StatusMirror, func() error, error) {
	plan, err := BuildStatusPlan(m)
	if err != nil {
		return nil, nil, err
	}

	cli, err := mmodbus.NewEndpointClient(mmodbus.Config{
		Endpoint: plan.Endpoint,
		Timeout:  m.Timeout(),
	})
	if err != nil {
		return nil, nil, err
	}

	w, err := NewBlockWriter(plan, cli)
	if err != nil {
		_ = cli.Close()
		return nil, nil, err
	}

	return NewStatusMirror(w, log), cli.Close, nil
}

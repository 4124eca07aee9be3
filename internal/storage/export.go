package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/attsim/internal/dynamo"
	"github.com/san-kum/attsim/internal/sim"
)

type ExportData struct {
	Vessel     string             `json:"vessel"`
	Source     string             `json:"source"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	Resets     int                `json:"resets"`
	Times      []float64          `json:"times"`
	Errors     [][3]float64       `json:"errors"`
	Commands   [][3]float64       `json:"commands"`
	Modes      []string           `json:"modes"`
	Metrics    map[string]float64 `json:"metrics"`
}

func NewExport(info RunInfo, result *sim.Result) ExportData {
	data := ExportData{
		Vessel:     result.Vessel,
		Source:     info.Source,
		Integrator: info.Integrator,
		Dt:         info.Dt,
		Duration:   info.Duration,
		Steps:      result.StepsTaken,
		Resets:     result.Resets,
		Times:      make([]float64, len(result.Samples)),
		Errors:     make([][3]float64, len(result.Samples)),
		Commands:   make([][3]float64, len(result.Samples)),
		Modes:      make([]string, len(result.Samples)),
		Metrics:    finiteMetrics(result.Metrics),
	}
	for i, s := range result.Samples {
		data.Times[i] = s.Time
		data.Errors[i] = s.Error
		data.Commands[i] = s.Command
		data.Modes[i] = s.Mode
	}
	return data
}

// WriteJSON encodes the run as indented JSON.
func WriteJSON(w io.Writer, info RunInfo, result *sim.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExport(info, result))
}

func ExportJSON(path string, info RunInfo, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, info, result)
}

// Series extracts one column from a telemetry slice for plotting.
func Series(samples []dynamo.Sample, pick func(dynamo.Sample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = pick(s)
	}
	return out
}

package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/control"
	"github.com/san-kum/attsim/internal/dynamo"
	"github.com/san-kum/attsim/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	telemetryFile = "telemetry.csv"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes how a run was configured.
type RunInfo struct {
	Source     string         `json:"source"`
	Dt         float64        `json:"dt"`
	Duration   float64        `json:"duration"`
	Integrator string         `json:"integrator"`
	Controller control.Params `json:"controller"`
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Vessel     string             `json:"vessel"`
	Timestamp  time.Time          `json:"timestamp"`
	Steps      int                `json:"steps"`
	Resets     int                `json:"resets"`
	FinalError float64            `json:"final_error"`
	Metrics    map[string]float64 `json:"metrics"`
	RunInfo
}

var header = []string{
	"time",
	"q_w", "q_x", "q_y", "q_z",
	"rate_pitch", "rate_roll", "rate_yaw",
	"err_pitch", "err_roll", "err_yaw", "error_angle",
	"cmd_pitch", "cmd_roll", "cmd_yaw",
	"torque_pitch", "torque_roll", "torque_yaw",
	"auth_pitch", "auth_roll", "auth_yaw",
	"tf_pitch", "tf_roll", "tf_yaw",
	"mode", "wheel_fill", "manual", "reset",
}

func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	runID, runDir, err := s.newRunDir(result.Vessel)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Vessel:     result.Vessel,
		Timestamp:  s.now(),
		Steps:      result.StepsTaken,
		Resets:     result.Resets,
		FinalError: result.Final.ErrorAngle,
		Metrics:    finiteMetrics(result.Metrics),
		RunInfo:    info,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTelemetry(filepath.Join(runDir, telemetryFile), result.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) newRunDir(vessel string) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	if vessel == "" {
		vessel = "run"
	}
	base := fmt.Sprintf("%s_%d", vessel, s.now().Unix())
	runID := base
	for n := 1; ; n++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, n)
	}
}

func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if dynamo.IsFinite(v) {
			out[k] = v
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTelemetry(path string, samples []dynamo.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, smp := range samples {
		if err := w.Write(encodeSample(smp)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func encodeSample(s dynamo.Sample) []string {
	row := make([]string, 0, len(header))
	num := func(vals ...float64) {
		for _, v := range vals {
			row = append(row, strconv.FormatFloat(v, 'g', 10, 64))
		}
	}
	vec := func(v mgl64.Vec3) { num(v[0], v[1], v[2]) }

	num(s.Time, s.Orientation.W)
	vec(s.Orientation.V)
	vec(s.Rate)
	vec(s.Error)
	num(s.ErrorAngle)
	vec(s.Command)
	vec(s.Torque)
	vec(s.Authority)
	vec(s.Tf)
	row = append(row, s.Mode)
	num(s.WheelFill)
	row = append(row, strconv.FormatBool(s.Manual), strconv.FormatBool(s.Reset))
	return row
}

func decodeSample(rec []string) (dynamo.Sample, error) {
	if len(rec) != len(header) {
		return dynamo.Sample{}, fmt.Errorf("expected %d columns, got %d", len(header), len(rec))
	}
	var (
		s   dynamo.Sample
		err error
		i   int
	)
	num := func() float64 {
		if err != nil {
			return 0
		}
		var v float64
		v, err = strconv.ParseFloat(rec[i], 64)
		i++
		return v
	}
	vec := func() mgl64.Vec3 { return mgl64.Vec3{num(), num(), num()} }
	flag := func() bool {
		if err != nil {
			return false
		}
		var b bool
		b, err = strconv.ParseBool(rec[i])
		i++
		return b
	}

	s.Time = num()
	s.Orientation.W = num()
	s.Orientation.V = vec()
	s.Rate = vec()
	s.Error = vec()
	s.ErrorAngle = num()
	s.Command = vec()
	s.Torque = vec()
	s.Authority = vec()
	s.Tf = vec()
	s.Mode = rec[i]
	i++
	s.WheelFill = num()
	s.Manual = flag()
	s.Reset = flag()
	return s, err
}

// List returns every stored run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTelemetry(runID string) ([]dynamo.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, telemetryFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []dynamo.Sample{}, nil
	}

	samples := make([]dynamo.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		smp, err := decodeSample(rec)
		if err != nil {
			return samples, fmt.Errorf("run %s row %d: %w", runID, i+1, err)
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

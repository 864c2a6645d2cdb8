package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/emtz/motorlab/internal/hinf"
	"github.com/emtz/motorlab/internal/ident"
	"github.com/emtz/motorlab/internal/telemetry"
)

// Store persists recordings and controller designs in a flat directory tree:
// <base>/recordings/<id>/ holds samples.csv plus metadata.json, and
// <base>/designs/<id>.json holds one design each.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	for _, d := range []string{s.recordingsDir(), s.designsDir()} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) recordingsDir() string { return filepath.Join(s.baseDir, "recordings") }
func (s *Store) designsDir() string    { return filepath.Join(s.baseDir, "designs") }

type RecordingMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Port      string    `json:"port"`
	Baud      int       `json:"baud"`
	Samples   int       `json:"samples"`
	Duration  float64   `json:"duration"`
	Dropped   uint64    `json:"dropped"`
}

// SaveRecording writes the samples as CSV alongside a metadata file and
// returns the generated recording ID.
func (s *Store) SaveRecording(name, port string, baud int, dropped uint64, samples []telemetry.Sample) (string, error) {
	id := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	dir := filepath.Join(s.recordingsDir(), id)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	duration := 0.0
	if len(samples) > 0 {
		duration = samples[len(samples)-1].Time - samples[0].Time
	}

	meta := RecordingMetadata{
		ID:        id,
		Timestamp: time.Now(),
		Port:      port,
		Baud:      baud,
		Samples:   len(samples),
		Duration:  duration,
		Dropped:   dropped,
	}
	if err := writeJSON(filepath.Join(dir, "metadata.json"), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(dir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"tiempo", "power_a", "power_b", "sensor_1", "sensor_2"}); err != nil {
		return "", err
	}
	for _, sm := range samples {
		row := []string{
			strconv.FormatFloat(sm.Time, 'f', 3, 64),
			strconv.Itoa(sm.PowerA),
			strconv.Itoa(sm.PowerB),
			strconv.Itoa(sm.Sensor1),
			strconv.Itoa(sm.Sensor2),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return id, nil
}

// LoadRecording reads a recording's samples back. Short or malformed rows
// are skipped rather than aborting the load.
func (s *Store) LoadRecording(id string) ([]telemetry.Sample, error) {
	file, err := os.Open(filepath.Join(s.recordingsDir(), id, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []telemetry.Sample{}, nil
	}

	samples := make([]telemetry.Sample, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 5 {
			continue
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			continue
		}
		ints := make([]int, 4)
		ok := true
		for i := 0; i < 4; i++ {
			v, err := strconv.Atoi(rec[i+1])
			if err != nil {
				ok = false
				break
			}
			ints[i] = v
		}
		if !ok {
			continue
		}
		samples = append(samples, telemetry.Sample{
			Time: t, PowerA: ints[0], PowerB: ints[1], Sensor1: ints[2], Sensor2: ints[3],
		})
	}
	return samples, nil
}

// LoadRecordingMetadata reads one recording's metadata file.
func (s *Store) LoadRecordingMetadata(id string) (*RecordingMetadata, error) {
	var meta RecordingMetadata
	if err := readJSON(filepath.Join(s.recordingsDir(), id, "metadata.json"), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ListRecordings scans the recordings directory; entries with unreadable
// metadata are skipped.
func (s *Store) ListRecordings() ([]RecordingMetadata, error) {
	entries, err := os.ReadDir(s.recordingsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []RecordingMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RecordingMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		var meta RecordingMetadata
		if err := readJSON(filepath.Join(s.recordingsDir(), entry.Name(), "metadata.json"), &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

// DesignMetadata is everything needed to rebuild or export a design without
// rerunning synthesis. Margins use 0 to mean "no crossover" because JSON has
// no infinity.
type DesignMetadata struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Model     ident.Model       `json:"model"`
	Weights   hinf.WeightParams `json:"weights"`
	Method    string            `json:"method"`

	Gamma         float64    `json:"gamma"`
	GammaVerified float64    `json:"gamma_verified"`
	Norms         hinf.Norms `json:"norms"`

	GainMarginDB   float64 `json:"gain_margin_db"`
	PhaseMarginDeg float64 `json:"phase_margin_deg"`

	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
}

// SaveDesign stores the design result under a generated ID.
func (s *Store) SaveDesign(name string, model ident.Model, w hinf.WeightParams, ctl *hinf.Controller) (string, error) {
	if err := os.MkdirAll(s.designsDir(), 0755); err != nil {
		return "", err
	}

	id := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	meta := DesignMetadata{
		ID:             id,
		Timestamp:      time.Now(),
		Model:          model,
		Weights:        w,
		Method:         string(ctl.Method),
		Gamma:          finiteOrZero(ctl.Gamma),
		GammaVerified:  ctl.GammaVerified,
		Norms:          ctl.Norms,
		GainMarginDB:   finiteOrZero(ctl.Margins.GainMarginDB),
		PhaseMarginDeg: finiteOrZero(ctl.Margins.PhaseMarginDeg),
		Kp:             ctl.Kp,
		Ki:             ctl.Ki,
	}

	if err := writeJSON(filepath.Join(s.designsDir(), id+".json"), meta); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) LoadDesign(id string) (*DesignMetadata, error) {
	var meta DesignMetadata
	if err := readJSON(filepath.Join(s.designsDir(), id+".json"), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) ListDesigns() ([]DesignMetadata, error) {
	entries, err := os.ReadDir(s.designsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []DesignMetadata{}, nil
		}
		return nil, err
	}

	designs := make([]DesignMetadata, 0)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		var meta DesignMetadata
		if err := readJSON(filepath.Join(s.designsDir(), entry.Name()), &meta); err != nil {
			continue
		}
		designs = append(designs, meta)
	}
	return designs, nil
}

func finiteOrZero(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

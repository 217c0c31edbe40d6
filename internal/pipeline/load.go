// ABOUTME: Loads and validates the combined bundle into typed, immutable collections.
// ABOUTME: Bad records are rejected with a reason instead of failing the whole load.
package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/oura/internal/logging"
	"github.com/harperreed/oura/internal/models"
)

// requiredCollections must be present as arrays for a bundle to load.
var requiredCollections = []models.Collection{
	models.CollectionSleep,
	models.CollectionReadiness,
	models.CollectionActivity,
}

// Rejection explains why a record was left out at load time.
type Rejection struct {
	Collection models.Collection `json:"collection"`
	Index      int               `json:"index"`
	Day        string            `json:"day,omitempty"`
	Reason     string            `json:"reason"`
}

// Dataset holds the loaded collections. It is never mutated after Load.
type Dataset struct {
	Sleep       []models.SleepRecord
	Readiness   []models.ReadinessRecord
	Activity    []models.ActivityRecord
	LastUpdated string
	DataRange   models.DataWindow
	Rejected    []Rejection

	// Err is the load failure, if any. Collections are empty when it is set.
	Err error
}

// Load reads the bundle at path. The returned Dataset is always usable;
// on failure it is empty and the same error is also kept in Dataset.Err.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return failed(fmt.Errorf("read bundle: %w", err))
	}
	return LoadBytes(data)
}

// LoadBytes decodes and validates a bundle already in memory.
func LoadBytes(data []byte) (*Dataset, error) {
	var b models.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return failed(fmt.Errorf("parse bundle: %w", err))
	}

	payloads := make(map[models.Collection][]json.RawMessage, len(requiredCollections))
	var missing []string
	for _, c := range requiredCollections {
		items, ok := dataArray(b.Collection(c))
		if !ok {
			missing = append(missing, string(c))
			continue
		}
		payloads[c] = items
	}
	if len(missing) > 0 {
		return failed(fmt.Errorf("invalid data format: missing required data arrays: %s", strings.Join(missing, ", ")))
	}

	ds := &Dataset{
		LastUpdated: b.LastUpdated,
		DataRange:   b.DataRange,
	}
	var rejected []Rejection
	ds.Sleep, rejected = decodeRecords[models.SleepRecord](models.CollectionSleep, payloads[models.CollectionSleep])
	ds.Rejected = append(ds.Rejected, rejected...)
	ds.Readiness, rejected = decodeRecords[models.ReadinessRecord](models.CollectionReadiness, payloads[models.CollectionReadiness])
	ds.Rejected = append(ds.Rejected, rejected...)
	ds.Activity, rejected = decodeRecords[models.ActivityRecord](models.CollectionActivity, payloads[models.CollectionActivity])
	ds.Rejected = append(ds.Rejected, rejected...)

	return ds, nil
}

func failed(err error) (*Dataset, error) {
	return &Dataset{
		Sleep:     []models.SleepRecord{},
		Readiness: []models.ReadinessRecord{},
		Activity:  []models.ActivityRecord{},
		Err:       err,
	}, err
}

// dataArray extracts the "data" array from a collection payload.
func dataArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if isNull(raw) {
		return nil, false
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, false
	}
	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	return items, true
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// decodeRecords validates each item once and decodes the survivors.
func decodeRecords[T models.DailyRecord](c models.Collection, items []json.RawMessage) ([]T, []Rejection) {
	out := make([]T, 0, len(items))
	var rejected []Rejection
	for i, item := range items {
		day, reason := validateRecord(item)
		if reason != "" {
			rejected = append(rejected, Rejection{Collection: c, Index: i, Day: day, Reason: reason})
			continue
		}
		rec, err := decodeLenient[T](item)
		if err != nil {
			rejected = append(rejected, Rejection{Collection: c, Index: i, Day: day, Reason: "decode: " + err.Error()})
			continue
		}
		out = append(out, rec)
	}
	return out, rejected
}

// maxDroppedFields bounds how many mistyped fields one record may lose.
const maxDroppedFields = 32

// decodeLenient decodes item, dropping any field whose JSON type does not
// fit the record (a string steps count, a numeric timestamp) and retrying.
// Day and score are checked by validateRecord before this runs.
func decodeLenient[T any](item json.RawMessage) (T, error) {
	for dropped := 0; ; dropped++ {
		var rec T
		err := json.Unmarshal(item, &rec)
		var typeErr *json.UnmarshalTypeError
		if err == nil || !errors.As(err, &typeErr) || typeErr.Field == "" || dropped >= maxDroppedFields {
			return rec, err
		}
		stripped, ok := dropField(item, strings.Split(typeErr.Field, "."))
		if !ok {
			return rec, err
		}
		item = stripped
	}
}

// dropField removes the value at path from a JSON object.
func dropField(raw json.RawMessage, path []string) (json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	child, ok := obj[path[0]]
	if !ok {
		return nil, false
	}
	if len(path) == 1 {
		delete(obj, path[0])
	} else {
		sub, ok := dropField(child, path[1:])
		if !ok {
			return nil, false
		}
		obj[path[0]] = sub
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, false
	}
	return out, true
}

// validateRecord checks the fields every daily record relies on.
// It returns the raw day (when readable) and a non-empty reason on rejection.
func validateRecord(item json.RawMessage) (string, string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		return "", "record is not an object"
	}

	var day string
	rawDay, ok := fields["day"]
	if !ok || isNull(rawDay) {
		return "", "missing day"
	}
	if err := json.Unmarshal(rawDay, &day); err != nil {
		return "", "day is not a string"
	}
	if _, ok := models.ParseDay(day, time.UTC); !ok {
		return day, fmt.Sprintf("unparseable day %q", day)
	}

	if rawScore, ok := fields["score"]; ok && !isNull(rawScore) {
		var score float64
		if err := json.Unmarshal(rawScore, &score); err != nil {
			return day, "score is not a number"
		}
	}
	return day, ""
}

// Source hands out a loaded Dataset.
type Source interface {
	Dataset() *Dataset
}

// Static is a Source over an already loaded Dataset.
type Static struct{ DS *Dataset }

// Dataset returns the wrapped dataset.
func (s Static) Dataset() *Dataset { return s.DS }

// Loader loads a bundle once, on first use, and hands out the same Dataset.
type Loader struct {
	path string
	log  *logging.Logger

	once sync.Once
	ds   *Dataset
}

// NewLoader returns a Loader for the bundle at path.
func NewLoader(path string, log *logging.Logger) *Loader {
	if log == nil {
		log = logging.Nop()
	}
	return &Loader{path: path, log: log}
}

// Dataset returns the loaded dataset, loading it on the first call.
func (l *Loader) Dataset() *Dataset {
	l.once.Do(func() {
		ds, err := Load(l.path)
		if err != nil {
			l.log.Error("failed to load oura data", "path", l.path, "error", err)
		} else {
			l.log.Info("oura data loaded",
				"sleep", len(ds.Sleep),
				"readiness", len(ds.Readiness),
				"activity", len(ds.Activity),
				"rejected", len(ds.Rejected))
		}
		l.ds = ds
	})
	return l.ds
}

// Path returns the bundle path this loader reads.
func (l *Loader) Path() string {
	return l.path
}

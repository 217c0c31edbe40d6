// ABOUTME: Ingestion job that pulls the five Oura collections and writes the local JSON store.
// ABOUTME: Sequential, abort-on-first-failure; files written before a failure are kept.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"

	"github.com/harperreed/oura/internal/logging"
	"github.com/harperreed/oura/internal/models"
)

const (
	DefaultBaseURL   = "https://api.ouraring.com/v2/usercollection"
	DefaultStartDate = "2024-01-01"
	DefaultUserAgent = "oura/1.0"

	// lastUpdatedLayout matches JavaScript's Date.toISOString.
	lastUpdatedLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Endpoint is one collection the job fetches.
type Endpoint struct {
	Collection models.Collection
	Path       string
	File       string
	Title      string
}

// Endpoints are fetched in this order.
var Endpoints = []Endpoint{
	{models.CollectionSleep, "/sleep", "sleep_data.json", "Sleep"},
	{models.CollectionReadiness, "/daily_readiness", "readiness_data.json", "Readiness"},
	{models.CollectionActivity, "/daily_activity", "activity_data.json", "Daily Activity"},
	{models.CollectionHeartRate, "/heartrate", "heart_rate_data.json", "Heart Rate"},
	{models.CollectionDailySleep, "/daily_sleep", "daily_sleep_data.json", "Daily Sleep"},
}

// RunRecorder persists run records. Recording failures never fail the run.
type RunRecorder interface {
	CreateRun(ctx context.Context, run *models.RunRecord) error
	FinishRun(ctx context.Context, run *models.RunRecord) error
}

// Options configures a Job. Token and DataDir are required.
type Options struct {
	BaseURL    string
	Token      string
	StartDate  string
	DataDir    string
	UserAgent  string
	HTTPClient *http.Client
	Now        func() time.Time
	Recorder   RunRecorder
	Log        *logging.Logger

	// OnSaved is called after each collection file is written.
	OnSaved func(ep Endpoint, records int)
}

// Result describes a completed run.
type Result struct {
	Run        *models.RunRecord
	Files      []string
	BundlePath string
	Counts     map[models.Collection]int
}

// Job fetches every endpoint and writes the combined bundle.
type Job struct {
	opts   Options
	client *http.Client
}

// New validates opts, fills defaults, and builds the authenticated client.
func New(opts Options) (*Job, error) {
	if opts.Token == "" {
		return nil, errors.New("oura API token is required")
	}
	if opts.DataDir == "" {
		return nil, errors.New("data directory is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.StartDate == "" {
		opts.StartDate = DefaultStartDate
	}
	if _, err := time.Parse(models.DayLayout, opts.StartDate); err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", opts.StartDate, err)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}

	base := context.Background()
	if opts.HTTPClient != nil {
		base = context.WithValue(base, oauth2.HTTPClient, opts.HTTPClient)
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"})

	return &Job{opts: opts, client: oauth2.NewClient(base, src)}, nil
}

// EndDate is today's date in UTC, the end of the fetch window.
func (j *Job) EndDate() string {
	return j.opts.Now().UTC().Format(models.DayLayout)
}

// Run fetches the five collections in order and writes each one plus the
// bundle. It stops at the first failure.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	log := j.opts.Log
	start, end := j.opts.StartDate, j.EndDate()

	run := models.NewRunRecord(start, end)
	run.StartedAt = j.opts.Now()
	if j.opts.Recorder != nil {
		if err := j.opts.Recorder.CreateRun(ctx, run); err != nil {
			log.Warn("failed to record run start", "run_id", run.ID.String(), "error", err)
		}
	}

	res, err := j.run(ctx, run, start, end)
	if err != nil {
		kind := KindOf(err)
		run.Fail(j.opts.Now(), err, string(kind))
		// The operator hint is printed by the caller, not logged.
		log.Error("oura fetch failed", "run_id", run.ID.String(), "kind", string(kind), "error", err)
	} else {
		run.Succeed(j.opts.Now())
		log.Info("oura fetch complete", "run_id", run.ID.String(), "start_date", start, "end_date", end)
	}

	if j.opts.Recorder != nil {
		// The caller's context may already be cancelled; the outcome still gets stored.
		if ferr := j.opts.Recorder.FinishRun(context.WithoutCancel(ctx), run); ferr != nil {
			log.Warn("failed to record run finish", "run_id", run.ID.String(), "error", ferr)
		}
	}

	res.Run = run
	return res, err
}

func (j *Job) run(ctx context.Context, run *models.RunRecord, start, end string) (*Result, error) {
	res := &Result{Counts: make(map[models.Collection]int)}

	if err := os.MkdirAll(j.opts.DataDir, 0750); err != nil {
		return res, fmt.Errorf("create data directory: %w", err)
	}

	bundle := models.Bundle{DataRange: models.DataWindow{StartDate: start, EndDate: end}}
	for _, ep := range Endpoints {
		body, err := j.fetch(ctx, ep, start, end)
		if err != nil {
			return res, err
		}

		path := filepath.Join(j.opts.DataDir, ep.File)
		if err := writePretty(path, body); err != nil {
			return res, err
		}
		n := countRecords(body)
		res.Files = append(res.Files, path)
		res.Counts[ep.Collection] = n
		run.Counts[string(ep.Collection)] = n
		bundle.SetCollection(ep.Collection, body)

		j.opts.Log.Info("saved collection", "file", ep.File, "records", n)
		if j.opts.OnSaved != nil {
			j.opts.OnSaved(ep, n)
		}
	}

	bundle.LastUpdated = j.opts.Now().UTC().Format(lastUpdatedLayout)
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return res, fmt.Errorf("encode bundle: %w", err)
	}
	res.BundlePath = filepath.Join(j.opts.DataDir, models.BundleFile)
	if err := writeFile(res.BundlePath, data); err != nil {
		return res, err
	}
	return res, nil
}

// fetch performs one GET and returns the body once it is known to be JSON.
func (j *Job) fetch(ctx context.Context, ep Endpoint, start, end string) (json.RawMessage, error) {
	u, err := url.Parse(j.opts.BaseURL + ep.Path)
	if err != nil {
		return nil, &FetchError{Endpoint: ep.Path, Kind: KindTransport, Err: err}
	}
	q := u.Query()
	q.Set("start_date", start)
	q.Set("end_date", end)
	u.RawQuery = q.Encode()

	j.opts.Log.Info("fetching", "collection", string(ep.Collection), "url", u.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{Endpoint: ep.Path, Kind: KindTransport, Err: err}
	}
	req.Header.Set("User-Agent", j.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, &FetchError{Endpoint: ep.Path, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Endpoint: ep.Path, Status: resp.StatusCode, Kind: KindTransport, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Endpoint: ep.Path,
			Status:   resp.StatusCode,
			Kind:     classifyStatus(resp.StatusCode),
			Body:     truncate(string(body), maxErrorBody),
		}
	}
	if !json.Valid(body) {
		return nil, &FetchError{
			Endpoint: ep.Path,
			Status:   resp.StatusCode,
			Kind:     KindMalformed,
			Err:      errors.New("response is not valid JSON"),
		}
	}
	return json.RawMessage(body), nil
}

func writePretty(path string, body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return fmt.Errorf("format %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// countRecords reports the length of the top-level "data" array, or 0.
func countRecords(body []byte) int {
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0
	}
	return len(envelope.Data)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ABOUTME: Combined bundle file format written by ingestion and read by the pipeline.
// ABOUTME: Collection payloads are kept verbatim as raw JSON.
package models

import "encoding/json"

// BundleFile is the name of the combined data file inside the data directory.
const BundleFile = "oura_2024_2025_data.json"

// DataWindow is the effective date window an ingestion run used.
type DataWindow struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Bundle is the combined file: every collection payload plus run metadata.
type Bundle struct {
	Sleep       json.RawMessage `json:"sleep"`
	Readiness   json.RawMessage `json:"readiness"`
	Activity    json.RawMessage `json:"activity"`
	HeartRate   json.RawMessage `json:"heartRate"`
	DailySleep  json.RawMessage `json:"dailySleep"`
	LastUpdated string          `json:"lastUpdated"`
	DataRange   DataWindow      `json:"dataRange"`
}

// Collection returns the raw payload for a collection name.
func (b *Bundle) Collection(c Collection) json.RawMessage {
	switch c {
	case CollectionSleep:
		return b.Sleep
	case CollectionReadiness:
		return b.Readiness
	case CollectionActivity:
		return b.Activity
	case CollectionHeartRate:
		return b.HeartRate
	case CollectionDailySleep:
		return b.DailySleep
	default:
		return nil
	}
}

// SetCollection stores a raw payload under a collection name.
func (b *Bundle) SetCollection(c Collection, raw json.RawMessage) {
	switch c {
	case CollectionSleep:
		b.Sleep = raw
	case CollectionReadiness:
		b.Readiness = raw
	case CollectionActivity:
		b.Activity = raw
	case CollectionHeartRate:
		b.HeartRate = raw
	case CollectionDailySleep:
		b.DailySleep = raw
	}
}

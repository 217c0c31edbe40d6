// ABOUTME: Parquet encoding of per-day rows for analysis tools.
// ABOUTME: Missing values are written as nulls in optional columns.
package export

import (
	"fmt"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type parquetRow struct {
	Day                  string   `parquet:"name=day, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SleepScore           *float64 `parquet:"name=sleep_score, type=DOUBLE, repetitiontype=OPTIONAL"`
	SleepEfficiency      *float64 `parquet:"name=sleep_efficiency, type=DOUBLE, repetitiontype=OPTIONAL"`
	TotalSleep           *float64 `parquet:"name=total_sleep, type=DOUBLE, repetitiontype=OPTIONAL"`
	ReadinessScore       *float64 `parquet:"name=readiness_score, type=DOUBLE, repetitiontype=OPTIONAL"`
	RestingHeartRate     *float64 `parquet:"name=resting_heart_rate, type=DOUBLE, repetitiontype=OPTIONAL"`
	HRVBalance           *float64 `parquet:"name=hrv_balance, type=DOUBLE, repetitiontype=OPTIONAL"`
	TemperatureDeviation *float64 `parquet:"name=temperature_deviation, type=DOUBLE, repetitiontype=OPTIONAL"`
	ActivityScore        *float64 `parquet:"name=activity_score, type=DOUBLE, repetitiontype=OPTIONAL"`
	Steps                *float64 `parquet:"name=steps, type=DOUBLE, repetitiontype=OPTIONAL"`
	ActiveCalories       *float64 `parquet:"name=active_calories, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// Parquet encodes rows as a Snappy-compressed Parquet file.
func Parquet(rows []DayRow) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 4)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range rows {
		row := parquetRow{
			Day:                  r.Day,
			SleepScore:           r.SleepScore,
			SleepEfficiency:      r.SleepEfficiency,
			TotalSleep:           r.TotalSleep,
			ReadinessScore:       r.ReadinessScore,
			RestingHeartRate:     r.RestingHeartRate,
			HRVBalance:           r.HRVBalance,
			TemperatureDeviation: r.TemperatureDeviation,
			ActivityScore:        r.ActivityScore,
			Steps:                r.Steps,
			ActiveCalories:       r.ActiveCalories,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("write parquet row %s: %w", r.Day, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finish parquet: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

// Package jobstatus records the outcome of every loaded table and source in a run.
package jobstatus

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// ObjectAll is the object name of the per-source summary record.
const ObjectAll = "all"

// Stats counts rows touched by one load.
type Stats struct {
	Loaded  int64 `json:"loaded"`
	Merged  int64 `json:"merged"`
	Deleted int64 `json:"deleted"`
}

func (s Stats) Add(o Stats) Stats {
	return Stats{
		Loaded:  s.Loaded + o.Loaded,
		Merged:  s.Merged + o.Merged,
		Deleted: s.Deleted + o.Deleted,
	}
}

// Metadata identifies one run.
type Metadata struct {
	RunID    string          `json:"run_id"`
	RunTime  time.Time       `json:"run_time"`
	SyncMode syncwindow.Mode `json:"sync_mode"`
	FullSync bool            `json:"full_sync"`
	LogPath  string          `json:"log_path"`
}

func NewMetadata(runID string, runTime time.Time, mode syncwindow.Mode, logBucket string) Metadata {
	return Metadata{
		RunID:    runID,
		RunTime:  runTime,
		SyncMode: mode,
		FullSync: mode == syncwindow.ModeHistoricalFull,
		LogPath:  LogPath(logBucket, mode, runID, runTime),
	}
}

// LogPath is logs/YYYY/MM/DD/<mode>/etl-<mode>-<YYYYMMDD_HHMMSS>-<run_id>.zip, under
// gs://<bucket>/ when a bucket is set.
func LogPath(bucket string, mode syncwindow.Mode, runID string, runTime time.Time) string {
	p := path.Join(
		"logs",
		runTime.Format("2006"), runTime.Format("01"), runTime.Format("02"),
		string(mode),
		fmt.Sprintf("etl-%s-%s-%s.zip", mode, runTime.Format("20060102_150405"), runID),
	)
	if bucket = strings.Trim(strings.TrimSpace(bucket), "/"); bucket != "" {
		return "gs://" + bucket + "/" + p
	}
	return p
}

func (m Metadata) String() string {
	return fmt.Sprintf("run_id=%s run_time=%s sync_mode=%s full_sync=%t log_path=%s",
		m.RunID, m.RunTime.Format(time.RFC3339), m.SyncMode, m.FullSync, m.LogPath)
}

// Record is one row of etl_job_status.
type Record struct {
	ID             snowflake.ID      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	RunID          string            `gorm:"column:run_id;size:64;not null;index" json:"run_id"`
	RunTime        time.Time         `gorm:"column:run_time;not null" json:"run_time"`
	SyncMode       string            `gorm:"column:sync_mode;size:32;not null" json:"sync_mode"`
	LogPath        string            `gorm:"column:log_path" json:"log_path"`
	Source         string            `gorm:"column:source;size:64;not null" json:"source"`
	Object         string            `gorm:"column:object;size:128;not null" json:"object"`
	Status         Status            `gorm:"column:status;size:16;not null" json:"status"`
	Timestamp      time.Time         `gorm:"column:timestamp;not null" json:"timestamp"`
	RecordsLoaded  int64             `gorm:"column:records_loaded;not null;default:0" json:"records_loaded"`
	RecordsMerged  int64             `gorm:"column:records_merged;not null;default:0" json:"records_merged"`
	RecordsDeleted int64             `gorm:"column:records_deleted;not null;default:0" json:"records_deleted"`
	Attributes     datatypes.JSONMap `gorm:"column:attributes" json:"attributes,omitempty"`
}

func (Record) TableName() string {
	return "etl_job_status"
}

func (r Record) Stats() Stats {
	return Stats{Loaded: r.RecordsLoaded, Merged: r.RecordsMerged, Deleted: r.RecordsDeleted}
}

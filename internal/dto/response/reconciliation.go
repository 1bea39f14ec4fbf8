package response

import "time"

type CheckReportResponse struct {
	Check      string `json:"check"`
	Matched    int    `json:"matched"`
	Processed  int    `json:"processed"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type CycleResponse struct {
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Checks     []CheckReportResponse `json:"checks"`
}

type SchedulerStatusResponse struct {
	Running   bool           `json:"running"`
	Busy      bool           `json:"busy"`
	Interval  string         `json:"interval"`
	LastCycle *CycleResponse `json:"last_cycle,omitempty"`
}

type TriggerResponse struct {
	Triggered bool `json:"triggered"`
}

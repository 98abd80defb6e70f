package dto

type HealthDTO struct {
	OK        bool   `json:"ok"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	StartedAt string `json:"started_at"`
}

type StatusDTO struct {
	App       AppStatusDTO       `json:"app"`
	Storage   StorageStatusDTO   `json:"storage"`
	Scheduler SchedulerStatusDTO `json:"scheduler"`
}

type AppStatusDTO struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	StartedAt   string `json:"started_at"`
	UptimeSec   int64  `json:"uptime_sec"`
	Subscribers int    `json:"subscribers"`
	Published   int64  `json:"events_published"`
	Dropped     int64  `json:"events_dropped"`
}

type StorageStatusDTO struct {
	Engine      string `json:"engine"`
	Path        string `json:"path"`
	SnapshotKey string `json:"snapshot_key"`
}

type SchedulerStatusDTO struct {
	Running  bool   `json:"running"`
	Interval string `json:"interval"`
	Ticks    int64  `json:"ticks"`
	Errors   int64  `json:"errors"`
}

package api

import "github.com/tedsuo/rata"

const (
	UploadJob   = "UploadJob"
	GithubJob   = "GithubJob"
	JobStatus   = "JobStatus"
	JobReports  = "JobReports"
	JobStageLog = "JobStageLog"
)

// Routes is the fixed route table for §6's HTTP surface.
var Routes = rata.Routes{
	{Name: UploadJob, Method: "POST", Path: "/api/jobs/upload"},
	{Name: GithubJob, Method: "POST", Path: "/api/jobs/github"},
	{Name: JobStatus, Method: "GET", Path: "/api/jobs/:job_id/status"},
	{Name: JobReports, Method: "GET", Path: "/api/jobs/:job_id/reports"},
	{Name: JobStageLog, Method: "GET", Path: "/api/jobs/:job_id/:stage/logs"},
}

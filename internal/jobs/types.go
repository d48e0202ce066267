package jobs

type JobType string

const (
	JobRFPSummarize JobType = "rfp.summarize"
	JobOfferNotify  JobType = "offer.notify"
	JobPoolsExpire  JobType = "pools.expire"
	JobRFPsExpire   JobType = "rfps.expire"
)

// IsValid reports whether t is a known job type.
func (t JobType) IsValid() bool {
	switch t {
	case JobRFPSummarize, JobOfferNotify, JobPoolsExpire, JobRFPsExpire:
		return true
	default:
		return false
	}
}

// IsSweep marks the periodic maintenance jobs enqueued by the scheduler.
func (t JobType) IsSweep() bool {
	return t == JobPoolsExpire || t == JobRFPsExpire
}

// internal/models/job.go
package models

// ExperienceLevel is the seniority a job posting asks for.
type ExperienceLevel string

const (
	LevelEntry     ExperienceLevel = "entry"
	LevelMid       ExperienceLevel = "mid"
	LevelSenior    ExperienceLevel = "senior"
	LevelLead      ExperienceLevel = "lead"
	LevelExecutive ExperienceLevel = "executive"
)

// LocationType describes how a job is staffed geographically.
type LocationType string

const (
	LocationRemote LocationType = "remote"
	LocationHybrid LocationType = "hybrid"
	LocationOnsite LocationType = "onsite"
)

// SalaryRange is the posted compensation band. Zero values mean unspecified.
type SalaryRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Job is the engine's read-only view of a job posting. The posting itself is
// owned by the platform; the engine only consumes these fields.
type Job struct {
	ID              string          `json:"id"`
	CompanyID       string          `json:"companyId"`
	Title           string          `json:"title"`
	Skills          []string        `json:"skills"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel"`
	LocationType    LocationType    `json:"locationType"`
	Salary          SalaryRange     `json:"salary"`
	Active          bool            `json:"active"`
}

// HasSalaryRange reports whether the posting carries any salary bounds.
func (j *Job) HasSalaryRange() bool {
	return j.Salary.Min > 0 || j.Salary.Max > 0
}

package canvas

import "time"

type User struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	SortableName string `json:"sortable_name"`
	ShortName    string `json:"short_name"`
	Email        string `json:"email"`
	LoginID      string `json:"login_id"`
}

type Course struct {
	ID               int        `json:"id"`
	Name             string     `json:"name"`
	CourseCode       string     `json:"course_code"`
	WorkflowState    string     `json:"workflow_state"`
	StartAt          *time.Time `json:"start_at"`
	EndAt            *time.Time `json:"end_at"`
	EnrollmentTermID int        `json:"enrollment_term_id"`
	TotalStudents    int        `json:"total_students"`
	TimeZone         string     `json:"time_zone"`
}

type Assignment struct {
	ID                  int        `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	DueAt               *time.Time `json:"due_at"`
	PointsPossible      float64    `json:"points_possible"`
	GradingType         string     `json:"grading_type"`
	SubmissionTypes     []string   `json:"submission_types"`
	WorkflowState       string     `json:"workflow_state"`
	CourseID            int        `json:"course_id"`
	HTMLURL             string     `json:"html_url"`
	NeedsGradingCount   int        `json:"needs_grading_count"`
	Rubric              []Rubric   `json:"rubric"`
	UseRubricForGrading bool       `json:"use_rubric_for_grading"`
}

// Rubric is a single grading criterion of an assignment rubric.
type Rubric struct {
	ID              string  `json:"id"`
	Points          float64 `json:"points"`
	Description     string  `json:"description"`
	LongDescription string  `json:"long_description"`
}

type Submission struct {
	ID             int           `json:"id"`
	AssignmentID   int           `json:"assignment_id"`
	UserID         int           `json:"user_id"`
	SubmittedAt    *time.Time    `json:"submitted_at"`
	Score          float64       `json:"score"`
	Grade          string        `json:"grade"`
	GraderID       int           `json:"grader_id"`
	WorkflowState  string        `json:"workflow_state"`
	SubmissionType string        `json:"submission_type"`
	Body           string        `json:"body"`
	URL            string        `json:"url"`
	Attachments    []Attachment  `json:"attachments"`
	MediaComment   *MediaComment `json:"media_comment"`
	Attempt        int           `json:"attempt"`
	Late           bool          `json:"late"`
	Missing        bool          `json:"missing"`
	User           *User         `json:"user"`
}

// Attachment is a file attached to a submission. Canvas serializes the MIME
// type under the hyphenated "content-type" key.
type Attachment struct {
	ID          int    `json:"id"`
	Filename    string `json:"filename"`
	DisplayName string `json:"display_name"`
	ContentType string `json:"content-type"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
}

type MediaComment struct {
	ContentType string `json:"content-type"`
	DisplayName string `json:"display_name"`
	MediaID     string `json:"media_id"`
	MediaType   string `json:"media_type"`
	URL         string `json:"url"`
}

// CourseWithStats decorates a course with its ungraded-submission count.
type CourseWithStats struct {
	Course
	UngradedCount int `json:"ungraded_count"`
}

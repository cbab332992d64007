package domain

import "time"

// TaskStatus represents the lifecycle state of an extraction task.
// Values include TaskStatusProcessing, TaskStatusCompleted, and TaskStatusFailed.
type TaskStatus string

const (
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether no further mutation may happen in this state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task is the tracked state of one extraction request.
// Result collections are always serialized (empty while processing); the
// optional scalars stay null until the task reaches a terminal state.
type Task struct {
	ID         string     `json:"id"`
	ReportID   string     `json:"reportId"`
	Status     TaskStatus `json:"status"`
	Text       []string   `json:"text"`
	Tables     []Table    `json:"tables"`
	Charts     []Chart    `json:"charts"`
	Insights   []Insight  `json:"insights"`
	Summary    *string    `json:"summary"`
	Industry   *string    `json:"industry"`
	Vectorized *bool      `json:"vectorized"`
	Chunks     *int       `json:"chunks"`
	Error      *string    `json:"error"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewTask builds a processing task with empty result collections.
// Parameters:
//   - id: server-generated task identifier.
//   - reportID: caller-supplied source document identifier.
//   - now: creation timestamp used for both created_at and updated_at.
//
// Returns:
//   - *Task: task in the processing state.
func NewTask(id, reportID string, now time.Time) *Task {
	return &Task{
		ID:        id,
		ReportID:  reportID,
		Status:    TaskStatusProcessing,
		Text:      []string{},
		Tables:    []Table{},
		Charts:    []Chart{},
		Insights:  []Insight{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so callers never share slices or pointers with the registry.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Text = append([]string{}, t.Text...)
	c.Tables = make([]Table, len(t.Tables))
	for i, tbl := range t.Tables {
		c.Tables[i] = tbl.clone()
	}
	c.Charts = append([]Chart{}, t.Charts...)
	c.Insights = append([]Insight{}, t.Insights...)
	c.Summary = cloneString(t.Summary)
	c.Industry = cloneString(t.Industry)
	c.Error = cloneString(t.Error)
	if t.Vectorized != nil {
		v := *t.Vectorized
		c.Vectorized = &v
	}
	if t.Chunks != nil {
		n := *t.Chunks
		c.Chunks = &n
	}
	return &c
}

// TaskPatch is the single terminal mutation a worker applies to a task.
// Exactly one of Result or Err should be set.
type TaskPatch struct {
	Status TaskStatus
	Result *ExtractionResult
	Err    string
}

// CompletedPatch builds a patch that moves a task to completed with the given result.
func CompletedPatch(result *ExtractionResult) TaskPatch {
	return TaskPatch{Status: TaskStatusCompleted, Result: result}
}

// FailedPatch builds a patch that moves a task to failed with an error message.
func FailedPatch(msg string) TaskPatch {
	return TaskPatch{Status: TaskStatusFailed, Err: msg}
}

// Apply merges the patch into the task and refreshes updated_at.
func (p TaskPatch) Apply(t *Task, now time.Time) {
	t.Status = p.Status
	if p.Result != nil {
		r := p.Result
		t.Text = append([]string{}, r.Text...)
		t.Tables = append([]Table{}, r.Tables...)
		t.Charts = append([]Chart{}, r.Charts...)
		t.Insights = append([]Insight{}, r.Insights...)
		summary, industry := r.Summary, r.Industry
		vectorized, chunks := r.Vectorized, r.Chunks
		t.Summary = &summary
		t.Industry = &industry
		t.Vectorized = &vectorized
		t.Chunks = &chunks
	}
	if p.Status == TaskStatusFailed {
		msg := p.Err
		t.Error = &msg
	}
	t.UpdatedAt = now
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/analystai/internal/domain"
)

func sampleResult() *domain.ExtractionResult {
	return &domain.ExtractionResult{
		Text:       []string{"page one"},
		Tables:     []domain.Table{{ID: "table-1", Title: "T", Data: [][]string{{"a", "b"}}, Page: 1}},
		Charts:     []domain.Chart{{ID: "chart-1", Title: "C", Type: "bar", Page: 2}},
		Insights:   []domain.Insight{{ID: "insight-1", Text: "I", Confidence: 0.5}},
		Summary:    "summary",
		Industry:   "Technology",
		Vectorized: true,
		Chunks:     3,
	}
}

func TestTaskRegistry_CreateAndGet(t *testing.T) {
	r := NewTaskRegistry()

	created := r.Create("report-42")
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "report-42", created.ReportID)
	assert.Equal(t, domain.TaskStatusProcessing, created.Status)
	assert.Empty(t, created.Text)
	assert.Empty(t, created.Tables)
	assert.Empty(t, created.Charts)
	assert.Empty(t, created.Insights)
	assert.Nil(t, created.Summary)
	assert.Nil(t, created.Error)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := r.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestTaskRegistry_GetUnknown(t *testing.T) {
	r := NewTaskRegistry()

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskRegistry_CreateRetriesOnIDCollision(t *testing.T) {
	r := NewTaskRegistry()
	ids := []string{"dup", "dup", "fresh"}
	r.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	first := r.Create("a")
	second := r.Create("b")

	assert.Equal(t, "dup", first.ID)
	assert.Equal(t, "fresh", second.ID)
	assert.Equal(t, 2, r.Count())
}

func TestTaskRegistry_UpdateCompleted(t *testing.T) {
	r := NewTaskRegistry()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }
	task := r.Create("report")

	clock = clock.Add(5 * time.Second)
	updated, err := r.Update(task.ID, domain.CompletedPatch(sampleResult()))
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusCompleted, updated.Status)
	assert.Equal(t, []string{"page one"}, updated.Text)
	require.NotNil(t, updated.Summary)
	assert.Equal(t, "summary", *updated.Summary)
	require.NotNil(t, updated.Chunks)
	assert.Equal(t, 3, *updated.Chunks)
	assert.Nil(t, updated.Error)
	assert.Equal(t, task.CreatedAt, updated.CreatedAt)
	assert.Equal(t, clock, updated.UpdatedAt)
}

func TestTaskRegistry_UpdateFailed(t *testing.T) {
	r := NewTaskRegistry()
	task := r.Create("report")

	updated, err := r.Update(task.ID, domain.FailedPatch("boom"))
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusFailed, updated.Status)
	require.NotNil(t, updated.Error)
	assert.Equal(t, "boom", *updated.Error)
	assert.Empty(t, updated.Text)
	assert.Nil(t, updated.Summary)
}

func TestTaskRegistry_UpdateErrors(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, r *TaskRegistry) string
		patch   domain.TaskPatch
		wantErr error
	}{
		{
			name:    "unknown id",
			prepare: func(t *testing.T, r *TaskRegistry) string { return "missing" },
			patch:   domain.FailedPatch("x"),
			wantErr: ErrTaskNotFound,
		},
		{
			name:    "non-terminal target",
			prepare: func(t *testing.T, r *TaskRegistry) string { return r.Create("a").ID },
			patch:   domain.TaskPatch{Status: domain.TaskStatusProcessing},
			wantErr: ErrInvalidTransition,
		},
		{
			name: "already completed",
			prepare: func(t *testing.T, r *TaskRegistry) string {
				id := r.Create("a").ID
				_, err := r.Update(id, domain.CompletedPatch(sampleResult()))
				require.NoError(t, err)
				return id
			},
			patch:   domain.FailedPatch("late"),
			wantErr: ErrTaskFinalized,
		},
		{
			name: "already failed",
			prepare: func(t *testing.T, r *TaskRegistry) string {
				id := r.Create("a").ID
				_, err := r.Update(id, domain.FailedPatch("first"))
				require.NoError(t, err)
				return id
			},
			patch:   domain.CompletedPatch(sampleResult()),
			wantErr: ErrTaskFinalized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewTaskRegistry()
			id := tt.prepare(t, r)

			_, err := r.Update(id, tt.patch)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTaskRegistry_TerminalStateIsFinal(t *testing.T) {
	r := NewTaskRegistry()
	id := r.Create("a").ID
	_, err := r.Update(id, domain.FailedPatch("first"))
	require.NoError(t, err)

	before, err := r.Get(id)
	require.NoError(t, err)

	_, err = r.Update(id, domain.CompletedPatch(sampleResult()))
	require.ErrorIs(t, err, ErrTaskFinalized)

	after, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTaskRegistry_SnapshotsAreIsolated(t *testing.T) {
	r := NewTaskRegistry()
	id := r.Create("a").ID
	_, err := r.Update(id, domain.CompletedPatch(sampleResult()))
	require.NoError(t, err)

	snap, err := r.Get(id)
	require.NoError(t, err)
	snap.Text[0] = "mutated"
	snap.Tables[0].Data[0][0] = "mutated"
	*snap.Summary = "mutated"

	fresh, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "page one", fresh.Text[0])
	assert.Equal(t, "a", fresh.Tables[0].Data[0][0])
	assert.Equal(t, "summary", *fresh.Summary)
}

func TestTaskRegistry_ConcurrentCreate(t *testing.T) {
	r := NewTaskRegistry()
	const n = 500

	ids := make([]string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			ids[i] = r.Create("report").ID
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, r.Count())
}

func TestTaskRegistry_ConcurrentReadersDuringUpdate(t *testing.T) {
	r := NewTaskRegistry()
	id := r.Create("a").ID

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				task, err := r.Get(id)
				if err != nil {
					t.Errorf("Get failed: %v", err)
					return
				}
				if task.Status == domain.TaskStatusProcessing && len(task.Text) != 0 {
					t.Errorf("processing task exposed result fields")
					return
				}
			}
		}()
	}

	_, err := r.Update(id, domain.CompletedPatch(sampleResult()))
	require.NoError(t, err)
	close(stop)
	wg.Wait()
}

func TestTaskRegistry_CountByStatus(t *testing.T) {
	r := NewTaskRegistry()
	r.Create("processing")
	done := r.Create("done").ID
	failed := r.Create("failed").ID
	_, err := r.Update(done, domain.CompletedPatch(sampleResult()))
	require.NoError(t, err)
	_, err = r.Update(failed, domain.FailedPatch("x"))
	require.NoError(t, err)

	counts := r.CountByStatus()
	assert.Equal(t, 1, counts[domain.TaskStatusProcessing])
	assert.Equal(t, 1, counts[domain.TaskStatusCompleted])
	assert.Equal(t, 1, counts[domain.TaskStatusFailed])
}

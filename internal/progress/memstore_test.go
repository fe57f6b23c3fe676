package progress_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lexivox/lexivox/internal/practice"
	"github.com/lexivox/lexivox/internal/progress"
)

func record(learner, wordID, word string, combined float64, d practice.Decision) *progress.AttemptRecord {
	return &progress.AttemptRecord{
		LearnerID: learner,
		WordID:    wordID,
		Word:      word,
		Combined:  combined,
		Decision:  d,
	}
}

func TestMemStore_RecordAndAggregate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := progress.NewMemStore()

	recs := []*progress.AttemptRecord{
		record("alice", "w1", "Spark", 0.30, practice.DecisionRetry),
		record("alice", "w1", "Spark", 0.55, practice.DecisionRetry),
		record("alice", "w1", "Spark", 0.81, practice.DecisionAccepted),
		record("alice", "w2", "Nut", 0.10, practice.DecisionForcedAdvance),
		record("bob", "w1", "Spark", 0.95, practice.DecisionAccepted),
	}
	for i, r := range recs {
		if err := s.RecordAttempt(ctx, r); err != nil {
			t.Fatalf("RecordAttempt #%d: %v", i, err)
		}
		if r.CreatedAt.IsZero() {
			t.Fatalf("RecordAttempt #%d: CreatedAt not set", i)
		}
	}

	p, err := s.WordProgress(ctx, "alice", "w1")
	if err != nil {
		t.Fatalf("WordProgress: %v", err)
	}
	if p == nil {
		t.Fatal("WordProgress: got nil for existing history")
	}
	if p.Attempts != 3 || p.Accepts != 1 || p.ForcedAdvances != 0 {
		t.Errorf("aggregate = %+v; want 3 attempts, 1 accept, 0 forced", p)
	}
	if p.BestCombined != 0.81 {
		t.Errorf("BestCombined = %v; want 0.81", p.BestCombined)
	}
	if p.Word != "Spark" {
		t.Errorf("Word = %q; want Spark", p.Word)
	}
}

func TestMemStore_WordProgressNoHistory(t *testing.T) {
	t.Parallel()
	s := progress.NewMemStore()

	p, err := s.WordProgress(context.Background(), "alice", "missing")
	if err != nil {
		t.Fatalf("WordProgress: %v", err)
	}
	if p != nil {
		t.Fatalf("WordProgress = %+v; want nil for no history", p)
	}
}

func TestMemStore_ListProgressOrderedByRecency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := progress.NewMemStore()

	if err := s.RecordAttempt(ctx, record("alice", "w1", "Spark", 0.9, practice.DecisionAccepted)); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if err := s.RecordAttempt(ctx, record("alice", "w2", "Nut", 0.2, practice.DecisionRetry)); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if err := s.RecordAttempt(ctx, record("bob", "w3", "Tree", 0.9, practice.DecisionAccepted)); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	list, err := s.ListProgress(ctx, "alice")
	if err != nil {
		t.Fatalf("ListProgress: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListProgress: got %d entries; want 2", len(list))
	}
	if list[0].WordID != "w2" {
		t.Errorf("ListProgress[0].WordID = %q; want w2 (most recent first)", list[0].WordID)
	}
}

func TestMemStore_RecordAttemptRejectsInvalid(t *testing.T) {
	t.Parallel()
	s := progress.NewMemStore()

	bad := []*progress.AttemptRecord{
		{WordID: "w1", Decision: practice.DecisionRetry},
		{LearnerID: "alice", Decision: practice.DecisionRetry},
		{LearnerID: "alice", WordID: "w1"},
	}
	for i, r := range bad {
		err := s.RecordAttempt(context.Background(), r)
		if !errors.Is(err, progress.ErrInvalidRecord) {
			t.Errorf("RecordAttempt #%d: err = %v; want ErrInvalidRecord", i, err)
		}
	}
}

func TestMemStore_FailureAttemptsCounted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := progress.NewMemStore()

	rec := record("alice", "w1", "Spark", 0, practice.DecisionRetry)
	rec.FailureCode = "no-speech"
	if err := s.RecordAttempt(ctx, rec); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	p, err := s.WordProgress(ctx, "alice", "w1")
	if err != nil {
		t.Fatalf("WordProgress: %v", err)
	}
	if p.Attempts != 1 || p.Accepts != 0 {
		t.Errorf("aggregate = %+v; want 1 attempt, 0 accepts", p)
	}
}

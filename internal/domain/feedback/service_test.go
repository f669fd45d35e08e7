package feedback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/nomination"
	"feedback360/internal/domain/org"
)

type memNominations struct {
	mu   sync.Mutex
	byID map[string]nomination.Nomination
}

func (m *memNominations) GetNomination(_ context.Context, id string) (nomination.Nomination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byID[id]
	if !ok {
		return nomination.Nomination{}, nomination.ErrNotFound
	}
	return n, nil
}

func (m *memNominations) UpdateNomination(_ context.Context, n nomination.Nomination) (nomination.Nomination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.byID[n.ID]
	if current.Version != n.Version {
		return nomination.Nomination{}, nomination.ErrConcurrentModification
	}
	n.Version++
	m.byID[n.ID] = n
	return n, nil
}

type memFeedback struct {
	mu        sync.Mutex
	drafts    map[string]map[string]Answer
	responses map[string]Response
	noms      *memNominations
}

func (m *memFeedback) GetDraft(_ context.Context, nominationID string) (map[string]Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drafts[nominationID]; ok {
		return d, nil
	}
	return map[string]Answer{}, nil
}

func (m *memFeedback) SaveDraft(_ context.Context, nominationID string, answers map[string]Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[nominationID] = answers
	return nil
}

func (m *memFeedback) GetResponse(_ context.Context, nominationID string) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[nominationID]
	if !ok {
		return Response{}, ErrResponseNotFound
	}
	return r, nil
}

func (m *memFeedback) SubmitResponse(ctx context.Context, resp Response, n nomination.Nomination) (Response, error) {
	if _, err := m.noms.UpdateNomination(ctx, n); err != nil {
		return Response{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[resp.NominationID] = resp
	delete(m.drafts, resp.NominationID)
	return resp, nil
}

func (m *memFeedback) ListReceived(_ context.Context, cycleID, requesterID string) ([]ReceivedFeedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ReceivedFeedback
	for id, resp := range m.responses {
		n := m.noms.byID[id]
		if n.CycleID == cycleID && n.RequesterID == requesterID {
			out = append(out, ReceivedFeedback{
				NominationID: resp.NominationID,
				Relationship: string(n.Relationship),
				Answers:      resp.Answers,
				SubmittedAt:  resp.SubmittedAt,
			})
		}
	}
	return out, nil
}

type staticCycles struct {
	cycle cycle.Cycle
	// extensions is keyed by employeeID+"/"+kind.
	extensions map[string]time.Time
}

func (s staticCycles) Get(_ context.Context, id string) (cycle.Cycle, error) {
	if id != s.cycle.ID {
		return cycle.Cycle{}, cycle.ErrCycleNotFound
	}
	return s.cycle, nil
}

func (s staticCycles) DeadlineFor(_ context.Context, c cycle.Cycle, employeeID, kind string) (time.Time, error) {
	base := c.NominationDeadline
	if kind == cycle.DeadlineFeedback {
		base = c.FeedbackDeadline
	}
	if ext, ok := s.extensions[employeeID+"/"+kind]; ok && ext.After(base) {
		return ext, nil
	}
	return base, nil
}

func (s staticCycles) Questions(context.Context, string, org.Relationship) ([]cycle.Question, error) {
	return []cycle.Question{
		{ID: "q1", Text: "What went well?", Type: cycle.QuestionTypeText, Order: 1, Needed: true},
		{ID: "q2", Text: "Overall rating", Type: cycle.QuestionTypeRating, Order: 2, Needed: true},
		{ID: "q3", Text: "Anything else?", Type: cycle.QuestionTypeText, Order: 3},
	}, nil
}

func testSetup(phase cycle.Phase) (*Service, *memNominations) {
	return testSetupWith(cycle.Cycle{ID: "c1", Phase: phase}, nil)
}

func testSetupWith(c cycle.Cycle, extensions map[string]time.Time) (*Service, *memNominations) {
	noms := &memNominations{byID: map[string]nomination.Nomination{
		"n1": {
			ID:           "n1",
			CycleID:      "c1",
			RequesterID:  "req",
			ReviewerID:   "rev",
			Relationship: org.RelationshipPeer,
			Approval:     nomination.ApprovalApproved,
			Completion:   nomination.CompletionNotStarted,
			Version:      2,
		},
		"n2": {
			ID:           "n2",
			CycleID:      "c1",
			RequesterID:  "req",
			ReviewerID:   "rev2",
			Relationship: org.RelationshipPeer,
			Approval:     nomination.ApprovalPending,
			Completion:   nomination.CompletionNotStarted,
			Version:      1,
		},
	}}
	store := &memFeedback{
		drafts:    map[string]map[string]Answer{},
		responses: map[string]Response{},
		noms:      noms,
	}
	svc := NewService(store, noms, staticCycles{cycle: c, extensions: extensions})
	return svc, noms
}

func rating(v int) *int { return &v }

func fullAnswers() map[string]Answer {
	return map[string]Answer{
		"q1": {Value: "Shipped the migration on time."},
		"q2": {Rating: rating(4)},
	}
}

func TestDraftMovesCompletionInProgress(t *testing.T) {
	svc, noms := testSetup(cycle.PhaseCollection)

	n, err := svc.SaveDraft(context.Background(), "n1", "rev", map[string]Answer{"q1": {Value: "draft"}})
	if err != nil {
		t.Fatalf("draft failed: %v", err)
	}
	if n.Completion != nomination.CompletionInProgress {
		t.Fatalf("expected in_progress, got %s", n.Completion)
	}

	stored := noms.byID["n1"]
	if stored.Completion != nomination.CompletionInProgress {
		t.Fatalf("draft transition not persisted: %s", stored.Completion)
	}

	draft, err := svc.Draft(context.Background(), "n1", "rev")
	if err != nil {
		t.Fatalf("read draft failed: %v", err)
	}
	if draft["q1"].Value != "draft" {
		t.Fatalf("unexpected draft contents: %+v", draft)
	}
}

func TestDraftRequiresApproval(t *testing.T) {
	svc, _ := testSetup(cycle.PhaseCollection)

	_, err := svc.SaveDraft(context.Background(), "n2", "rev2", map[string]Answer{"q1": {Value: "x"}})
	if !errors.Is(err, nomination.ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved for pending nomination, got %v", err)
	}
}

func TestDraftOwnership(t *testing.T) {
	svc, _ := testSetup(cycle.PhaseCollection)

	_, err := svc.SaveDraft(context.Background(), "n1", "someone-else", map[string]Answer{"q1": {Value: "x"}})
	if !errors.Is(err, nomination.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestDraftPhaseGate(t *testing.T) {
	svc, _ := testSetup(cycle.PhaseApproval)

	_, err := svc.SaveDraft(context.Background(), "n1", "rev", map[string]Answer{"q1": {Value: "x"}})
	if !cycle.IsPhaseViolation(err) {
		t.Fatalf("expected phase violation outside collection, got %v", err)
	}
}

func TestDraftAndSubmitAfterFeedbackDeadline(t *testing.T) {
	svc, noms := testSetupWith(cycle.Cycle{
		ID:               "c1",
		Phase:            cycle.PhaseCollection,
		FeedbackDeadline: time.Now().UTC().Add(-time.Hour),
	}, nil)
	ctx := context.Background()

	if _, err := svc.SaveDraft(ctx, "n1", "rev", map[string]Answer{"q1": {Value: "x"}}); !errors.Is(err, cycle.ErrDeadlinePassed) {
		t.Fatalf("expected ErrDeadlinePassed for draft, got %v", err)
	}
	if _, err := svc.Submit(ctx, "n1", "rev", fullAnswers()); !errors.Is(err, cycle.ErrDeadlinePassed) {
		t.Fatalf("expected ErrDeadlinePassed for submit, got %v", err)
	}
	if noms.byID["n1"].Completion != nomination.CompletionNotStarted {
		t.Fatal("expired deadline must not move the completion axis")
	}
}

func TestSubmitWithDeadlineExtension(t *testing.T) {
	svc, _ := testSetupWith(cycle.Cycle{
		ID:               "c1",
		Phase:            cycle.PhaseCollection,
		FeedbackDeadline: time.Now().UTC().Add(-time.Hour),
	}, map[string]time.Time{
		"rev/" + cycle.DeadlineFeedback: time.Now().UTC().Add(24 * time.Hour),
	})

	if _, err := svc.Submit(context.Background(), "n1", "rev", fullAnswers()); err != nil {
		t.Fatalf("extended deadline must permit submission, got %v", err)
	}
}

func TestSubmitCompletesOnce(t *testing.T) {
	svc, noms := testSetup(cycle.PhaseCollection)
	ctx := context.Background()

	if _, err := svc.SaveDraft(ctx, "n1", "rev", map[string]Answer{"q1": {Value: "partial"}}); err != nil {
		t.Fatalf("draft failed: %v", err)
	}

	resp, err := svc.Submit(ctx, "n1", "rev", fullAnswers())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if resp.NominationID != "n1" || resp.SubmittedAt.IsZero() {
		t.Fatalf("unexpected response: %+v", resp)
	}

	stored := noms.byID["n1"]
	if stored.Completion != nomination.CompletionCompleted {
		t.Fatalf("expected completed nomination, got %s", stored.Completion)
	}

	if _, err := svc.Submit(ctx, "n1", "rev", fullAnswers()); !errors.Is(err, nomination.ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted on second submit, got %v", err)
	}
	if _, err := svc.SaveDraft(ctx, "n1", "rev", fullAnswers()); !errors.Is(err, nomination.ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted on draft after submit, got %v", err)
	}
}

func TestSubmitIncompleteAnswers(t *testing.T) {
	svc, noms := testSetup(cycle.PhaseCollection)

	cases := []map[string]Answer{
		{"q2": {Rating: rating(3)}},            // required text missing
		{"q1": {Value: "ok"}},                  // required rating missing
		{"q1": {Value: "ok"}, "q2": {}},        // rating answered but empty
		{"q1": {}, "q2": {Rating: rating(3)}},  // text answered but empty
	}
	for i, answers := range cases {
		if _, err := svc.Submit(context.Background(), "n1", "rev", answers); !errors.Is(err, ErrIncompleteAnswers) {
			t.Fatalf("case %d: expected ErrIncompleteAnswers, got %v", i, err)
		}
	}
	if noms.byID["n1"].Completion == nomination.CompletionCompleted {
		t.Fatal("incomplete submit must not complete the nomination")
	}
}

func TestSubmitOptionalQuestionMayBeSkipped(t *testing.T) {
	svc, _ := testSetup(cycle.PhaseCollection)

	// q3 is optional; omitting it is fine.
	if _, err := svc.Submit(context.Background(), "n1", "rev", fullAnswers()); err != nil {
		t.Fatalf("submit without optional answer failed: %v", err)
	}
}

func TestReceivedIsAnonymized(t *testing.T) {
	svc, _ := testSetup(cycle.PhaseCollection)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "n1", "rev", fullAnswers()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	received, err := svc.Received(ctx, "c1", "req")
	if err != nil {
		t.Fatalf("received failed: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("expected 1 response, got %d", len(received))
	}
	if received[0].Relationship != string(org.RelationshipPeer) {
		t.Fatalf("expected relationship only, got %+v", received[0])
	}

	submitted := time.Now().Add(-time.Minute)
	if received[0].SubmittedAt.Before(submitted) {
		t.Fatalf("unexpected submission time: %v", received[0].SubmittedAt)
	}
}

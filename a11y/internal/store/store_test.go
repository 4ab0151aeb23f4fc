package store

import (
	"context"
	"testing"
	"time"

	"github.com/hazyhaar/a11y/compliance"
	"github.com/hazyhaar/a11y/dbopen"
	"github.com/hazyhaar/a11y/rules"
	"github.com/hazyhaar/a11y/wcag"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t)
	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return &Store{DB: db}
}

func sampleReport(id string, at time.Time, violations ...compliance.Violation) *compliance.Report {
	r := &compliance.Report{
		ID:                   id,
		TargetLevel:          wcag.LevelAA,
		Status:               compliance.StatusPass,
		CompliancePercentage: 100,
		RequiredCriteria:     55,
		Required:             []string{"1.1.1", "1.3.1"},
		ViolatedCriteria:     []string{},
		Violations:           violations,
		Summary:              "Passes WCAG AA with 0 criteria violations",
		Source:               "https://example.com/",
		CreatedAt:            at,
	}
	if len(violations) > 0 {
		r.Status = compliance.StatusFail
		seen := map[string]bool{}
		for _, v := range violations {
			if !seen[v.Criterion] {
				seen[v.Criterion] = true
				r.ViolatedCriteria = append(r.ViolatedCriteria, v.Criterion)
			}
		}
		r.TotalViolations = len(violations)
	}
	return r
}

func TestReportRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r := sampleReport("rpt_a", at, compliance.Violation{
		Criterion: "1.1.1",
		Title:     "Non-text Content",
		Level:     wcag.LevelA,
		RuleID:    rules.ImgAltMissing,
		Message:   "Image missing alt attribute",
		Severity:  rules.SeverityError,
		Element:   `<img src="x.png">`,
	})
	if err := s.InsertReport(ctx, r); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetReport(ctx, "rpt_a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("get: got nil")
	}
	if got.Status != compliance.StatusFail || got.TargetLevel != wcag.LevelAA {
		t.Fatalf("status/level: %v %v", got.Status, got.TargetLevel)
	}
	if len(got.Violations) != 1 || got.Violations[0].Severity != rules.SeverityError {
		t.Fatalf("violations: %+v", got.Violations)
	}
	if !got.CreatedAt.Equal(at) {
		t.Fatalf("CreatedAt: got %v, want %v", got.CreatedAt, at)
	}
}

func TestGetReport_NotFound(t *testing.T) {
	s := testStore(t)
	got, err := s.GetReport(context.Background(), "rpt_missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestInsertReport_NoID(t *testing.T) {
	s := testStore(t)
	if err := s.InsertReport(context.Background(), sampleReport("", time.Now())); err == nil {
		t.Fatal("expected error for report without id")
	}
}

func TestListReports_Order(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"rpt_1", "rpt_2", "rpt_3"} {
		if err := s.InsertReport(ctx, sampleReport(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	rows, err := s.ListReports(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}
	if rows[0].ID != "rpt_3" || rows[1].ID != "rpt_2" {
		t.Fatalf("order: %s, %s", rows[0].ID, rows[1].ID)
	}
	if rows[0].Status != "PASS" || rows[0].TargetLevel != "AA" || rows[0].RequiredCriteria != 55 {
		t.Fatalf("row: %+v", rows[0])
	}
	if !rows[0].CreatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("CreatedAt: %v", rows[0].CreatedAt)
	}
}

func TestDeleteReport_Cascades(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	v := compliance.Violation{Criterion: "2.4.4", Level: wcag.LevelA, RuleID: rules.LinkNoText, Severity: rules.SeverityError, Message: "Link has no text"}
	if err := s.InsertReport(ctx, sampleReport("rpt_d", time.Now(), v, v)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.DeleteReport(ctx, "rpt_d"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var n int
	if err := s.DB.QueryRow(`SELECT COUNT(*) FROM report_violations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("violations left after delete: %d", n)
	}
	if err := s.DeleteReport(ctx, "rpt_d"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestCriterionCounts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	link := compliance.Violation{Criterion: "2.4.4", Level: wcag.LevelA, RuleID: rules.LinkNoText, Severity: rules.SeverityError}
	img := compliance.Violation{Criterion: "1.1.1", Level: wcag.LevelA, RuleID: rules.ImgAltMissing, Severity: rules.SeverityError}
	if err := s.InsertReport(ctx, sampleReport("rpt_x", time.Now(), img, link)); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertReport(ctx, sampleReport("rpt_y", time.Now(), link)); err != nil {
		t.Fatal(err)
	}

	counts, err := s.CriterionCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if len(counts) != 2 || counts[0] != (CriterionCount{"2.4.4", 2}) || counts[1] != (CriterionCount{"1.1.1", 1}) {
		t.Fatalf("counts = %+v", counts)
	}
}

func TestAuditJobLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	j := &AuditJob{ID: "aud_1", URL: "https://example.com/", TargetLevel: "AA"}
	if err := s.InsertAuditJob(ctx, j); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := s.GetAuditJob(ctx, "aud_1")
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Status != AuditQueued || got.URL != "https://example.com/" {
		t.Fatalf("job = %+v", got)
	}

	if err := s.UpdateAuditJob(ctx, "aud_1", AuditDone, "rpt_9", "", 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.GetAuditJob(ctx, "aud_1")
	if got.Status != AuditDone || got.ReportID != "rpt_9" || got.Attempts != 1 {
		t.Fatalf("after update: %+v", got)
	}

	missing, err := s.GetAuditJob(ctx, "aud_missing")
	if err != nil || missing != nil {
		t.Fatalf("missing: %v %v", missing, err)
	}
}

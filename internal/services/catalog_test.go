package services

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
)

type recordedExec struct {
	query string
	args  []interface{}
}

// scriptedQueryer satisfies db.Queryer with canned lookup results and records
// every write, so delete guards and relation rewrites run without a database.
type scriptedQueryer struct {
	exists   bool
	counts   []int
	countIdx int
	getErr   error
	execs    []recordedExec
}

func (s *scriptedQueryer) Get(dest interface{}, query string, args ...interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	switch d := dest.(type) {
	case *bool:
		*d = s.exists
	case *int:
		if s.countIdx < len(s.counts) {
			*d = s.counts[s.countIdx]
			s.countIdx++
		}
	}
	return nil
}

func (s *scriptedQueryer) Select(dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (s *scriptedQueryer) Exec(query string, args ...interface{}) (sql.Result, error) {
	s.execs = append(s.execs, recordedExec{query: query, args: args})
	return nil, nil
}

func (s *scriptedQueryer) Rebind(query string) string {
	return query
}

func institutionDeleteSpec(id string) guardedDeleteSpec {
	return guardedDeleteSpec{
		table:    "institutions",
		id:       id,
		notFound: "institution not found",
		dependents: []dependentSpec{
			{
				countQuery: `SELECT count(*) FROM courses WHERE institution_id = $1`,
				message:    "institution has %d dependent course(s)",
			},
			{
				countQuery: `SELECT count(*) FROM instructors WHERE institution_id = $1`,
				message:    "institution has %d dependent instructor(s)",
			},
		},
	}
}

func TestGuardedDeleteBlockedByDependents(t *testing.T) {
	q := &scriptedQueryer{exists: true, counts: []int{2}}
	err := runGuardedDelete(q, institutionDeleteSpec("inst-1"))
	var svcErr ServiceError
	if !errors.As(err, &svcErr) || svcErr.Status != 400 {
		t.Fatalf("expected a 400 conflict, got %v", err)
	}
	if !strings.Contains(svcErr.Message, "2 dependent course(s)") {
		t.Errorf("message should carry the dependent count, got %q", svcErr.Message)
	}
	if len(q.execs) != 0 {
		t.Fatalf("blocked delete must not touch the table, got %d exec(s)", len(q.execs))
	}
}

func TestGuardedDeleteMissingRow(t *testing.T) {
	q := &scriptedQueryer{exists: false}
	err := runGuardedDelete(q, institutionDeleteSpec("nope"))
	var svcErr ServiceError
	if !errors.As(err, &svcErr) || svcErr.Status != 404 {
		t.Fatalf("expected a 404, got %v", err)
	}
	if len(q.execs) != 0 {
		t.Fatalf("missing row must not be deleted, got %d exec(s)", len(q.execs))
	}
}

func TestGuardedDeleteRemovesUnreferencedRow(t *testing.T) {
	q := &scriptedQueryer{exists: true, counts: []int{0, 0}}
	if err := runGuardedDelete(q, institutionDeleteSpec("inst-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.execs) != 1 {
		t.Fatalf("expected exactly one delete, got %d exec(s)", len(q.execs))
	}
	if !strings.HasPrefix(q.execs[0].query, "DELETE FROM institutions") {
		t.Errorf("unexpected delete statement: %s", q.execs[0].query)
	}
}

func TestGuardedDeleteSurfacesLookupFailure(t *testing.T) {
	q := &scriptedQueryer{getErr: errors.New("connection reset")}
	err := runGuardedDelete(q, institutionDeleteSpec("inst-1"))
	var svcErr ServiceError
	if errors.As(err, &svcErr) {
		t.Fatalf("a broken lookup must not map to a client status, got %v", err)
	}
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestNotFoundOrClassifiesErrors(t *testing.T) {
	var svcErr ServiceError
	err := NotFoundOr(sql.ErrNoRows, "category not found", "load category")
	if !errors.As(err, &svcErr) || svcErr.Status != 404 {
		t.Fatalf("missing row should be a 404, got %v", err)
	}
	err = NotFoundOr(errors.New("connection refused"), "category not found", "load category")
	if errors.As(err, &svcErr) {
		t.Fatalf("driver failure must not carry a client status, got %v", err)
	}
	if !strings.Contains(err.Error(), "load category") {
		t.Errorf("wrapped error should name the operation, got %q", err.Error())
	}
	if NotFoundOr(nil, "x", "y") != nil {
		t.Fatal("nil error should stay nil")
	}
}

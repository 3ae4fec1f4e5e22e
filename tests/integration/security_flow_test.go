package integration

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrenholm/argus/internal/models"
	"github.com/mtrenholm/argus/internal/repositories"
)

var (
	setupOnce sync.Once
	testDB    *TestDB
	setupErr  error
)

// sharedDB starts one postgres container for the whole package. Tests that
// need isolation truncate tables themselves.
func sharedDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	setupOnce.Do(func() {
		testDB, setupErr = SetupTestDatabase(context.Background())
	})
	if setupErr != nil {
		t.Skipf("postgres container unavailable: %v", setupErr)
	}
	return testDB
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	db := sharedDB(t)
	require.NoError(t, db.CleanupTables(context.Background()))

	ts := NewTestServer(db.DB)
	defer ts.Close()

	email, password := TestUser("flow")

	resp, err := ts.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     "Flow Tester",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err = ts.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	accessToken, refreshToken, err := ExtractTokensFromResponse(resp)
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)

	resp, err = ts.RequestWithAuth(http.MethodGet, "/api/auth/profile", accessToken, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile map[string]interface{}
	require.NoError(t, ParseJSONResponse(resp, &profile))
	assert.Equal(t, email, profile["email"])

	// The successful login must have landed in the event log
	events, err := ts.EventRepo.List(context.Background(), models.EventFilter{Severity: models.SeverityLow})
	require.NoError(t, err)
	require.NotEmpty(t, events)
}

func TestAccountLocksAfterRepeatedFailures(t *testing.T) {
	db := sharedDB(t)
	require.NoError(t, db.CleanupTables(context.Background()))

	ts := NewTestServer(db.DB)
	defer ts.Close()

	email, password := TestUser("lockout")
	_, err := SeedUser(context.Background(), db.Pool, email, password)
	require.NoError(t, err)

	badLogin := map[string]string{"email": email, "password": "wrong-password-1!"}

	for i := 0; i < 4; i++ {
		resp, err := ts.Request(http.MethodPost, "/api/auth/login", badLogin, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}

	// Fifth failure trips the lock
	resp, err := ts.Request(http.MethodPost, "/api/auth/login", badLogin, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	msg, err := GetErrorMessage(resp)
	require.NoError(t, err)
	assert.Contains(t, msg, "locked")

	// Correct password is rejected while the lock holds
	resp, err = ts.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// The attempt on the locked account is logged high severity
	events, err := ts.EventRepo.List(context.Background(), models.EventFilter{Severity: models.SeverityHigh})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Contains(t, events[0].Message, "locked account")
}

func TestDetectorBlocksOffendingIP(t *testing.T) {
	db := sharedDB(t)
	ctx := context.Background()
	require.NoError(t, db.CleanupTables(ctx))

	ts := NewTestServer(db.DB)
	defer ts.Close()

	const offender = "203.0.113.9"
	require.NoError(t, SeedFailedLoginEvents(ctx, db.Pool, offender, 12, 2*time.Minute))
	// Below threshold and outside the window respectively; neither may block
	require.NoError(t, SeedFailedLoginEvents(ctx, db.Pool, "203.0.113.10", 3, 2*time.Minute))
	require.NoError(t, SeedFailedLoginEvents(ctx, db.Pool, "203.0.113.11", 12, 20*time.Minute))

	ts.Detector.RunPass(ctx)

	assert.True(t, ts.Blocklist.IsBlocked(offender))
	assert.False(t, ts.Blocklist.IsBlocked("203.0.113.10"))
	assert.False(t, ts.Blocklist.IsBlocked("203.0.113.11"))

	alerts, err := ts.AlertRepo.List(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertTypeUnauthorizedAccess, alerts[0].Type)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)

	// Re-running must not raise a duplicate alert for the same block
	ts.Detector.RunPass(ctx)
	alerts, err = ts.AlertRepo.List(ctx, 50, 0)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestEventRetentionDeletesOnlyOldResolved(t *testing.T) {
	db := sharedDB(t)
	ctx := context.Background()
	require.NoError(t, db.CleanupTables(ctx))

	repo := repositories.NewEventRepository(db.DB)

	seed := func(age time.Duration, status string) {
		t.Helper()
		_, err := db.Pool.Exec(ctx, `
			INSERT INTO security_events (id, source_ip, destination_ip, severity, message, detected_by, status, created_at, updated_at)
			VALUES (gen_random_uuid(), '198.51.100.4', 'system', 'low', 'Successful login', 'AuthSystem', $1, NOW() - make_interval(secs => $2), NOW())
		`, status, age.Seconds())
		require.NoError(t, err)
	}

	seed(45*24*time.Hour, models.EventStatusResolved) // old resolved: deleted
	seed(45*24*time.Hour, models.EventStatusActive)   // old but active: kept
	seed(24*time.Hour, models.EventStatusResolved)    // recent resolved: kept

	deleted, err := repo.DeleteResolvedBefore(ctx, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := repo.List(ctx, models.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestReputationSubjectUniqueness(t *testing.T) {
	db := sharedDB(t)
	ctx := context.Background()
	require.NoError(t, db.CleanupTables(ctx))

	repo := repositories.NewReputationRepository(db.DB)

	rec := &models.ReputationRecord{
		Subject:   "198.51.100.77",
		Kind:      models.ReputationKindIP,
		Reason:    "Credential stuffing source",
		RiskScore: 88,
		Source:    "Manual Entry",
	}

	created, err := repo.Insert(ctx, rec)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	_, err = repo.Insert(ctx, rec)
	assert.ErrorIs(t, err, models.ErrConflict)

	// TouchLastSeen must advance the timestamp
	before, err := repo.GetBySubject(ctx, models.ReputationKindIP, rec.Subject)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.TouchLastSeen(ctx, models.ReputationKindIP, rec.Subject))

	after, err := repo.GetBySubject(ctx, models.ReputationKindIP, rec.Subject)
	require.NoError(t, err)
	assert.True(t, after.LastSeen.After(before.LastSeen))
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/repomind/internal/config"
	"github.com/xxxsen/repomind/internal/middleware"
	"github.com/xxxsen/repomind/internal/model"
	"github.com/xxxsen/repomind/internal/pkg/errcode"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
	"github.com/xxxsen/repomind/internal/pkg/jwt"
	"github.com/xxxsen/repomind/internal/service"
	"github.com/xxxsen/repomind/internal/vcs"
)

type stubVCS struct {
	tree []vcs.TreeEntry
}

func (s *stubVCS) DefaultBranch(ctx context.Context, ref vcs.RepoRef, token string) (string, error) {
	return "main", nil
}

func (s *stubVCS) ListFileTree(ctx context.Context, ref vcs.RepoRef, token, branch string) ([]vcs.TreeEntry, error) {
	return s.tree, nil
}

func (s *stubVCS) ListCommits(ctx context.Context, ref vcs.RepoRef, token, branch string) ([]vcs.CommitMeta, error) {
	return nil, nil
}

func (s *stubVCS) FetchDiff(ctx context.Context, ref vcs.RepoRef, token, hash string) (string, error) {
	return "", appErr.ErrNotFound
}

func (s *stubVCS) FetchFile(ctx context.Context, ref vcs.RepoRef, token, branch, path string) (string, error) {
	return "", appErr.ErrNotFound
}

type memLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	refs     map[string]struct{}
}

func (l *memLedger) Balance(ctx context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

func (l *memLedger) Debit(ctx context.Context, txn *model.CreditTransaction) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur := l.balances[txn.UserID]
	if cur+txn.Delta < 0 {
		return cur, appErr.ErrInsufficientCredits
	}
	l.balances[txn.UserID] = cur + txn.Delta
	return cur, nil
}

func (l *memLedger) Grant(ctx context.Context, txn *model.CreditTransaction) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.refs[txn.Ref]; ok {
		return false, nil
	}
	l.refs[txn.Ref] = struct{}{}
	l.balances[txn.UserID] += txn.Delta
	return true, nil
}

func (l *memLedger) Refund(ctx context.Context, txn *model.CreditTransaction) error {
	return nil
}

func (l *memLedger) ListTransactions(ctx context.Context, userID string, limit int) ([]model.CreditTransaction, error) {
	return []model.CreditTransaction{}, nil
}

type noCodes struct{}

func (noCodes) Replace(ctx context.Context, code *model.JoinCode) error { return nil }

func (noCodes) Consume(ctx context.Context, code string, member *model.ProjectMember, now int64) (*model.JoinCode, error) {
	return nil, appErr.ErrInvalidCode
}

func (noCodes) DeleteStale(ctx context.Context, now int64) (int64, error) { return 0, nil }

type noMembers struct{}

func (noMembers) Get(ctx context.Context, projectID, userID string) (*model.ProjectMember, error) {
	return nil, appErr.ErrNotFound
}

func (noMembers) ListByProject(ctx context.Context, projectID string) ([]model.ProjectMember, error) {
	return nil, nil
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"message"`
	Data json.RawMessage `json:"data"`
}

var testSecret = []byte("jwt-secret")

func setupRouter(t *testing.T) (http.Handler, *memLedger) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ledger := &memLedger{balances: map[string]int64{}, refs: map[string]struct{}{}}
	client := &stubVCS{tree: []vcs.TreeEntry{
		{Path: "main.go", Type: "blob", Size: 10},
		{Path: "node_modules/x.js", Type: "blob", Size: 10},
	}}
	credits := service.NewCreditService(client, service.NewIndexFilter(config.IndexerConfig{}), ledger)
	team := service.NewTeamService(nil, noMembers{}, noCodes{}, time.Hour)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	RegisterRoutes(engine.Group("/api/v1"), RouterDeps{
		Projects:      NewProjectHandler(nil, nil),
		Commits:       NewCommitHandler(nil),
		Credits:       NewCreditHandler(credits),
		Questions:     NewQuestionHandler(nil),
		Team:          NewTeamHandler(team),
		Billing:       NewBillingHandler(credits),
		JWTSecret:     testSecret,
		BillingSecret: "hook",
	})
	return engine, ledger
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) envelope {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env
}

func bearer(t *testing.T, userID string) map[string]string {
	token, err := jwt.GenerateToken(userID, testSecret, time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestRoutesRequireAuth(t *testing.T) {
	router, _ := setupRouter(t)
	env := do(t, router, http.MethodGet, "/api/v1/projects", "", nil)
	require.Equal(t, errcode.ErrUnauthorized, env.Code)
}

func TestCreditCheckAndBillingGrant(t *testing.T) {
	router, ledger := setupRouter(t)

	env := do(t, router, http.MethodPost, "/api/v1/billing/credits", `{"user_id":"u1","credits":25,"ref":"order-9"}`, nil)
	require.Equal(t, errcode.ErrUnauthorized, env.Code)

	hook := map[string]string{middleware.BillingSecretHeader: "hook"}
	env = do(t, router, http.MethodPost, "/api/v1/billing/credits", `{"user_id":"u1","credits":25,"ref":"order-9"}`, hook)
	require.Zero(t, env.Code)
	env = do(t, router, http.MethodPost, "/api/v1/billing/credits", `{"user_id":"u1","credits":25,"ref":"order-9"}`, hook)
	require.Zero(t, env.Code)
	require.Equal(t, int64(25), ledger.balances["u1"])

	env = do(t, router, http.MethodPost, "/api/v1/credits/check", `{"repo_url":"https://github.com/acme/tool"}`, bearer(t, "u1"))
	require.Zero(t, env.Code)
	var check struct {
		RequiredUnits int   `json:"required_units"`
		Balance       int64 `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &check))
	require.Equal(t, 1, check.RequiredUnits)
	require.Equal(t, int64(25), check.Balance)
}

func TestCreditCheckRejectsBadURL(t *testing.T) {
	router, _ := setupRouter(t)
	env := do(t, router, http.MethodPost, "/api/v1/credits/check", `{"repo_url":"nope"}`, bearer(t, "u1"))
	require.Equal(t, errcode.ErrInvalidRepoURL, env.Code)
}

func TestJoinUnknownCode(t *testing.T) {
	router, _ := setupRouter(t)
	env := do(t, router, http.MethodPost, "/api/v1/join", `{"code":"424242"}`, bearer(t, "u1"))
	require.Equal(t, errcode.ErrInvalidCode, env.Code)
	require.Equal(t, "INVALID_CODE", env.Msg)
}

func TestCreateJoinCodeBody(t *testing.T) {
	router, _ := setupRouter(t)
	path := "/api/v1/projects/p1/join-codes"

	env := do(t, router, http.MethodPost, path, `{"ttl_hours":-1}`, bearer(t, "u1"))
	require.Equal(t, errcode.ErrInvalid, env.Code)
	env = do(t, router, http.MethodPost, path, `not json`, bearer(t, "u1"))
	require.Equal(t, errcode.ErrInvalid, env.Code)

	env = do(t, router, http.MethodPost, path, "", bearer(t, "u1"))
	require.Equal(t, errcode.ErrForbidden, env.Code)
	env = do(t, router, http.MethodPost, path, `{"ttl_hours":72}`, bearer(t, "u1"))
	require.Equal(t, errcode.ErrForbidden, env.Code)
}

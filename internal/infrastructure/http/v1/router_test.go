package v1_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "workdeck/internal/core/context"
	"workdeck/internal/core/id"
	"workdeck/internal/domain/cascade"
	"workdeck/internal/domain/graph"
	"workdeck/internal/domain/purge"
	"workdeck/internal/domain/record"
	"workdeck/internal/domain/rules"
	v1 "workdeck/internal/infrastructure/http/v1"
	"workdeck/internal/infrastructure/storage/memory"
	"workdeck/pkg/logger"
)

// stubValidator maps fixed tokens to actors, standing in for the JWT
// service.
type stubValidator struct {
	actors map[string]*appctx.Actor
}

func (v *stubValidator) ValidateToken(token string) (*appctx.Actor, error) {
	if a, ok := v.actors[token]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("unknown token")
}

type testEnv struct {
	store  *memory.Store
	router http.Handler
}

func newEnv(t *testing.T, tenantID id.ID) *testEnv {
	t.Helper()

	s := memory.NewStore()
	g := graph.MustNew()
	eng := cascade.NewEngine(s, g, rules.New(s, g, rules.DefaultConfig()))
	svc := cascade.NewService(memory.NewManager(s), eng, nil, nil)

	sw, err := purge.NewSweeper(memory.NewManager(s), s, g, nil)
	require.NoError(t, err)

	validator := &stubValidator{actors: map[string]*appctx.Actor{
		"admin-token":  {ID: id.New(), TenantID: tenantID, Email: "root@acme.test", Role: appctx.RoleAdmin},
		"member-token": {ID: id.New(), TenantID: tenantID, Email: "m@acme.test", Role: appctx.RoleMember},
	}}

	router := v1.NewRouter(v1.RouterConfig{
		Logger:         logger.Default(),
		TokenValidator: validator,
		Cascade:        svc,
		Scheduler:      purge.NewScheduler(sw, ""),
	})
	return &testEnv{store: s, router: router}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func seedTenantDept(t *testing.T, s *memory.Store) (*record.Tenant, *record.Department) {
	t.Helper()
	ctx := context.Background()

	tenant := record.NewTenant("acme")
	require.NoError(t, s.Tenants().Create(ctx, tenant))
	admin := record.NewPrincipal(tenant.ID, id.New(), "root@acme.test", "Root", "admin")
	require.NoError(t, s.Members().Create(ctx, admin))
	dept := record.NewDepartment(tenant.ID, admin.ID, "field ops")
	require.NoError(t, s.Departments().Create(ctx, dept))
	return tenant, dept
}

func TestDeleteAndRestoreRoundTrip(t *testing.T) {
	tenantID := id.New()
	env := newEnv(t, tenantID)
	_, dept := seedTenantDept(t, env.store)

	w := env.do(t, http.MethodPost, "/api/v1/records/department/"+dept.ID.String()+"/delete", "admin-token", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res cascade.DeleteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.DeletedCount)

	w = env.do(t, http.MethodPost, "/api/v1/records/department/"+dept.ID.String()+"/restore", "admin-token", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var restored cascade.RestoreResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &restored))
	assert.True(t, restored.Success)
	assert.Equal(t, 1, restored.RestoredCount)
}

func TestDeleteBlockedComesBackAs422(t *testing.T) {
	env := newEnv(t, id.New())
	tenant, _ := seedTenantDept(t, env.store)

	// Active tenants block deletion unless forced.
	w := env.do(t, http.MethodPost, "/api/v1/records/tenant/"+tenant.ID.String()+"/delete", "admin-token", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var res cascade.DeleteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Errors)

	// Force overrides the soft block.
	w = env.do(t, http.MethodPost, "/api/v1/records/tenant/"+tenant.ID.String()+"/delete", "admin-token", `{"force":true}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRecordsEndpointValidation(t *testing.T) {
	env := newEnv(t, id.New())
	rid := id.New().String()

	tests := []struct {
		name   string
		path   string
		token  string
		status int
		code   string
	}{
		{"unknown kind", "/api/v1/records/gizmo/" + rid + "/delete", "admin-token", http.StatusBadRequest, "UNKNOWN_KIND"},
		{"bad id", "/api/v1/records/notice/not-a-uuid/delete", "admin-token", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing record", "/api/v1/records/notice/" + rid + "/delete", "admin-token", http.StatusUnprocessableEntity, ""},
		{"no token", "/api/v1/records/notice/" + rid + "/delete", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"bad token", "/api/v1/records/notice/" + rid + "/delete", "nope", http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.token, "")
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				var body map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.code, body["code"])
			}
		})
	}
}

func TestSweeperEndpoints(t *testing.T) {
	env := newEnv(t, id.New())

	// Members cannot touch sweeper control.
	w := env.do(t, http.MethodGet, "/api/v1/sweeper", "member-token", "")
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/sweeper", "admin-token", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var status map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, false, status["running"])
	assert.Equal(t, purge.DefaultSchedule, status["schedule"])

	w = env.do(t, http.MethodPost, "/api/v1/sweeper/run", "admin-token", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sweep purge.SweepResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sweep))
	assert.Zero(t, sweep.TotalPurged)
}

func TestHealthLive(t *testing.T) {
	env := newEnv(t, id.New())
	w := env.do(t, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

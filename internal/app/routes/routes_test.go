package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"

	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/domain/services"
	"hoa-vote-service/internal/domain/services/container"
	"hoa-vote-service/internal/infrastructure/config"
	"hoa-vote-service/internal/infrastructure/database"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router    *gin.Engine
	container *container.ServiceContainer
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	pool, err := database.NewConnectionPoolWithDialector(sqlite.Open(":memory:"), logger.Silent)
	require.NoError(t, err)
	pool.MaxIdleConns, pool.MaxOpenConns = 1, 1
	require.NoError(t, pool.ConfigurePool())
	require.NoError(t, pool.GetDB().AutoMigrate(models.AllModels()...))

	cfg := &config.Config{
		JWTSecretKey:   "test-secret",
		JWTExpiresIn:   time.Hour,
		CORSOrigins:    []string{"http://localhost:5173"},
		AuditQueueSize: 16,
	}
	c := container.NewServiceContainer(pool, cfg, nil, zap.NewNop())
	t.Cleanup(func() {
		c.Close()
		_ = pool.Close()
	})

	_, err = c.GetService("user").(services.InterfaceUserService).EnsureSuperAdmin("admin123")
	require.NoError(t, err)

	return &testServer{router: SetupRouter(c), container: c}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

// createID 发起创建请求并返回新记录的ID
func (s *testServer) createID(t *testing.T, path, token string, body interface{}) uint {
	t.Helper()
	w, env := s.do(t, http.MethodPost, path, token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotZero(t, created.ID)
	return created.ID
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := s.login(t, "admin", "admin123")
	w, env := s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var me models.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "admin", me.Username)
	assert.Equal(t, models.RoleSuperAdmin, me.Role)
}

func TestSwaggerDocs(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "/api", doc.BasePath)
	for _, path := range []string{"/auth/login", "/owners/import", "/votes/unit-rooms", "/votes/progress", "/logs/stats"} {
		assert.Contains(t, doc.Paths, path)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/communities", "/api/owners", "/api/votes/progress", "/api/logs"} {
		w, _ := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w, _ := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCommunityAdminScope(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin123")

	own := s.createID(t, "/api/communities", admin, gin.H{"name": "阳光花园"})
	other := s.createID(t, "/api/communities", admin, gin.H{"name": "翠湖苑"})
	s.createID(t, "/api/auth/users", admin, gin.H{
		"username":     "manager",
		"password":     "secret1",
		"role":         models.RoleCommunityAdmin,
		"community_id": own,
	})

	manager := s.login(t, "manager", "secret1")

	w, _ := s.do(t, http.MethodGet, fmt.Sprintf("/api/communities/%d/phases", own), manager, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/communities/%d/phases", other), manager, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/communities/%d/phases", other), manager, gin.H{"name": "一期", "code": "P1"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 只有超级管理员能创建小区和查看日志
	w, _ = s.do(t, http.MethodPost, "/api/communities", manager, gin.H{"name": "新小区"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/logs", manager, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/communities", manager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var communities []models.Community
	require.NoError(t, json.Unmarshal(env.Data, &communities))
	require.Len(t, communities, 1)
	assert.Equal(t, own, communities[0].ID)
}

func TestVoteFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin123")

	communityID := s.createID(t, "/api/communities", admin, gin.H{"name": "阳光花园"})

	// 没有轮次时总览为空
	w, env := s.do(t, http.MethodGet, fmt.Sprintf("/api/votes/progress?community_id=%d", communityID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"round":null,"summary":{"total_rooms":0,"voted_count":0,"refused_count":0,"pending_count":0},"phases":[]}`, string(env.Data))

	phaseID := s.createID(t, fmt.Sprintf("/api/communities/%d/phases", communityID), admin, gin.H{"name": "一期", "code": "P1"})
	roundID := s.createID(t, "/api/votes/rounds", admin, gin.H{
		"community_id": communityID,
		"name":         "2025年业主大会",
		"round_code":   "25B",
		"status":       "active",
	})
	ownerID := s.createID(t, "/api/owners", admin, gin.H{"phase_id": phaseID, "room_number": "1-1-101", "owner_name": "张三", "area": 89.5})
	s.createID(t, "/api/owners", admin, gin.H{"phase_id": phaseID, "room_number": "1-1-1203", "owner_name": "李四", "area": 120})

	// 重复房间号
	w, _ = s.do(t, http.MethodPost, "/api/owners", admin, gin.H{"phase_id": phaseID, "room_number": "1-1-101"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/votes", admin, gin.H{"owner_id": ownerID, "round_id": roundID, "vote_status": "voted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = s.do(t, http.MethodPost, "/api/votes", admin, gin.H{"owner_id": ownerID, "round_id": roundID, "vote_status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/votes/stats?round_id=%d", roundID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats services.VoteStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(2), stats.TotalOwners)
	assert.Equal(t, int64(1), stats.Voted)
	assert.Equal(t, int64(1), stats.Pending)

	w, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/votes/unit-rooms?round_id=%d&phase_id=%d&building=1&unit=1", roundID, phaseID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var unit struct {
		Meta   services.VoteUnitMeta         `json:"meta"`
		Floors map[string][]json.RawMessage `json:"floors"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &unit))
	assert.Equal(t, 2, unit.Meta.TotalRooms)
	assert.Equal(t, 1, unit.Meta.VotedCount)
	assert.Len(t, unit.Floors["1"], 1)
	assert.Len(t, unit.Floors["12"], 1)

	// 不存在的单元返回空结构
	w, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/votes/unit-rooms?round_id=%d&phase_id=%d&building=9&unit=9", roundID, phaseID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"floors":{}`)

	w, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/votes/export?round_id=%d", roundID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "filename*=UTF-8''")
	assert.NotEmpty(t, w.Body.Bytes())

	w, _ = s.do(t, http.MethodPut, fmt.Sprintf("/api/votes/sweep/%d", ownerID), admin, gin.H{"round_id": roundID, "sweep_status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, env = s.do(t, http.MethodGet, fmt.Sprintf("/api/votes/sweep-overview?community_id=%d", communityID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"completed_count":1`)
}

func TestOperationLogsRecorded(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "admin123")
	s.createID(t, "/api/communities", admin, gin.H{"name": "阳光花园"})

	// 关闭容器以写完队列中的日志
	s.container.Close()

	w, env := s.do(t, http.MethodGet, "/api/logs?module=community", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64                 `json:"total"`
		List  []models.OperationLog `json:"list"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "create", page.List[0].Action)
	assert.Equal(t, "admin", page.List[0].Username)
}

func TestCorsConfig(t *testing.T) {
	c := corsConfig([]string{"http://a.example", "*"})
	assert.True(t, c.AllowAllOrigins)
	assert.False(t, c.AllowCredentials)
	assert.Empty(t, c.AllowOrigins)

	c = corsConfig([]string{"http://a.example"})
	assert.False(t, c.AllowAllOrigins)
	assert.True(t, c.AllowCredentials)
	assert.Equal(t, []string{"http://a.example"}, c.AllowOrigins)
}

package benchmark

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"

	"hoa-vote-service/internal/app/routes"
	"hoa-vote-service/internal/domain/models"
	"hoa-vote-service/internal/domain/services"
	"hoa-vote-service/internal/domain/services/container"
	"hoa-vote-service/internal/infrastructure/config"
	"hoa-vote-service/internal/infrastructure/database"
)

// TestConfig 压测配置；BaseURL 为空时在进程内启动一个 SQLite 服务
type TestConfig struct {
	BaseURL     string `json:"base_url"`
	AdminUser   string `json:"admin_user"`
	AdminPass   string `json:"admin_pass"`
	Concurrency int    `json:"concurrency"`
	Requests    int    `json:"requests"`
}

// target 压测使用的小区、分期与轮次
type target struct {
	CommunityID uint
	PhaseID     uint
	RoundID     uint
	Building    string
	Unit        string
}

var (
	cfg       TestConfig
	authToken string
	subject   target
)

// TestMain 测试主函数
func TestMain(m *testing.M) {
	if err := loadConfig(); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	var cleanup func()
	if cfg.BaseURL == "" {
		var err error
		cfg.BaseURL, cleanup, err = startLocalServer()
		if err != nil {
			fmt.Printf("启动本地服务失败: %v\n", err)
			os.Exit(1)
		}
	}

	code := func() int {
		if cleanup != nil {
			defer cleanup()
		}
		if err := prepare(); err != nil {
			fmt.Printf("准备压测数据失败: %v\n", err)
			return 1
		}
		return m.Run()
	}()
	os.Exit(code)
}

// loadConfig 加载测试配置，test_config.json 与 BENCH_BASE_URL 可覆盖默认值
func loadConfig() error {
	cfg = TestConfig{
		AdminUser:   "admin",
		AdminPass:   "admin123",
		Concurrency: 10,
		Requests:    100,
	}

	data, err := os.ReadFile("test_config.json")
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("解析配置文件失败: %v", err)
		}
	}
	if url := os.Getenv("BENCH_BASE_URL"); url != "" {
		cfg.BaseURL = url
	}
	return nil
}

// startLocalServer 在内存数据库上启动完整路由并写入一个小区的样例数据
func startLocalServer() (string, func(), error) {
	gin.SetMode(gin.TestMode)

	pool, err := database.NewConnectionPoolWithDialector(sqlite.Open(":memory:"), logger.Silent)
	if err != nil {
		return "", nil, err
	}
	pool.MaxIdleConns, pool.MaxOpenConns = 1, 1
	if err := pool.ConfigurePool(); err != nil {
		return "", nil, err
	}
	if err := pool.GetDB().AutoMigrate(models.AllModels()...); err != nil {
		return "", nil, err
	}

	appCfg := &config.Config{
		JWTSecretKey:   "benchmark-secret",
		JWTExpiresIn:   time.Hour,
		CORSOrigins:    []string{"*"},
		AuditQueueSize: 1024,
	}
	c := container.NewServiceContainer(pool, appCfg, nil, zap.NewNop())
	if _, err := c.GetService("user").(services.InterfaceUserService).EnsureSuperAdmin(cfg.AdminPass); err != nil {
		return "", nil, err
	}
	if err := seed(c); err != nil {
		return "", nil, err
	}

	srv := httptest.NewServer(routes.SetupRouter(c))
	cleanup := func() {
		srv.Close()
		c.Close()
		_ = pool.Close()
	}
	return srv.URL + "/api", cleanup, nil
}

// seed 3 栋 × 2 单元 × 18 层 × 每层 2 户，约一半已投票
func seed(c *container.ServiceContainer) error {
	communityService := c.GetService("community").(services.InterfaceCommunityService)
	ownerService := c.GetService("owner").(services.InterfaceOwnerService)
	roundService := c.GetService("vote_round").(services.InterfaceVoteRoundService)
	voteService := c.GetService("vote").(services.InterfaceVoteService)

	community := &models.Community{Name: "压测小区"}
	if err := communityService.CreateCommunity(community); err != nil {
		return err
	}
	phase := &models.Phase{CommunityID: community.ID, Name: "一期", Code: "P1"}
	if err := communityService.CreatePhase(phase); err != nil {
		return err
	}

	var voted []uint
	for b := 1; b <= 3; b++ {
		for u := 1; u <= 2; u++ {
			for floor := 1; floor <= 18; floor++ {
				for r := 1; r <= 2; r++ {
					owner := &models.Owner{
						PhaseID:    phase.ID,
						RoomNumber: fmt.Sprintf("%d-%d-%d%02d", b, u, floor, r),
						OwnerName:  fmt.Sprintf("业主%d%d%02d%d", b, u, floor, r),
						Area:       88.5,
					}
					if err := ownerService.CreateOwner(owner); err != nil {
						return err
					}
					if floor%2 == 0 {
						voted = append(voted, owner.ID)
					}
				}
			}
		}
	}

	round := &models.VoteRound{CommunityID: community.ID, Name: "压测轮次", RoundCode: "B1", Status: models.RoundStatusActive}
	if err := roundService.CreateRound(round); err != nil {
		return err
	}
	if _, err := voteService.InitVotes(round); err != nil {
		return err
	}
	_, err := voteService.BatchUpdateVotes(round, voted, models.VoteStatusVoted, nil, 1)
	return err
}

// prepare 登录并找到压测使用的小区、分期与当前轮次
func prepare() error {
	client := NewAPIBenchmark(cfg.BaseURL, 1, 1, "")
	token, err := client.Login(cfg.AdminUser, cfg.AdminPass)
	if err != nil {
		return err
	}
	authToken = token
	client.AuthToken = token

	var communities []models.Community
	if err := client.GetJSON("/communities", &communities); err != nil {
		return err
	}
	if len(communities) == 0 {
		return fmt.Errorf("没有可用的小区")
	}
	subject.CommunityID = communities[0].ID

	var phases []models.Phase
	if err := client.GetJSON(fmt.Sprintf("/communities/%d/phases", subject.CommunityID), &phases); err != nil {
		return err
	}
	if len(phases) == 0 {
		return fmt.Errorf("小区 %d 没有分期", subject.CommunityID)
	}
	subject.PhaseID = phases[0].ID

	var buildings []services.BuildingUnits
	if err := client.GetJSON(fmt.Sprintf("/owners/buildings/%d", subject.PhaseID), &buildings); err != nil {
		return err
	}
	if len(buildings) == 0 || len(buildings[0].Units) == 0 {
		return fmt.Errorf("分期 %d 没有业主", subject.PhaseID)
	}
	subject.Building, subject.Unit = buildings[0].Building, buildings[0].Units[0]

	var overview services.VoteOverview
	if err := client.GetJSON(fmt.Sprintf("/votes/progress?community_id=%d", subject.CommunityID), &overview); err != nil {
		return err
	}
	if overview.Round == nil {
		return fmt.Errorf("小区 %d 没有投票轮次", subject.CommunityID)
	}
	subject.RoundID = overview.Round.ID
	return nil
}

func runGET(t *testing.T, name, path string) {
	t.Helper()
	bench := NewAPIBenchmark(cfg.BaseURL, cfg.Concurrency, cfg.Requests, authToken)
	result := bench.RunGET(path)
	result.PrintResult(os.Stdout)

	assert.Equalf(t, 0, result.FailureCount, "%s接口测试失败: 成功率 %.2f%%", name, result.SuccessRate())
	require.Equal(t, cfg.Requests, result.SuccessCount+result.FailureCount)
}

// TestVoteProgress 投票总览接口
func TestVoteProgress(t *testing.T) {
	runGET(t, "投票总览", fmt.Sprintf("/votes/progress?community_id=%d&round_id=%d", subject.CommunityID, subject.RoundID))
}

// TestSweepOverview 扫楼总览接口
func TestSweepOverview(t *testing.T) {
	runGET(t, "扫楼总览", fmt.Sprintf("/votes/sweep-overview?community_id=%d&round_id=%d", subject.CommunityID, subject.RoundID))
}

// TestUnitRooms 单元楼层视图接口
func TestUnitRooms(t *testing.T) {
	runGET(t, "单元楼层", fmt.Sprintf("/votes/unit-rooms?round_id=%d&phase_id=%d&building=%s&unit=%s",
		subject.RoundID, subject.PhaseID, subject.Building, subject.Unit))
}

// TestVoteList 投票列表接口
func TestVoteList(t *testing.T) {
	runGET(t, "投票列表", fmt.Sprintf("/votes?round_id=%d&page_size=50", subject.RoundID))
}

// TestVoteStats 投票统计接口
func TestVoteStats(t *testing.T) {
	runGET(t, "投票统计", fmt.Sprintf("/votes/stats?round_id=%d", subject.RoundID))
}

// TestSweepUpdate 并发更新同一户的扫楼状态
func TestSweepUpdate(t *testing.T) {
	var page struct {
		List []services.VoteListItem `json:"list"`
	}
	client := NewAPIBenchmark(cfg.BaseURL, 1, 1, authToken)
	require.NoError(t, client.GetJSON(fmt.Sprintf("/votes?round_id=%d&page_size=1", subject.RoundID), &page))
	require.NotEmpty(t, page.List)

	bench := NewAPIBenchmark(cfg.BaseURL, cfg.Concurrency, cfg.Requests, authToken)
	result := bench.RunPUT(fmt.Sprintf("/votes/sweep/%d", page.List[0].OwnerID), map[string]interface{}{
		"round_id":     subject.RoundID,
		"sweep_status": "in_progress",
	})
	result.PrintResult(os.Stdout)
	assert.Equal(t, 0, result.FailureCount)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/physics-game/internal/config"
	"github.com/wfunc/physics-game/internal/game"
	"github.com/wfunc/physics-game/internal/llm"
	"github.com/wfunc/physics-game/internal/models"
	"github.com/wfunc/physics-game/internal/repository"
	"github.com/wfunc/physics-game/internal/service"
	"github.com/wfunc/physics-game/internal/utils"
	ws "github.com/wfunc/physics-game/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APITestSuite 路由层集成测试套件，走真实的服务和内存数据库
type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	repos  *repository.Manager
	router *Router
	engine *gin.Engine
}

// SetupTest 每个测试前初始化
func (suite *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.db = repository.SetupTestDB()
	suite.repos = repository.NewManager(suite.db)
	repository.SeedTestLevels(suite.T(), suite.db)
	repository.SeedTestStoreItems(suite.T(), suite.db)

	cfg := config.DefaultGameConfig()
	cfg.Reward.BonusItemChance = 0
	processor := game.NewProcessor(suite.repos, cfg)

	jwtManager := utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	services := service.NewServices(suite.repos, processor, jwtManager, zap.NewNop())

	// 上游不可达，问答接口应降级为兜底回答
	llmClient := llm.NewClient(config.LLMConfig{
		Endpoint:          "http://127.0.0.1:1",
		Model:             "gemini-2.5-flash",
		Timeout:           time.Second,
		RequestsPerMinute: 0,
	}, suite.repos.LLMQuery)

	hub := ws.NewHub(zap.NewNop())

	suite.router = NewRouter(suite.repos, services, processor, llmClient, hub, zap.NewNop())
	suite.engine = suite.router.GetEngine()
}

// TearDownTest 每个测试后清理
func (suite *APITestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

// do 发送一个JSON请求
func (suite *APITestSuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.engine.ServeHTTP(w, req)
	return w
}

// register 注册并返回访问令牌和用户ID
func (suite *APITestSuite) register(username string) (string, uint) {
	w := suite.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "password123",
		"confirm_password": "password123",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp service.AuthResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken, resp.User.ID
}

// 测试健康检查
func (suite *APITestSuite) TestHealthCheck() {
	w := suite.do(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "ok")
}

// 测试注册登录与鉴权
func (suite *APITestSuite) TestAuthFlow() {
	token, _ := suite.register("alice")
	suite.NotEmpty(token)

	// 密码错误
	w := suite.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"account":  "alice",
		"password": "wrong-password",
	})
	suite.Equal(http.StatusUnauthorized, w.Code)

	// 正确登录
	w = suite.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"account":  "alice",
		"password": "password123",
	})
	suite.Equal(http.StatusOK, w.Code)

	// 缺少令牌
	w = suite.do(http.MethodGet, "/api/v1/levels", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

// 测试玩家资料接口
func (suite *APITestSuite) TestProfile() {
	token, userID := suite.register("alice")

	w := suite.do(http.MethodGet, "/api/v1/auth/profile", token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var user models.User
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &user))
	suite.Equal(userID, user.ID)
	suite.Equal("alice", user.Username)
	suite.Equal(1, user.Level)
}

// 测试关卡浏览与解锁限制
func (suite *APITestSuite) TestLevelEndpoints() {
	token, _ := suite.register("alice")

	w := suite.do(http.MethodGet, "/api/v1/levels", token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var listResp struct {
		Data []service.LevelView `json:"data"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &listResp))
	suite.Require().Len(listResp.Data, 3)
	suite.True(listResp.Data[0].Unlocked)
	suite.False(listResp.Data[2].Unlocked)

	// 已解锁关卡能看到题面
	w = suite.do(http.MethodGet, "/api/v1/levels/1", token, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "How far does a ball fall")

	// 未解锁关卡被拒绝
	w = suite.do(http.MethodGet, "/api/v1/levels/3", token, nil)
	suite.Equal(http.StatusForbidden, w.Code)
}

// 测试完整的答题-购买-统计链路
func (suite *APITestSuite) TestGameplayFlow() {
	token, _ := suite.register("alice")

	// 答错
	w := suite.do(http.MethodPost, "/api/v1/levels/submit", token, gin.H{
		"level_id":   1,
		"answer":     "999",
		"time_taken": 30,
	})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"correct":false`)

	// 答对，快速通关: 50 * 1.4 = 70
	w = suite.do(http.MethodPost, "/api/v1/levels/submit", token, gin.H{
		"level_id":   1,
		"answer":     "20",
		"time_taken": 30,
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Contains(w.Body.String(), `"correct":true`)

	// 购买磁铁: 70 - 50 = 20
	w = suite.do(http.MethodPost, "/api/v1/shop/buy", token, gin.H{
		"item_id": "magnet",
	})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"changed":true`)

	// 每日签到: +5
	w = suite.do(http.MethodPost, "/api/v1/game/events", token, gin.H{
		"type": "daily_login",
	})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"changed":true`)

	// 统计汇总
	w = suite.do(http.MethodGet, "/api/v1/stats", token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var stats service.PlayerStats
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &stats))
	suite.Equal(2, stats.Level)
	suite.Equal(int64(25), stats.Coins)
	suite.Equal(1, stats.LoginStreak)
	suite.Equal(int64(1), stats.CorrectSubmissions)

	// 排行榜
	w = suite.do(http.MethodGet, "/api/v1/leaderboard", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "alice")
}

// 测试风控拦截只返回统一错误，不泄露触发规则
func (suite *APITestSuite) TestSuspiciousSubmitRejected() {
	token, _ := suite.register("alice")

	// 秒答正确答案触发风控
	w := suite.do(http.MethodPost, "/api/v1/levels/submit", token, gin.H{
		"level_id":   1,
		"answer":     "20",
		"time_taken": 0.5,
	})
	suite.Require().Equal(http.StatusForbidden, w.Code, w.Body.String())

	body := w.Body.String()
	suite.NotContains(body, "details")
	suite.NotContains(body, "too fast")
	suite.NotContains(body, "0.5")
}

// 测试事件上报只接受玩家可自证的类型
func (suite *APITestSuite) TestEventTypeRestricted() {
	token, _ := suite.register("alice")

	w := suite.do(http.MethodPost, "/api/v1/game/events", token, gin.H{
		"type":     "complete_level",
		"level_id": 1,
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

// 测试管理员权限控制
func (suite *APITestSuite) TestAdminPermission() {
	token, userID := suite.register("alice")

	// 普通玩家被拒绝
	w := suite.do(http.MethodPut, "/api/v1/admin/bonus", token, gin.H{"active": true})
	suite.Equal(http.StatusForbidden, w.Code)

	// 授予admin权限后放行
	ctx := context.Background()
	user, err := suite.repos.User.FindByID(ctx, userID)
	suite.Require().NoError(err)
	user.Permissions = models.StringList{models.PermAdmin}
	suite.Require().NoError(suite.repos.User.Update(ctx, user))

	w = suite.do(http.MethodPut, "/api/v1/admin/bonus", token, gin.H{"active": true})
	suite.Equal(http.StatusOK, w.Code)

	// 管理员代玩家注入事件
	w = suite.do(http.MethodPost, "/api/v1/admin/events", token, gin.H{
		"type":    "daily_login",
		"user_id": userID,
	})
	suite.Equal(http.StatusOK, w.Code)

	// 批量注入，单条失败不影响其余
	w = suite.do(http.MethodPost, "/api/v1/admin/events/bulk", token, gin.H{
		"events": []gin.H{
			{"type": "special_event", "user_id": userID, "event_key": "spring_festival"},
			{"type": "special_event"},
		},
	})
	suite.Require().Equal(http.StatusOK, w.Code)

	var bulk struct {
		Results []map[string]interface{} `json:"results"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &bulk))
	suite.Require().Len(bulk.Results, 2)
	suite.NotContains(bulk.Results[0], "error")
	suite.Contains(bulk.Results[1], "error")
}

// 测试辅导问答在上游不可用时降级
func (suite *APITestSuite) TestTutorFallback() {
	token, _ := suite.register("alice")

	w := suite.do(http.MethodPost, "/api/v1/tutor/ask", token, gin.H{
		"type":     "hint",
		"question": "How do I start?",
	})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"fallback":true`)
}

// 测试关卡提示接口携带题面上下文并遵守解锁限制
func (suite *APITestSuite) TestTutorHint() {
	token, _ := suite.register("alice")

	// 已解锁关卡，上游不可达时降级
	w := suite.do(http.MethodPost, "/api/v1/tutor/hint/1", token, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Contains(w.Body.String(), `"fallback":true`)

	// 未解锁关卡拒绝提示
	w = suite.do(http.MethodPost, "/api/v1/tutor/hint/3", token, nil)
	suite.Equal(http.StatusForbidden, w.Code)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

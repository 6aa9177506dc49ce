package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/physics-game/internal/models"
	"gorm.io/gorm"
)

// SubmissionRepositoryTestSuite 答题记录仓储测试套件
type SubmissionRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo SubmissionRepository
	ctx  context.Context
	user *models.User
}

// SetupTest 每个测试前初始化
func (suite *SubmissionRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.repo = NewSubmissionRepository(suite.db)
	suite.ctx = context.Background()
	suite.user = CreateTestUser(suite.T(), suite.db, "player")
}

// TearDownTest 每个测试后清理
func (suite *SubmissionRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

func (suite *SubmissionRepositoryTestSuite) createSubmission(levelID int, correct bool) *models.Submission {
	submission := &models.Submission{
		UserID:          suite.user.ID,
		LevelID:         levelID,
		RoundID:         uuid.New().String(),
		SubmittedAnswer: "42",
		IsCorrect:       correct,
		TimeTaken:       30,
		SubmittedAt:     time.Now(),
	}
	suite.NoError(suite.repo.Create(suite.ctx, submission))
	return submission
}

// 测试正确提交判定
func (suite *SubmissionRepositoryTestSuite) TestCorrectExists() {
	exists, err := suite.repo.CorrectExists(suite.ctx, suite.user.ID, 1)
	suite.NoError(err)
	suite.False(exists)

	// 错误提交不算
	suite.createSubmission(1, false)
	exists, err = suite.repo.CorrectExists(suite.ctx, suite.user.ID, 1)
	suite.NoError(err)
	suite.False(exists)

	suite.createSubmission(1, true)
	exists, err = suite.repo.CorrectExists(suite.ctx, suite.user.ID, 1)
	suite.NoError(err)
	suite.True(exists)

	// 其他关卡不受影响
	exists, err = suite.repo.CorrectExists(suite.ctx, suite.user.ID, 2)
	suite.NoError(err)
	suite.False(exists)
}

// 测试按用户和关卡查询
func (suite *SubmissionRepositoryTestSuite) TestListByUserAndLevel() {
	suite.createSubmission(1, false)
	suite.createSubmission(1, true)
	suite.createSubmission(2, true)

	submissions, err := suite.repo.ListByUserAndLevel(suite.ctx, suite.user.ID, 1)
	suite.NoError(err)
	suite.Len(submissions, 2)

	count, err := suite.repo.CountCorrectByUser(suite.ctx, suite.user.ID)
	suite.NoError(err)
	suite.Equal(int64(2), count)
}

// 测试分页查询
func (suite *SubmissionRepositoryTestSuite) TestListByUser() {
	for i := 1; i <= 5; i++ {
		suite.createSubmission(i, true)
	}

	pagination := NewPagination(1, 3)
	submissions, err := suite.repo.ListByUser(suite.ctx, suite.user.ID, pagination)
	suite.NoError(err)
	suite.Len(submissions, 3)
	suite.Equal(int64(5), pagination.Total)
}

func TestSubmissionRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(SubmissionRepositoryTestSuite))
}

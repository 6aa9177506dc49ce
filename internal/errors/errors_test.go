package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ErrorsTestSuite 错误包测试套件
type ErrorsTestSuite struct {
	suite.Suite
}

// 测试创建新错误
func (suite *ErrorsTestSuite) TestNew() {
	// 测试基本错误创建
	err := New(ErrInvalidParam)
	suite.NotNil(err)
	suite.Equal(ErrInvalidParam, err.Code)
	suite.Equal("无效的参数", err.Message)
	suite.Empty(err.Details)

	// 测试带详情的错误
	err = New(ErrLevelNotFound, "levelId=42")
	suite.NotNil(err)
	suite.Equal(ErrLevelNotFound, err.Code)
	suite.Equal("关卡不存在", err.Message)
	suite.Equal("levelId=42", err.Details)

	// 测试多个详情
	err = New(ErrDatabaseConnect, "连接失败", "主机: localhost", "端口: 3306")
	suite.Equal("连接失败; 主机: localhost; 端口: 3306", err.Details)
}

// 测试格式化错误创建
func (suite *ErrorsTestSuite) TestNewf() {
	err := Newf(ErrInvalidParam, "参数 %s 的值 %d 无效", "levelId", -1)
	suite.NotNil(err)
	suite.Equal(ErrInvalidParam, err.Code)
	suite.Equal("参数 levelId 的值 -1 无效", err.Details)
}

// 测试错误包装
func (suite *ErrorsTestSuite) TestWrap() {
	// 包装标准错误
	originalErr := errors.New("原始错误")
	wrappedErr := Wrap(originalErr, ErrDatabaseQuery)
	suite.NotNil(wrappedErr)
	suite.Equal(ErrDatabaseQuery, wrappedErr.Code)
	suite.Equal("原始错误", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)

	// 包装nil错误
	nilErr := Wrap(nil, ErrUnknown)
	suite.Nil(nilErr)

	// 包装已有的AppError，保留原始错误码
	appErr := New(ErrLevelLocked, "levelId=7")
	wrappedAppErr := Wrap(appErr, ErrInvalidParam, "额外信息")
	suite.Equal(ErrLevelLocked, wrappedAppErr.Code)
	suite.Contains(wrappedAppErr.Details, "额外信息")
}

// 测试错误码判断
func (suite *ErrorsTestSuite) TestIs() {
	err := New(ErrRateLimitExceeded)
	suite.True(Is(err, ErrRateLimitExceeded))
	suite.False(Is(err, ErrUnknown))
	suite.False(Is(nil, ErrUnknown))
	suite.False(Is(errors.New("plain"), ErrUnknown))
}

// 测试错误码获取
func (suite *ErrorsTestSuite) TestGetCode() {
	suite.Equal(ErrorCode(0), GetCode(nil))
	suite.Equal(ErrInsufficientFunds, GetCode(New(ErrInsufficientFunds)))
	suite.Equal(ErrUnknown, GetCode(errors.New("plain")))
}

// 测试HTTP状态码映射
func (suite *ErrorsTestSuite) TestHTTPStatus() {
	suite.Equal(400, New(ErrInvalidParam).HTTPStatus())
	suite.Equal(404, New(ErrLevelNotFound).HTTPStatus())
	suite.Equal(401, New(ErrTokenExpired).HTTPStatus())
	suite.Equal(403, New(ErrPermissionDenied).HTTPStatus())
	suite.Equal(429, New(ErrRateLimitExceeded).HTTPStatus())
	suite.Equal(500, New(ErrDatabaseQuery).HTTPStatus())
}

// 测试错误字符串
func (suite *ErrorsTestSuite) TestError() {
	err := New(ErrItemNotFound)
	suite.Equal("[2006] 商品不存在", err.Error())

	err = New(ErrItemNotFound, "itemId=magnet")
	suite.Equal("[2006] 商品不存在: itemId=magnet", err.Error())
}

func TestErrorsTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}

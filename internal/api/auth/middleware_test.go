package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	tokens "github.com/sampark/sampark/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type verifier struct {
	svc *tokens.TokenService
}

func (v verifier) VerifyToken(raw string) (*tokens.Claims, bool) {
	return v.svc.Verify(raw)
}

type MiddlewareTestSuite struct {
	suite.Suite
	router *gin.Engine
	tokens *tokens.TokenService
}

func TestMiddlewareTestSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareTestSuite))
}

func (s *MiddlewareTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	svc, err := tokens.NewTokenService("test-secret", time.Hour)
	s.Require().NoError(err)
	s.tokens = svc

	s.router = gin.New()
	authed := s.router.Group("/", RequireAuth(verifier{svc}))
	authed.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	authed.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

func (s *MiddlewareTestSuite) do(path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *MiddlewareTestSuite) TestMissingToken() {
	w := s.do("/me", "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.JSONEq(`{"error":"Unauthorized"}`, w.Body.String())
}

func (s *MiddlewareTestSuite) TestInvalidToken() {
	w := s.do("/me", "Bearer not-a-token")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *MiddlewareTestSuite) TestBearerAndRawToken() {
	token, err := s.tokens.Issue(7, false)
	s.Require().NoError(err)

	w := s.do("/me", "Bearer "+token)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"user_id":7}`, w.Body.String())

	w = s.do("/me", token)
	s.Equal(http.StatusOK, w.Code)
}

func (s *MiddlewareTestSuite) TestRequireAdmin() {
	user, err := s.tokens.Issue(7, false)
	s.Require().NoError(err)
	admin, err := s.tokens.Issue(1, true)
	s.Require().NoError(err)

	s.Equal(http.StatusUnauthorized, s.do("/admin", "Bearer "+user).Code)
	s.Equal(http.StatusNoContent, s.do("/admin", "Bearer "+admin).Code)
	s.Equal(http.StatusUnauthorized, s.do("/admin", "").Code)
}

func TestUserIDWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	require.NotNil(t, c)
	assert.Zero(t, UserID(c))
}

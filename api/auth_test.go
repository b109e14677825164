package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"carteira/config"
	"carteira/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func testConfig() *config.Config {
	gin.SetMode(gin.TestMode)
	return &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Projection: config.ProjectionConfig{
			DiscretionaryCategories: []string{"lazer", "desejos", "diversos"},
		},
	}
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

var userColumns = []string{"id", "username", "password_hash", "email", "monthly_fixed_income"}

func hashPassword(t *testing.T, password string) string {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func newAuthRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *middleware.JWTManager) {
	cfg := testConfig()
	db, mock := setupMockDB(t)
	jwt := middleware.NewJWTManager(&cfg.JWT)
	h := NewAuthHandler(cfg, db, jwt)

	router := gin.New()
	router.POST("/register", h.Register)
	router.POST("/login", h.Login)
	authed := router.Group("", setUserIDMiddleware(1))
	authed.GET("/profile", h.GetProfile)
	authed.PUT("/password", h.ChangePassword)
	authed.PUT("/income", h.UpdateIncome)
	authed.DELETE("/account", h.DeleteAccount)
	return router, mock, jwt
}

func TestAuthHandler_Register(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	// 用户名不存在
	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WithArgs("newuser").
		WillReturnRows(sqlmock.NewRows([]string{}))
	// 邮箱未被占用
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `usuario` WHERE \\(username = \\? OR email = \\?\\) AND id <> \\?").
		WithArgs("test@example.com", "test@example.com", 0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `usuario`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := doJSON(router, "POST", "/register", `{"username":"newuser","password":"password123","email":"test@example.com","monthly_fixed_income":"3000"}`)

	assert.Equal(t, 200, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, float64(200), resp["code"])
	assert.Equal(t, "注册成功", resp["message"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "newuser", data["username"])
	assert.NotContains(t, data, "password_hash")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Register_UsernameExists(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WithArgs("existinguser").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "existinguser", "hash", "", "0"))

	w := doJSON(router, "POST", "/register", `{"username":"existinguser","password":"password123"}`)

	assert.Equal(t, 409, w.Code)
	assert.Equal(t, "用户名已存在", decodeResponse(t, w)["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Register_InvalidInput(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	w := doJSON(router, "POST", "/register", `{"username":"ab","password":"123"}`)
	assert.Equal(t, 400, w.Code)

	w = doJSON(router, "POST", "/register", `{"username":"ana","password":"password123","monthly_fixed_income":"-1"}`)
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, decodeResponse(t, w)["message"], "monthly_fixed_income")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Login(t *testing.T) {
	router, mock, jwt := newAuthRouter(t)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WithArgs("ana").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(7, "ana", hashPassword(t, "password123"), "ana@example.com", "3000.00"))

	w := doJSON(router, "POST", "/login", `{"username":"ana","password":"password123"}`)

	require.Equal(t, 200, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	claims, err := jwt.ParseToken(data["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "ana", claims.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Login_ByEmail(t *testing.T) {
	router, mock, jwt := newAuthRouter(t)

	// 含 "@" 时只按邮箱查找，不会命中用户名
	mock.ExpectQuery("SELECT .* FROM `usuario` WHERE email = \\?").
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(7, "ana", hashPassword(t, "password123"), "ana@example.com", "0"))

	w := doJSON(router, "POST", "/login", `{"username":"ana@example.com","password":"password123"}`)

	require.Equal(t, 200, w.Code)
	claims, err := jwt.ParseToken(decodeResponse(t, w)["data"].(map[string]interface{})["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Login_UsernameIgnoresEmails(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	mock.ExpectQuery("SELECT .* FROM `usuario` WHERE username = \\?").
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(2, "bob", hashPassword(t, "password123"), "", "0"))

	w := doJSON(router, "POST", "/login", `{"username":"bob","password":"password123"}`)
	assert.Equal(t, 200, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(7, "ana", hashPassword(t, "password123"), "", "0"))

	w := doJSON(router, "POST", "/login", `{"username":"ana","password":"wrong"}`)
	assert.Equal(t, 401, w.Code)
	assert.Equal(t, "用户名或密码错误", decodeResponse(t, w)["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Login_UnknownUser(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WillReturnRows(sqlmock.NewRows(userColumns))

	w := doJSON(router, "POST", "/login", `{"username":"ghost","password":"password123"}`)
	assert.Equal(t, 401, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_GetProfile_NotFound(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(userColumns))

	w := doJSON(router, "GET", "/profile", "")
	assert.Equal(t, 404, w.Code)
	assert.Equal(t, "记录不存在", decodeResponse(t, w)["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "ana", hashPassword(t, "oldpassword"), "", "0"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `usuario` SET `password_hash`=").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := doJSON(router, "PUT", "/password", `{"old_password":"oldpassword","new_password":"newpassword"}`)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "密码修改成功", decodeResponse(t, w)["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_ChangePassword_WrongOld(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "ana", hashPassword(t, "oldpassword"), "", "0"))

	w := doJSON(router, "PUT", "/password", `{"old_password":"nope","new_password":"newpassword"}`)
	assert.Equal(t, 401, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_UpdateIncome(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "ana", "hash", "", "2000.00"))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `usuario`").
		WithArgs("ana@example.com", "ana@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `usuario` SET `email`=\\?,`monthly_fixed_income`=\\?,`updated_at`=\\? WHERE id = \\?").
		WithArgs("ana@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := doJSON(router, "PUT", "/income", `{"monthly_fixed_income":"3500.50","email":" ana@example.com "}`)
	require.Equal(t, 200, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "3500.5", data["monthly_fixed_income"])
	assert.Equal(t, "ana@example.com", data["email"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_UpdateIncome_InvalidEmail(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	// 其他用户的用户名不是合法邮箱
	w := doJSON(router, "PUT", "/income", `{"email":"bob"}`)
	assert.Equal(t, 400, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_UpdateIncome_EmailTaken(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "ana", "hash", "", "2000.00"))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `usuario`").
		WithArgs("bob@example.com", "bob@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	w := doJSON(router, "PUT", "/income", `{"email":"bob@example.com"}`)

	assert.Equal(t, 409, w.Code)
	assert.Contains(t, decodeResponse(t, w)["message"], "邮箱已被使用")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_UpdateIncome_ClearEmail(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "ana", "hash", "ana@example.com", "2000.00"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `usuario` SET `email`=\\?,`updated_at`=\\? WHERE id = \\?").
		WithArgs("", sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := doJSON(router, "PUT", "/income", `{"email":""}`)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "", decodeResponse(t, w)["data"].(map[string]interface{})["email"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WithArgs("carol").
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `usuario`").
		WithArgs("bob@example.com", "bob@example.com", 0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	w := doJSON(router, "POST", "/register", `{"username":"carol","password":"password123","email":"bob@example.com"}`)
	assert.Equal(t, 409, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Register_UsernameWithAt(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	w := doJSON(router, "POST", "/register", `{"username":"bob@example.com","password":"password123"}`)
	assert.Equal(t, 400, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_UpdateIncome_Empty(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	w := doJSON(router, "PUT", "/income", `{}`)
	assert.Equal(t, 400, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_DeleteAccount(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "ana", hashPassword(t, "password123"), "", "0"))
	mock.ExpectBegin()
	for _, table := range []string{"despesas", "compras_parceladas", "dividas", "metas", "rendas_extras"} {
		mock.ExpectExec("DELETE FROM `" + table + "`").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("DELETE FROM `usuario`").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := doJSON(router, "DELETE", "/account", `{"password":"password123"}`)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "账号已注销", decodeResponse(t, w)["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_DeleteAccount_WrongPassword(t *testing.T) {
	router, mock, _ := newAuthRouter(t)

	mock.ExpectQuery("SELECT .* FROM `usuario`").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(1, "ana", hashPassword(t, "password123"), "", "0"))

	w := doJSON(router, "DELETE", "/account", `{"password":"wrong"}`)
	assert.Equal(t, 401, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

package http

import (
	"net/http"
	"time"

	z "github.com/Oudwins/zog"
	"github.com/gin-gonic/gin"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

type RegisterAccountRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

var registerAccountSchema = z.Struct(z.Shape{
	"Username": z.String().Trim().Required(),
	"Password": z.String().Required(),
})

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

var loginSchema = z.Struct(z.Shape{
	"Username": z.String().Trim().Required(),
	"Password": z.String().Required(),
})

func accountResponse(account *models.Account) gin.H {
	return gin.H{
		"id":       account.ID,
		"username": account.Username,
		"email":    account.Email,
	}
}

func (rs *RestfulServer) RegisterAccount(c *gin.Context) {
	var req RegisterAccountRequest
	if !bindAndValidate(c, registerAccountSchema, &req) {
		return
	}

	account, err := rs.Iot.Account.Register(req.Username, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, accountResponse(account))
}

func (rs *RestfulServer) Login(c *gin.Context) {
	var req LoginRequest
	if !bindAndValidate(c, loginSchema, &req) {
		return
	}

	account, err := rs.Iot.Account.Login(req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	token, expiresAt, err := rs.IssueToken(account.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	response := accountResponse(account)
	response["token"] = token
	response["expires_at"] = expiresAt.UTC().Format(time.RFC3339)
	c.JSON(http.StatusOK, response)
}

func (rs *RestfulServer) Me(c *gin.Context) {
	account, err := rs.Iot.Account.GetAccount(currentAccountID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, accountResponse(account))
}

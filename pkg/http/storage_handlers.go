package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (rs *RestfulServer) GetStorage(c *gin.Context) {
	summary, err := rs.Iot.Storage.Summary(currentAccountID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (rs *RestfulServer) RecomputeStorage(c *gin.Context) {
	accountID := currentAccountID(c)
	profile, err := rs.Iot.Storage.GetProfile(accountID)
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := rs.Iot.Storage.Recompute(profile); err != nil {
		writeError(c, err)
		return
	}

	summary, err := rs.Iot.Storage.Summary(accountID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"candyshop/internal/domain"
	"candyshop/internal/service/user"
)

type userHandler struct {
	svc *user.Service
}

func (h userHandler) signup(c *gin.Context) {
	var in user.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}
	created, err := h.svc.Signup(c.Request.Context(), in)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (h userHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}
	u, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, User: u})
}

type otpRequest struct {
	UserID string `json:"userId"`
}

func (h userHandler) requestOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		respondError(c, http.StatusBadRequest, "userId is required")
		return
	}
	// The code is delivered out of band; the response only acknowledges.
	if _, err := h.svc.RequestOTP(c.Request.Context(), req.UserID); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}

type verifyRequest struct {
	Code string `json:"code"`
}

func (h userHandler) verifyOTP(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		respondError(c, http.StatusBadRequest, "code is required")
		return
	}
	if err := h.svc.VerifyOTP(c.Request.Context(), c.Param("id"), req.Code); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "verified"})
}

func (h userHandler) me(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h userHandler) list(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h userHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h userHandler) listAddresses(c *gin.Context) {
	addrs, err := h.svc.ListAddresses(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, addrs)
}

func (h userHandler) addAddress(c *gin.Context) {
	var a domain.Address
	if err := c.ShouldBindJSON(&a); err != nil {
		respondError(c, http.StatusBadRequest, "invalid body")
		return
	}
	a.UserID = c.GetString(ctxUserID)
	created, err := h.svc.AddAddress(c.Request.Context(), a)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h userHandler) deleteAddress(c *gin.Context) {
	if err := h.svc.DeleteAddress(c.Request.Context(), c.GetString(ctxUserID), c.Param("addressId")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

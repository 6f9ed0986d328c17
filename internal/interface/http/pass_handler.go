package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/astro-clock/internal/domain/access"
)

// checkoutSecretHeader carries the secret shared with the checkout backend.
const checkoutSecretHeader = "X-Checkout-Secret"

// IssuePass is called by the checkout backend once a charge settles. It
// answers with the reading pass the frontend presents as a Bearer token.
func (h *Handler) IssuePass(c *gin.Context) {
	if h.passes == nil {
		abortWithError(c, NewHTTPError(http.StatusNotFound, access.CodeIssuingDisabled, "reading pass issuing is disabled", nil))
		return
	}
	if err := h.passes.AuthorizeCheckout(c.GetHeader(checkoutSecretHeader)); err != nil {
		abortWithError(c, accessHTTPError(err))
		return
	}

	var req access.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, access.CodeInvalidInput, "invalid request body", err))
		return
	}
	issued, err := h.passes.Issue(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, accessHTTPError(err))
		return
	}
	h.logger.Info("reading pass handed to checkout", "charge_id", req.ChargeID, "request_id", requestIDFrom(c))

	c.JSON(http.StatusCreated, issued)
}

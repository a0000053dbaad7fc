package httpapi

import (
	"net/http"
	"strconv"

	"earnyard-ledger-go/internal/api"
	"earnyard-ledger-go/internal/auth"
	"earnyard-ledger-go/internal/marketplace"
	"earnyard-ledger-go/internal/models"
	"earnyard-ledger-go/internal/settings"
	"earnyard-ledger-go/internal/store"
	"earnyard-ledger-go/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type handlers struct {
	svc *api.Service
}

var statusByCode = map[string]int{
	models.CodeOK:                  http.StatusOK,
	models.CodeInsufficientFunds:   http.StatusUnprocessableEntity,
	models.CodeAccountFrozen:       http.StatusForbidden,
	models.CodeAccountBanned:       http.StatusUnauthorized,
	models.CodeInvalidAmount:       http.StatusBadRequest,
	models.CodeNotFound:            http.StatusNotFound,
	models.CodeDuplicateSubmission: http.StatusConflict,
	models.CodeBudgetTooLow:        http.StatusUnprocessableEntity,
	models.CodeUnauthorized:        http.StatusForbidden,
	models.CodeAlreadyFinalized:    http.StatusConflict,
	models.CodeInvalidRequest:      http.StatusBadRequest,
	models.CodeOfferInactive:       http.StatusConflict,
	models.CodeNotEngaged:          http.StatusConflict,
	models.CodeEmailTaken:          http.StatusConflict,
	models.CodeInvalidCredentials:  http.StatusUnauthorized,
	models.CodeMaintenance:         http.StatusServiceUnavailable,
	models.CodeInternal:            http.StatusInternalServerError,
}

func respond(c *gin.Context, res *models.Result) {
	status, ok := statusByCode[res.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, res)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, &models.Result{Code: models.CodeInvalidRequest, Error: err.Error()})
}

func (h *handlers) health(c *gin.Context) {
	if err := h.svc.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	ReferralCode string `json:"referral_code"`
}

func (h *handlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.Register(c.Request.Context(), auth.NewAccount{
		Name: req.Name, Email: req.Email, Password: req.Password, ReferralCode: req.ReferralCode,
	}))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.Login(c.Request.Context(), req.Email, req.Password))
}

func (h *handlers) leaderboard(c *gin.Context) {
	respond(c, h.svc.Leaderboard(c.Request.Context()))
}

func (h *handlers) settings(c *gin.Context) {
	respond(c, h.svc.GetSettings(c.Request.Context()))
}

func (h *handlers) session(c *gin.Context) {
	user := actor(c)
	respond(c, models.Ok(user.Id, user.WalletBalance, user))
}

type profileRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	Country     string `json:"country"`
}

func (h *handlers) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.UpdateProfile(c.Request.Context(), actor(c), auth.ProfileUpdate(req)))
}

func (h *handlers) activateCreator(c *gin.Context) {
	respond(c, h.svc.ActivateCreator(c.Request.Context(), actor(c)))
}

func (h *handlers) wallet(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	respond(c, h.svc.GetWallet(c.Request.Context(), actor(c), limit, offset))
}

func (h *handlers) referrals(c *gin.Context) {
	respond(c, h.svc.GetReferralStats(c.Request.Context(), actor(c)))
}

type depositRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

func (h *handlers) submitDeposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.SubmitDeposit(c.Request.Context(), actor(c), req.Amount, req.Reference))
}

type withdrawalRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Address     string          `json:"address"`
	AccountName string          `json:"account_name"`
}

func (h *handlers) submitWithdrawal(c *gin.Context) {
	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.SubmitWithdrawal(c.Request.Context(), actor(c), workflow.WithdrawalInput{
		Amount:      req.Amount,
		Method:      models.WithdrawalMethod(req.Method),
		Address:     req.Address,
		AccountName: req.AccountName,
	}))
}

type premiumRequest struct {
	PlanTier  string `json:"plan_tier"`
	Reference string `json:"reference"`
}

func (h *handlers) upgradePremium(c *gin.Context) {
	var req premiumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.UpgradePremium(c.Request.Context(), actor(c), req.PlanTier, req.Reference))
}

func (h *handlers) listRequests(c *gin.Context) {
	respond(c, h.svc.ListRequests(c.Request.Context(), actor(c), store.RequestFilter{
		UserId: c.Query("user_id"),
		Type:   models.RequestType(c.Query("type")),
		Status: models.RequestStatus(c.Query("status")),
	}))
}

func (h *handlers) getRequest(c *gin.Context) {
	respond(c, h.svc.GetRequest(c.Request.Context(), actor(c), c.Param("id")))
}

type messageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *handlers) postMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.PostRequestMessage(c.Request.Context(), actor(c), c.Param("id"), req.Text))
}

func (h *handlers) listOffers(c *gin.Context) {
	respond(c, h.svc.ListOffers(c.Request.Context(), actor(c), c.Query("mine") == "true"))
}

type offerRequest struct {
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Link              string          `json:"link"`
	Reward            decimal.Decimal `json:"reward"`
	MaxParticipations int             `json:"max_participations"`
}

func (h *handlers) createOffer(c *gin.Context) {
	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.CreateOffer(c.Request.Context(), actor(c), marketplace.OfferInput(req)))
}

func (h *handlers) engage(c *gin.Context) {
	respond(c, h.svc.EngageTask(c.Request.Context(), actor(c), c.Param("id")))
}

type proofRequest struct {
	Proof string `json:"proof" binding:"required"`
}

func (h *handlers) submitProof(c *gin.Context) {
	var req proofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.SubmitProof(c.Request.Context(), actor(c), c.Param("id"), req.Proof))
}

func (h *handlers) mySubmissions(c *gin.Context) {
	respond(c, h.svc.MySubmissions(c.Request.Context(), actor(c)))
}

func (h *handlers) reviewQueue(c *gin.Context) {
	respond(c, h.svc.ReviewQueue(c.Request.Context(), actor(c)))
}

type reviewRequest struct {
	Approve bool `json:"approve"`
}

func (h *handlers) review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.ReviewSubmission(c.Request.Context(), actor(c), c.Param("id"), req.Approve))
}

type ticketRequest struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

func (h *handlers) openTicket(c *gin.Context) {
	var req ticketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.OpenTicket(c.Request.Context(), actor(c), req.Subject, req.Content))
}

func (h *handlers) listTickets(c *gin.Context) {
	respond(c, h.svc.ListTickets(c.Request.Context(), actor(c)))
}

type guidanceRequest struct {
	Query string `json:"query" binding:"required"`
}

func (h *handlers) guidance(c *gin.Context) {
	var req guidanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.GetGuidance(c.Request.Context(), actor(c), req.Query))
}

func (h *handlers) adminStats(c *gin.Context) {
	respond(c, h.svc.AdminStats(c.Request.Context(), actor(c)))
}

func (h *handlers) listUsers(c *gin.Context) {
	respond(c, h.svc.ListUsers(c.Request.Context(), actor(c)))
}

func (h *handlers) freeze(c *gin.Context) {
	respond(c, h.svc.FreezeUser(c.Request.Context(), actor(c), c.Param("id")))
}

func (h *handlers) ban(c *gin.Context) {
	respond(c, h.svc.BanUser(c.Request.Context(), actor(c), c.Param("id")))
}

type creditRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *handlers) credit(c *gin.Context) {
	var req creditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.CreditUser(c.Request.Context(), actor(c), c.Param("id"), req.Amount))
}

func (h *handlers) approve(c *gin.Context) {
	respond(c, h.svc.ApproveRequest(c.Request.Context(), actor(c), c.Param("id")))
}

func (h *handlers) reject(c *gin.Context) {
	respond(c, h.svc.RejectRequest(c.Request.Context(), actor(c), c.Param("id")))
}

type ratesRequest struct {
	DailyInterestRate decimal.Decimal `json:"daily_interest_rate"`
	DepositRate       decimal.Decimal `json:"deposit_rate"`
	WithdrawalRate    decimal.Decimal `json:"withdrawal_rate"`
}

func (h *handlers) updateRates(c *gin.Context) {
	var req ratesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.UpdateRates(c.Request.Context(), actor(c), settings.Rates(req)))
}

func (h *handlers) toggleMaintenance(c *gin.Context) {
	respond(c, h.svc.ToggleMaintenance(c.Request.Context(), actor(c)))
}

type broadcastRequest struct {
	Text string `json:"text"`
}

func (h *handlers) broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.Broadcast(c.Request.Context(), actor(c), req.Text))
}

func (h *handlers) publishCampaign(c *gin.Context) {
	var req models.Campaign
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.PublishCampaign(c.Request.Context(), actor(c), req))
}

type respondTicketRequest struct {
	Reply string `json:"reply"`
}

func (h *handlers) respondTicket(c *gin.Context) {
	var req respondTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	respond(c, h.svc.RespondTicket(c.Request.Context(), actor(c), c.Param("id"), req.Reply))
}

package httpd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"ebook_checkout/internal/domain"
	"ebook_checkout/internal/repository"
	"ebook_checkout/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const currency = "TZS"

type Handler struct {
	uc       *usecase.PaymentUsecase
	validate *validator.Validate
}

func NewHandler(uc *usecase.PaymentUsecase) *Handler {
	v := validator.New()
	v.RegisterValidation("tzphone", func(fl validator.FieldLevel) bool {
		return domain.ValidPhone(fl.Field().String())
	})

	return &Handler{
		uc:       uc,
		validate: v,
	}
}

type RouteConfig struct {
	Sig         SigConfig
	CORSOrigins []string
}

func (h *Handler) Routes(cfg RouteConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Timestamp", "X-Signature"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Post("/pay", h.Pay)
	r.Post("/api/pay", h.Pay)

	r.Get("/check-payment/{reference}", h.CheckPayment)
	r.Get("/api/check-payment/{reference}", h.CheckPayment)
	r.Get("/api/check-payment", h.CheckPayment)

	r.With(SignatureMiddleware(cfg.Sig)).Post("/api/webhooks/zenopay", h.PaymentWebhook)

	r.Get("/api/v1/transactions", h.ListTransactions)
	r.Get("/api/v1/transactions/{reference}", h.GetTransaction)
	r.Get("/api/v1/healthz", h.Healthz)

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// POST /pay, POST /api/pay
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	var req PayReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResp{MessageBody: domain.MsgInvalidPhone})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResp{MessageBody: domain.MsgInvalidPhone})
		return
	}

	res, err := h.uc.Initiate(r.Context(), req.Phone)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PayResp{
		MessageTitle:     domain.MsgCheckPhoneTitle,
		MessageBody:      domain.MsgCheckPhoneBody,
		Status:           domain.MsgAwaitingConfirm,
		Reference:        res.Reference,
		PaymentInitiated: res.Accepted,
	})
}

func writeDomainError(w http.ResponseWriter, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		log.Error().Err(err).Msg("unexpected error")
		writeJSON(w, http.StatusInternalServerError, MessageResp{MessageBody: domain.MsgSystemError})
		return
	}

	code := http.StatusInternalServerError
	switch de.Code {
	case domain.CodeValidation, domain.CodeGatewayRejected, domain.CodeInvalidReference:
		code = http.StatusBadRequest
	case domain.CodeNotFound:
		code = http.StatusNotFound
	}
	writeJSON(w, code, MessageResp{MessageBody: de.Message})
}

// GET /check-payment/{reference}, GET /api/check-payment?order_id=
func (h *Handler) CheckPayment(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "reference")
	if ref == "" {
		ref = r.URL.Query().Get("order_id")
	}

	status := h.uc.CheckStatus(r.Context(), ref)
	writeJSON(w, statusHTTPCode(status), StatusResp{Status: string(status)})
}

func statusHTTPCode(s domain.CheckStatus) int {
	switch s {
	case domain.CheckInvalidReference:
		return http.StatusBadRequest
	case domain.CheckNotFound:
		return http.StatusNotFound
	case domain.CheckError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

// POST /api/webhooks/zenopay
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	status := domain.NormalizeWebhookStatus(req.PaymentStatus)
	tx, err := h.uc.Confirm(r.Context(), req.OrderID, status)
	if err != nil {
		var de *domain.Error
		switch {
		case errors.As(err, &de) && de.Code == domain.CodeNotFound:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "transaction not found"})
		case errors.Is(err, domain.ErrInvalidTransition):
			log.Warn().Str("reference", req.OrderID).Str("payment_status", req.PaymentStatus).Msg("conflicting webhook ignored")
			writeJSON(w, http.StatusConflict, map[string]string{"error": "transaction already settled"})
		default:
			log.Error().Err(err).Str("reference", req.OrderID).Msg("apply webhook")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, WebhookResp{Reference: tx.Reference, Status: string(tx.Status)})
}

// GET /api/v1/transactions?phone=&status=&limit=&offset=
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.TxFilter{
		Reference: q.Get("reference"),
		Phone:     q.Get("phone"),
	}
	if st := q.Get("status"); st != "" {
		filter.Status = domain.TxStatus(strings.ToUpper(st))
		if !filter.Status.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
	}

	limit := 50
	offset := 0
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	items, err := h.uc.List(r.Context(), filter, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("list transactions")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	out := make([]TxItem, 0, len(items))
	for _, t := range items {
		out = append(out, toTxItem(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/v1/transactions/{reference}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "reference")
	t, err := h.uc.Get(r.Context(), ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "transaction not found"})
			return
		}
		log.Error().Err(err).Str("reference", ref).Msg("get transaction")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, toTxItem(*t))
}

func toTxItem(t domain.Transaction) TxItem {
	return TxItem{
		Reference: t.Reference,
		Phone:     t.Phone,
		Amount:    t.Amount,
		Currency:  currency,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		SettledAt: t.SettledAt,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

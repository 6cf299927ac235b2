package handlers

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/expense-sheets/internal/api/flash"
	"github.com/dvloznov/expense-sheets/internal/api/middleware"
	"github.com/dvloznov/expense-sheets/internal/domain"
	"github.com/dvloznov/expense-sheets/internal/logger"
	"github.com/dvloznov/expense-sheets/internal/metrics"
	"github.com/dvloznov/expense-sheets/internal/retry"
	"github.com/dvloznov/expense-sheets/internal/sheets"
	"github.com/dvloznov/expense-sheets/internal/validation"
	"github.com/rs/zerolog"
)

// User-facing messages.
const (
	MsgSaved           = "Операция успешно сохранена в Google Sheets."
	MsgMissingPrefix   = "Заполните обязательные поля: "
	MsgSaveErrorPrefix = "Ошибка при сохранении: "
	MsgSaveUnavailable = "Google Sheets временно недоступен, операция не сохранена. Попробуйте ещё раз через минуту."
	MsgPageUnavailable = "Google Sheets временно недоступен. Попробуйте обновить страницу через минуту."
	msgBadForm         = "Не удалось прочитать форму."
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// formFields exposes the field labels to the templates.
type formFields struct {
	Date, CostCenter, CashFlow, ExpenseDate, Amount, Counterparty, Description string
}

var fields = formFields{
	Date:         domain.FieldDate,
	CostCenter:   domain.FieldCostCenter,
	CashFlow:     domain.FieldCashFlow,
	ExpenseDate:  domain.FieldExpenseDate,
	Amount:       domain.FieldAmount,
	Counterparty: domain.FieldCounterparty,
	Description:  domain.FieldDescription,
}

type indexPage struct {
	Fields   formFields
	Options  domain.DropdownOptions
	Today    string
	Messages []flash.Message
}

type errorPage struct {
	Message string
}

// FormHandler serves the expense form and accepts its submissions.
type FormHandler struct {
	gateway sheets.OperationsGateway
	flash   *flash.Store
	now     func() time.Time
	log     zerolog.Logger
}

// NewFormHandler creates a new form handler.
func NewFormHandler(gateway sheets.OperationsGateway, flashStore *flash.Store, log zerolog.Logger) *FormHandler {
	return &FormHandler{
		gateway: gateway,
		flash:   flashStore,
		now:     time.Now,
		log:     log,
	}
}

// Register wires the form routes into mux. Healthz is mounted separately by the
// caller so it can sit outside the rate limiter.
func (h *FormHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /submit", h.Submit)
}

// Index handles GET /
func (h *FormHandler) Index(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r)

	options, err := h.gateway.LoadDropdownOptions(r.Context())
	if err != nil {
		if errors.Is(err, retry.ErrTemporarilyUnavailable) {
			log.Warn().Err(err).Msg("Dropdown options unavailable")
			h.render(w, r, http.StatusServiceUnavailable, "error.html", errorPage{Message: MsgPageUnavailable})
			return
		}
		log.Error().Err(err).Msg("Failed to load dropdown options")
		h.render(w, r, http.StatusInternalServerError, "error.html", errorPage{Message: err.Error()})
		return
	}

	h.render(w, r, http.StatusOK, "index.html", indexPage{
		Fields:   fields,
		Options:  options,
		Today:    civil.DateOf(h.now()).String(),
		Messages: h.flash.Pop(w, r),
	})
}

// Submit handles POST /submit
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r)

	if err := r.ParseForm(); err != nil {
		log.Warn().Err(err).Msg("Failed to parse form")
		h.redirect(w, r, flash.Error(msgBadForm))
		return
	}

	values := make(map[string]string, len(domain.RequiredFields))
	for _, field := range domain.RequiredFields {
		values[field] = strings.TrimSpace(r.PostForm.Get(field))
	}

	if missing := validation.MissingFields(values); len(missing) > 0 {
		metrics.Submissions.WithLabelValues(metrics.SubmissionMissing).Inc()
		h.redirect(w, r, flash.Error(MsgMissingPrefix+strings.Join(missing, ", ")))
		return
	}

	op := domain.OperationFromValues(values)
	if err := validation.ValidateOperation(op); err != nil {
		metrics.Submissions.WithLabelValues(metrics.SubmissionInvalid).Inc()
		log.Debug().Err(err).Msg("Submission rejected by validation")
		h.redirect(w, r, flash.Error(err.Error()))
		return
	}

	if err := h.gateway.AppendOperation(r.Context(), op); err != nil {
		if errors.Is(err, retry.ErrTemporarilyUnavailable) {
			metrics.Submissions.WithLabelValues(metrics.SubmissionUnavailable).Inc()
			log.Warn().Err(err).Msg("Operation not saved, spreadsheet unavailable")
			h.redirect(w, r, flash.Error(MsgSaveUnavailable))
			return
		}
		metrics.Submissions.WithLabelValues(metrics.SubmissionError).Inc()
		log.Error().Err(err).Msg("Failed to append operation")
		h.redirect(w, r, flash.Error(MsgSaveErrorPrefix+err.Error()))
		return
	}

	metrics.Submissions.WithLabelValues(metrics.SubmissionSaved).Inc()
	h.redirect(w, r, flash.Success(MsgSaved))
}

// Healthz handles GET /healthz
func (h *FormHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLog returns the request-scoped logger set by the logging middleware.
func (h *FormHandler) requestLog(r *http.Request) zerolog.Logger {
	return logger.FromContext(r.Context(), h.log)
}

func (h *FormHandler) redirect(w http.ResponseWriter, r *http.Request, msg flash.Message) {
	if err := h.flash.Set(w, msg); err != nil {
		log := h.requestLog(r)
		log.Error().Err(err).Msg("Failed to set flash message")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *FormHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		log := h.requestLog(r)
		log.Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safarihub/booking-backend/internal/database"
	"github.com/safarihub/booking-backend/internal/models"
	"github.com/safarihub/booking-backend/pkg/events"
	"github.com/safarihub/booking-backend/pkg/paystack"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultGatewayTimeout = 15 * time.Second

// PaymentServiceConfig holds the gateway settings the orchestrator needs
type PaymentServiceConfig struct {
	WebhookSecret  string
	CallbackURL    string
	GatewayTimeout time.Duration
}

// ReconcileInput is a gateway verdict for one transaction reference
type ReconcileInput struct {
	Reference     string
	Status        models.GatewayStatus
	GatewayStatus string
	Amount        *decimal.Decimal
	Currency      string
	RawPayload    map[string]interface{}
	Source        models.PaymentEventSource
	Meta          models.RequestMeta
}

// ReconcileResult is the state after reconciliation
type ReconcileResult struct {
	Payment *models.Payment `json:"payment"`
	Booking *models.Booking `json:"booking"`
	Changed bool            `json:"changed"`
}

// PaymentService orchestrates payment initiation and reconciliation
type PaymentService struct {
	payments  PaymentStore
	bookings  BookingStore
	audits    AuditStore
	gateway   Gateway
	publisher events.Publisher
	logger    *logrus.Logger
	cfg       PaymentServiceConfig
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	payments PaymentStore,
	bookings BookingStore,
	audits AuditStore,
	gateway Gateway,
	publisher events.Publisher,
	cfg PaymentServiceConfig,
	logger *logrus.Logger,
) *PaymentService {
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = defaultGatewayTimeout
	}
	return &PaymentService{
		payments:  payments,
		bookings:  bookings,
		audits:    audits,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
	}
}

// NewReference builds a collision-resistant transaction reference for a booking
func NewReference(bookingID int64) string {
	return fmt.Sprintf("booking_%d_%s", bookingID, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// InitiatePayment records a pending payment and opens a checkout with the gateway
func (s *PaymentService) InitiatePayment(ctx context.Context, caller models.Identity, req models.InitiatePaymentRequest, meta models.RequestMeta) (*models.InitiatePaymentResponse, error) {
	if caller.Role != models.RoleTraveler {
		return nil, ForbiddenError("Only travelers can make payments")
	}
	if err := req.Validate(); err != nil {
		return nil, ValidationError(err.Error())
	}

	booking, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("Booking")
		}
		return nil, InternalError(err)
	}
	if !caller.IsTraveler(booking.TravelerID) {
		return nil, ForbiddenError("You can only pay for your own bookings")
	}
	if booking.Status.IsTerminal() {
		return nil, ConflictError(CodeBookingNotPayable, fmt.Sprintf("Booking is %s and cannot be paid", booking.Status))
	}

	paid, err := s.payments.HasCompleted(ctx, booking.ID)
	if err != nil {
		return nil, InternalError(err)
	}
	if paid {
		return nil, ConflictError(CodeAlreadyPaid, "Payment already completed for this booking")
	}

	payment := &models.Payment{
		BookingID:     booking.ID,
		Amount:        req.Amount.Round(2),
		Currency:      s.gateway.Currency(),
		PaymentMethod: models.PaymentMethodPaystack,
		Status:        models.PaymentStatusPending,
		TransactionID: NewReference(booking.ID),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, InternalError(err)
	}

	callbackURL := req.CallbackURL
	if callbackURL == "" {
		callbackURL = s.cfg.CallbackURL
	}
	gatewayReq := paystack.InitializeRequest{
		Email:       caller.Email,
		Amount:      payment.Amount,
		Reference:   payment.TransactionID,
		CallbackURL: callbackURL,
		Metadata: map[string]interface{}{
			"booking_id": booking.ID,
			"payment_id": payment.ID,
		},
	}

	s.audit(ctx, models.NewPaymentAudit(models.PaymentEventInitiateRequest, models.PaymentSourceBackend).
		ForPayment(payment).
		SetRequestPayload(map[string]interface{}{
			"amount":       payment.Amount.StringFixed(2),
			"currency":     payment.Currency,
			"reference":    payment.TransactionID,
			"callback_url": callbackURL,
		}).
		SetMeta(meta))

	start := time.Now()
	gatewayCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	result, err := s.gateway.Initialize(gatewayCtx, gatewayReq)
	cancel()

	if err != nil {
		// The caller may be gone; the failure still has to be recorded
		persistCtx := context.WithoutCancel(ctx)
		if markErr := s.payments.MarkFailed(persistCtx, payment.ID, models.FailureReasonGatewayError); markErr != nil {
			s.logger.WithError(markErr).WithField("payment_id", payment.ID).Error("Failed to mark payment failed after gateway error")
		}
		reason := models.FailureReasonGatewayError
		payment.Status = models.PaymentStatusFailed
		payment.FailureReason = &reason

		s.audit(persistCtx, models.NewPaymentAudit(models.PaymentEventFailed, models.PaymentSourceAPI).
			ForPayment(payment).
			SetError(err.Error()).
			SetProcessingTime(start).
			SetMeta(meta))

		s.logger.WithError(err).WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"booking_id": booking.ID,
			"reference":  payment.TransactionID,
		}).Error("Payment gateway initialization failed")

		publishEvent(persistCtx, s.publisher, s.logger, events.PaymentFailed, paymentEvent(payment))
		return nil, GatewayError(gatewayMessage(err), err)
	}

	if err := s.payments.AttachGatewayReference(ctx, payment.ID, result.Reference, result.AccessCode); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"payment_id":        payment.ID,
			"gateway_reference": result.Reference,
		}).Error("Failed to store gateway reference")
		return nil, InternalError(err)
	}
	payment.TransactionID = result.Reference
	accessCode := result.AccessCode
	payment.AccessCode = &accessCode

	s.audit(ctx, models.NewPaymentAudit(models.PaymentEventInitiateResponse, models.PaymentSourceAPI).
		ForPayment(payment).
		SetResponsePayload(result.RawPayload).
		SetProcessingTime(start).
		SetMeta(meta))

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"booking_id": booking.ID,
		"reference":  payment.TransactionID,
		"amount":     payment.Amount.StringFixed(2),
	}).Info("Payment initiated")

	publishEvent(ctx, s.publisher, s.logger, events.PaymentInitiated, paymentEvent(payment))

	return &models.InitiatePaymentResponse{
		Payment:          payment,
		AuthorizationURL: result.AuthorizationURL,
		Reference:        result.Reference,
		AccessCode:       result.AccessCode,
	}, nil
}

// reconcileOutcome is what the decision table chose for one locked payment
type reconcileOutcome struct {
	event            models.PaymentEventType
	changed          bool
	duplicate        bool
	bookingConfirmed bool
	amountsChecked   bool
	amountsMatch     bool
}

// decideReconcile applies a gateway verdict to a locked payment and booking.
// It mutates lock in place and returns a *Error when the verdict must be refused.
func decideReconcile(lock *database.PaymentLock, in ReconcileInput) (reconcileOutcome, error) {
	p, b := &lock.Payment, &lock.Booking
	var out reconcileOutcome

	if p.Status.IsTerminal() {
		out.event = models.PaymentEventDuplicate
		out.duplicate = true
		return out, nil
	}

	switch in.Status {
	case models.GatewayStatusSuccess:
		if in.Amount != nil {
			out.amountsChecked = true
			out.amountsMatch = in.Amount.Equal(p.Amount) &&
				(in.Currency == "" || strings.EqualFold(in.Currency, p.Currency))
			if !out.amountsMatch {
				reason := models.FailureReasonAmountMismatch
				p.Status = models.PaymentStatusFailed
				p.FailureReason = &reason
				out.event = models.PaymentEventReconciliationMismatch
				out.changed = true
				return out, nil
			}
		}
		if lock.OtherCompleted {
			out.event = models.PaymentEventReconciliationMismatch
			return out, ConflictError(CodeAlreadyPaid, "Booking already has a completed payment")
		}
		p.Status = models.PaymentStatusCompleted
		p.FailureReason = nil
		if b.Status == models.BookingStatusPending {
			b.Status = models.BookingStatusConfirmed
			out.bookingConfirmed = true
		}
		out.event = models.PaymentEventSuccess
		out.changed = true

	case models.GatewayStatusFailure:
		reason := models.FailureReasonGatewayDeclined
		p.Status = models.PaymentStatusFailed
		p.FailureReason = &reason
		out.event = models.PaymentEventFailed
		out.changed = true

	case models.GatewayStatusProcessing:
		out.event = models.PaymentEventProcessing
		if p.Status == models.PaymentStatusPending {
			p.Status = models.PaymentStatusProcessing
			out.changed = true
		}

	default:
		return out, ValidationError(fmt.Sprintf("unknown gateway status %q", in.Status))
	}
	return out, nil
}

// Reconcile applies a gateway verdict to the payment with the reference. It is
// the only path from gateway outcomes to local state and is idempotent.
func (s *PaymentService) Reconcile(ctx context.Context, in ReconcileInput) (*ReconcileResult, error) {
	if strings.TrimSpace(in.Reference) == "" {
		return nil, ValidationError("reference is required")
	}

	var (
		outcome  reconcileOutcome
		snapshot models.Payment
	)
	lock, err := s.payments.UpdateLockedByReference(ctx, in.Reference, func(l *database.PaymentLock) error {
		snapshot = l.Payment
		var decideErr error
		outcome, decideErr = decideReconcile(l, in)
		return decideErr
	})
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			s.audit(ctx, models.NewPaymentAudit(models.PaymentEventError, in.Source).
				SetReference(in.Reference).
				SetGatewayStatus(string(in.Status)).
				SetResponsePayload(in.RawPayload).
				SetError("unknown transaction reference").
				SetMeta(in.Meta))
			return nil, NotFoundError("Payment")
		case errors.Is(err, database.ErrDuplicate):
			outcome.event = models.PaymentEventReconciliationMismatch
			err = ConflictError(CodeAlreadyPaid, "Booking already has a completed payment")
		}
		if IsKind(err, KindConflict) {
			audit := models.NewPaymentAudit(outcome.event, in.Source).
				ForPayment(&snapshot).
				SetGatewayStatus(string(in.Status)).
				SetResponsePayload(in.RawPayload).
				SetError(err.Error()).
				MarkAsDuplicate().
				SetMeta(in.Meta)
			s.audit(ctx, audit)
			s.logger.WithFields(logrus.Fields{
				"reference":  in.Reference,
				"booking_id": snapshot.BookingID,
				"source":     in.Source,
			}).Warn("Refused second completed payment for booking")
		}
		return nil, AsError(err)
	}

	audit := models.NewPaymentAudit(outcome.event, in.Source).
		ForPayment(&lock.Payment).
		SetGatewayStatus(gatewayStatusLabel(in)).
		SetResponsePayload(in.RawPayload).
		SetMeta(in.Meta)
	if outcome.amountsChecked && in.Amount != nil {
		audit.SetAmounts(snapshot.Amount, *in.Amount, in.Currency)
	}
	if outcome.duplicate {
		audit.MarkAsDuplicate()
	}
	s.audit(ctx, audit)

	fields := logrus.Fields{
		"payment_id": lock.Payment.ID,
		"booking_id": lock.Booking.ID,
		"reference":  in.Reference,
		"from":       snapshot.Status,
		"to":         lock.Payment.Status,
		"gateway":    in.Status,
		"source":     in.Source,
	}
	switch {
	case outcome.duplicate:
		s.logger.WithFields(fields).Info("Gateway result for settled payment ignored")
	case outcome.event == models.PaymentEventReconciliationMismatch:
		s.logger.WithFields(fields).Warn("Payment amount mismatch, payment failed")
	case outcome.changed:
		s.logger.WithFields(fields).Info("Payment reconciled")
	}

	if outcome.bookingConfirmed {
		s.audit(ctx, models.NewPaymentAudit(models.PaymentEventBookingConfirmed, in.Source).
			ForPayment(&lock.Payment).
			SetMeta(in.Meta))
		publishEvent(ctx, s.publisher, s.logger, events.BookingStatusChanged,
			bookingEvent(&lock.Booking, models.BookingStatusPending))
	}
	if outcome.changed {
		switch lock.Payment.Status {
		case models.PaymentStatusCompleted:
			publishEvent(ctx, s.publisher, s.logger, events.PaymentCompleted, paymentEvent(&lock.Payment))
		case models.PaymentStatusFailed:
			publishEvent(ctx, s.publisher, s.logger, events.PaymentFailed, paymentEvent(&lock.Payment))
		}
	}

	return &ReconcileResult{
		Payment: &lock.Payment,
		Booking: &lock.Booking,
		Changed: outcome.changed,
	}, nil
}

// VerifyWebhookSignature checks the gateway signature over the raw body
func (s *PaymentService) VerifyWebhookSignature(rawBody []byte, signature string) error {
	if err := paystack.VerifySignature(rawBody, signature, s.cfg.WebhookSecret); err != nil {
		return &Error{Kind: KindAuth, Code: CodeInvalidSignature, Message: "Invalid webhook signature", Err: err}
	}
	return nil
}

// HandleWebhook authenticates a gateway notification and reconciles charge events.
// A nil result with nil error means the event was acknowledged and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, rawBody []byte, signature string, meta models.RequestMeta) (*ReconcileResult, error) {
	if err := s.VerifyWebhookSignature(rawBody, signature); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"security_event": true,
			"ip":             meta.IPAddress,
			"user_agent":     meta.UserAgent,
			"request_id":     meta.RequestID,
		}).Warn("Rejected payment webhook with invalid signature")
		s.audit(ctx, models.NewPaymentAudit(models.PaymentEventInvalidSignature, models.PaymentSourceWebhook).
			SetError(err.Error()).
			SetMeta(meta))
		return nil, err
	}

	event, err := paystack.ParseEvent(rawBody)
	if err != nil {
		return nil, ValidationError(err.Error())
	}

	s.audit(ctx, models.NewPaymentAudit(models.PaymentEventWebhookReceived, models.PaymentSourceWebhook).
		SetReference(event.Data.Reference).
		SetGatewayStatus(event.Event).
		SetRawBody(rawBody).
		SetMeta(meta))

	if !event.IsCharge() {
		s.logger.WithField("event", event.Event).Info("Ignoring non-charge webhook event")
		return nil, nil
	}
	if event.Data.Reference == "" {
		return nil, ValidationError("webhook event has no reference")
	}

	amount := event.Amount()
	input := ReconcileInput{
		Reference:     event.Data.Reference,
		Status:        fromGatewayStatus(event.Status()),
		GatewayStatus: event.Event,
		Currency:      event.Data.Currency,
		RawPayload:    event.Raw,
		Source:        models.PaymentSourceWebhook,
		Meta:          meta,
	}
	if event.Data.Amount > 0 {
		input.Amount = &amount
	}
	return s.Reconcile(ctx, input)
}

// VerifyPayment asks the gateway for the current state of a transaction and reconciles it
func (s *PaymentService) VerifyPayment(ctx context.Context, reference string, meta models.RequestMeta) (*models.VerifyPaymentResponse, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, ValidationError("reference is required")
	}

	payment, err := s.payments.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("Payment")
		}
		return nil, InternalError(err)
	}
	if payment.Status.IsTerminal() {
		return &models.VerifyPaymentResponse{Payment: payment, Status: payment.Status}, nil
	}

	s.audit(ctx, models.NewPaymentAudit(models.PaymentEventVerifyRequest, models.PaymentSourceUser).
		ForPayment(payment).
		SetMeta(meta))

	start := time.Now()
	gatewayCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	result, err := s.gateway.Verify(gatewayCtx, reference)
	cancel()
	if err != nil {
		s.audit(ctx, models.NewPaymentAudit(models.PaymentEventError, models.PaymentSourceAPI).
			ForPayment(payment).
			SetError(err.Error()).
			SetProcessingTime(start).
			SetMeta(meta))
		return nil, GatewayError(gatewayMessage(err), err)
	}

	s.audit(ctx, models.NewPaymentAudit(models.PaymentEventVerifyResponse, models.PaymentSourceAPI).
		ForPayment(payment).
		SetGatewayStatus(result.GatewayStatus).
		SetResponsePayload(result.RawPayload).
		SetProcessingTime(start).
		SetMeta(meta))

	amount := result.Amount
	reconciled, err := s.Reconcile(ctx, ReconcileInput{
		Reference:     reference,
		Status:        fromGatewayStatus(result.Status),
		GatewayStatus: result.GatewayStatus,
		Amount:        &amount,
		Currency:      result.Currency,
		RawPayload:    result.RawPayload,
		Source:        models.PaymentSourceAPI,
		Meta:          meta,
	})
	if err != nil {
		return nil, err
	}

	return &models.VerifyPaymentResponse{
		Payment: reconciled.Payment,
		Status:  reconciled.Payment.Status,
		Changed: reconciled.Changed,
	}, nil
}

// GetPayment returns one payment if the caller is a party to its booking or an admin
func (s *PaymentService) GetPayment(ctx context.Context, caller models.Identity, id int64) (*models.PaymentDetail, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("Payment")
		}
		return nil, InternalError(err)
	}
	if !caller.IsAdmin() && !caller.IsTraveler(payment.TravelerID) && !caller.IsGuide(payment.GuideID) {
		return nil, ForbiddenError("You do not have access to this payment")
	}
	return payment, nil
}

// ListPayments returns the payments visible to the caller
func (s *PaymentService) ListPayments(ctx context.Context, caller models.Identity, filter models.PaymentFilter) (*models.PaymentPage, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, ValidationError(fmt.Sprintf("invalid status %q", filter.Status))
	}

	filter.TravelerID, filter.GuideID = nil, nil
	switch caller.Role {
	case models.RoleTraveler:
		filter.TravelerID = &caller.ProfileID
	case models.RoleGuide:
		filter.GuideID = &caller.ProfileID
	case models.RoleAdmin:
	default:
		return nil, ForbiddenError("Unknown role")
	}

	payments, total, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, InternalError(err)
	}
	return &models.PaymentPage{
		Payments:   payments,
		Pagination: models.NewPageInfo(filter.Page, total),
	}, nil
}

// RefundPayment marks a completed payment refunded and cancels its confirmed booking
func (s *PaymentService) RefundPayment(ctx context.Context, caller models.Identity, id int64, meta models.RequestMeta) (*ReconcileResult, error) {
	if !caller.IsAdmin() {
		return nil, ForbiddenError("Only admins can refund payments")
	}

	var previousBooking models.BookingStatus
	lock, err := s.payments.UpdateLockedByID(ctx, id, func(l *database.PaymentLock) error {
		if l.Payment.Status != models.PaymentStatusCompleted {
			return ConflictError(CodeNotRefundable, fmt.Sprintf("Only completed payments can be refunded, payment is %s", l.Payment.Status))
		}
		l.Payment.Status = models.PaymentStatusRefunded
		previousBooking = l.Booking.Status
		if l.Booking.Status == models.BookingStatusConfirmed {
			l.Booking.Status = models.BookingStatusCancelled
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("Payment")
		}
		return nil, AsError(err)
	}

	s.audit(ctx, models.NewPaymentAudit(models.PaymentEventRefunded, models.PaymentSourceUser).
		ForPayment(&lock.Payment).
		SetRequestPayload(map[string]interface{}{"refunded_by": caller.UserID}).
		SetMeta(meta))

	s.logger.WithFields(logrus.Fields{
		"payment_id": lock.Payment.ID,
		"booking_id": lock.Booking.ID,
		"admin_id":   caller.UserID,
	}).Info("Payment refunded")

	publishEvent(ctx, s.publisher, s.logger, events.PaymentRefunded, paymentEvent(&lock.Payment))
	if lock.Booking.Status != previousBooking {
		publishEvent(ctx, s.publisher, s.logger, events.BookingStatusChanged, bookingEvent(&lock.Booking, previousBooking))
	}

	return &ReconcileResult{Payment: &lock.Payment, Booking: &lock.Booking, Changed: true}, nil
}

// ListAudits returns the audit trail of a payment
func (s *PaymentService) ListAudits(ctx context.Context, paymentID int64) ([]models.PaymentAudit, error) {
	if _, err := s.payments.GetByID(ctx, paymentID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, NotFoundError("Payment")
		}
		return nil, InternalError(err)
	}
	audits, err := s.audits.ListByPayment(ctx, paymentID)
	if err != nil {
		return nil, InternalError(err)
	}
	return audits, nil
}

// ExpireStale settles open payments older than ttl: each is verified with the
// gateway and reconciled, or failed as expired when the gateway does not know
// it or reports it abandoned. Returns how many payments were settled.
func (s *PaymentService) ExpireStale(ctx context.Context, ttl time.Duration, batchSize int) (int, error) {
	stale, err := s.payments.ListStale(ctx, time.Now().Add(-ttl), batchSize)
	if err != nil {
		return 0, err
	}

	settled := 0
	for i := range stale {
		payment := &stale[i]
		ok, err := s.settleStale(ctx, payment)
		if err != nil {
			s.logger.WithError(err).WithField("payment_id", payment.ID).Warn("Failed to settle stale payment")
			continue
		}
		if ok {
			settled++
		}
	}
	return settled, nil
}

func (s *PaymentService) settleStale(ctx context.Context, payment *models.Payment) (bool, error) {
	gatewayCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	result, err := s.gateway.Verify(gatewayCtx, payment.TransactionID)
	cancel()

	switch {
	case err != nil && paystack.IsNotFound(err):
		return s.expire(ctx, payment.ID)
	case err != nil:
		return false, err
	case strings.EqualFold(result.GatewayStatus, "abandoned"):
		return s.expire(ctx, payment.ID)
	case result.Status == paystack.StatusProcessing:
		return false, nil
	}

	amount := result.Amount
	reconciled, err := s.Reconcile(ctx, ReconcileInput{
		Reference:     payment.TransactionID,
		Status:        fromGatewayStatus(result.Status),
		GatewayStatus: result.GatewayStatus,
		Amount:        &amount,
		Currency:      result.Currency,
		RawPayload:    result.RawPayload,
		Source:        models.PaymentSourceSystem,
	})
	if err != nil {
		return false, err
	}
	return reconciled.Changed, nil
}

func (s *PaymentService) expire(ctx context.Context, id int64) (bool, error) {
	expired := false
	lock, err := s.payments.UpdateLockedByID(ctx, id, func(l *database.PaymentLock) error {
		if !l.Payment.Status.IsOpen() {
			return nil
		}
		reason := models.FailureReasonExpired
		l.Payment.Status = models.PaymentStatusFailed
		l.Payment.FailureReason = &reason
		expired = true
		return nil
	})
	if err != nil || !expired {
		return false, err
	}

	s.audit(ctx, models.NewPaymentAudit(models.PaymentEventExpired, models.PaymentSourceSystem).
		ForPayment(&lock.Payment))
	s.logger.WithFields(logrus.Fields{
		"payment_id": lock.Payment.ID,
		"reference":  lock.Payment.TransactionID,
	}).Info("Expired stale payment")
	publishEvent(ctx, s.publisher, s.logger, events.PaymentFailed, paymentEvent(&lock.Payment))
	return true, nil
}

// audit writes an audit entry; a failed write is logged and never fails the caller
func (s *PaymentService) audit(ctx context.Context, audit *models.PaymentAudit) {
	if s.audits == nil {
		return
	}
	if err := s.audits.Log(ctx, audit); err != nil {
		s.logger.WithError(err).WithField("event_type", audit.EventType).Error("Payment audit write failed")
	}
}

func fromGatewayStatus(status paystack.Status) models.GatewayStatus {
	switch status {
	case paystack.StatusSuccess:
		return models.GatewayStatusSuccess
	case paystack.StatusFailure:
		return models.GatewayStatusFailure
	}
	return models.GatewayStatusProcessing
}

func gatewayStatusLabel(in ReconcileInput) string {
	if in.GatewayStatus != "" {
		return in.GatewayStatus
	}
	return string(in.Status)
}

func gatewayMessage(err error) string {
	var apiErr *paystack.APIError
	if errors.As(err, &apiErr) {
		return "Payment gateway error: " + apiErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Payment gateway timed out"
	}
	return "Payment gateway unavailable"
}

func paymentEvent(p *models.Payment) map[string]interface{} {
	payload := map[string]interface{}{
		"payment_id": p.ID,
		"booking_id": p.BookingID,
		"reference":  p.TransactionID,
		"amount":     p.Amount.StringFixed(2),
		"currency":   p.Currency,
		"status":     p.Status,
	}
	if p.FailureReason != nil {
		payload["failure_reason"] = *p.FailureReason
	}
	return payload
}

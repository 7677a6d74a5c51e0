package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"contesthub/metrics"
	"contesthub/models"
	"contesthub/payments"
	"contesthub/realtime"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ErrMsgContestEnded       = "Contest has ended"
	ErrMsgAlreadyRegistered  = "Already registered"
	ErrMsgAmountMismatch     = "Amount must match the contest entry fee"
	ErrMsgSessionRequired    = "Session id is required"
	ErrMsgSessionNotFound    = "Payment session not found"
	ErrMsgPaymentIncomplete  = "Payment not completed"
	ErrMsgSessionIncomplete  = "Payment session is missing contest or user details"
	ErrMsgUserEmailRequired  = "User email is required"
	ErrMsgPaymentUnavailable = "Payment provider unavailable"
)

// contestCount is the counter read back after an increment
type contestCount struct {
	Participants int
	ContestType  string
}

// Participant is the identity a user registers with
type Participant struct {
	Email string
	Name  string
	Photo string
}

// ConfirmResult is the outcome of confirming a payment session
type ConfirmResult struct {
	Registration *models.Registration
	// Duplicate is true when the session had already been credited
	Duplicate bool
}

type RegistrationService struct {
	db       *gorm.DB
	cache    Cache
	notifier Notifier
	payments payments.Provider
	log      logrus.FieldLogger
	now      func() time.Time
	settings Settings
}

func NewRegistrationService(d Deps) *RegistrationService {
	d = d.withDefaults()
	return &RegistrationService{
		db:       d.DB,
		cache:    d.Cache,
		notifier: d.Notifier,
		payments: d.Payments,
		log:      d.Log,
		now:      d.Now,
		settings: d.Settings,
	}
}

// EntryFeeMessage is the validation message for an amount under the configured minimum
func (s *RegistrationService) EntryFeeMessage() string {
	return entryFeeMessage(s.settings.MinEntryFee)
}

// checkOpen reports why a contest accepts no new registrations
func checkOpen(contest *models.Contest, now time.Time) error {
	if contest.Ended(now) {
		return conflictError(ErrMsgContestEnded)
	}
	if contest.HasWinner() {
		return conflictError(ErrMsgWinnerDeclared)
	}
	return nil
}

func findRegistration(db *gorm.DB, contestID, email string) (*models.Registration, error) {
	var registration models.Registration
	err := db.Where("contest_id = ? AND user_email = ?", contestID, email).First(&registration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, internalError("load registration", err)
	}
	return &registration, nil
}

// InitiateCheckout opens a hosted checkout for the contest fee. Nothing is written locally.
func (s *RegistrationService) InitiateCheckout(ctx context.Context, contestID string, user Participant, amount decimal.NullDecimal) (*payments.Checkout, error) {
	if amount.Valid && amount.Decimal.LessThan(s.settings.MinEntryFee) {
		return nil, validationError(entryFeeMessage(s.settings.MinEntryFee))
	}
	email := normalizeEmail(user.Email)
	if email == "" {
		return nil, validationError(ErrMsgUserEmailRequired)
	}

	db := s.db.WithContext(ctx)
	contest, err := findContest(db, "id = ?", contestID)
	if err != nil {
		return nil, err
	}
	if !amount.Valid {
		amount = decimal.NewNullDecimal(contest.EntryFee)
	}
	if !amount.Decimal.Equal(contest.EntryFee) {
		return nil, validationError(ErrMsgAmountMismatch)
	}
	if err := checkOpen(contest, s.now()); err != nil {
		return nil, err
	}
	existing, err := findRegistration(db, contest.ID, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, conflictError(ErrMsgAlreadyRegistered)
	}

	req := payments.CheckoutRequest{
		ContestID:   contest.ID,
		ContestName: contest.Name,
		UserEmail:   email,
		UserName:    user.Name,
		UserPhoto:   user.Photo,
		AmountMinor: amount.Decimal.Shift(2).Round(0).IntPart(),
		Currency:    s.settings.Currency,
		SuccessURL:  s.settings.ClientURL + "/payment-success?session_id=" + payments.SessionIDPlaceholder,
		CancelURL:   s.settings.ClientURL + "/contests/" + contest.ID,
	}
	checkout, err := s.payments.CreateCheckout(ctx, req)
	if err != nil {
		s.log.WithError(err).WithField("contest_id", contest.ID).Error("Failed to create checkout session")
		return nil, &Error{Kind: ErrInternal, Message: ErrMsgPaymentUnavailable}
	}

	metrics.CheckoutSessions.WithLabelValues(s.payments.Name()).Inc()
	s.log.WithFields(logrus.Fields{
		"contest_id": contest.ID,
		"user_email": email,
		"session_id": checkout.SessionID,
	}).Info("Checkout session created")
	return checkout, nil
}

// ConfirmPayment credits a paid checkout session exactly once
func (s *RegistrationService) ConfirmPayment(ctx context.Context, sessionID string) (*ConfirmResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, validationError(ErrMsgSessionRequired)
	}
	log := s.log.WithField("session_id", sessionID)

	session, err := s.payments.GetSession(ctx, sessionID)
	if errors.Is(err, payments.ErrSessionNotFound) {
		metrics.PaymentConfirmations.WithLabelValues("error").Inc()
		return nil, notFoundError(ErrMsgSessionNotFound)
	}
	if err != nil {
		metrics.PaymentConfirmations.WithLabelValues("error").Inc()
		log.WithError(err).Error("Failed to retrieve checkout session")
		return nil, &Error{Kind: ErrInternal, Message: ErrMsgPaymentUnavailable}
	}

	transactionID := session.TransactionID
	if transactionID == "" {
		transactionID = session.ID
	}
	if existing, err := s.byTransaction(ctx, transactionID); err != nil {
		return nil, err
	} else if existing != nil {
		metrics.PaymentConfirmations.WithLabelValues("duplicate").Inc()
		return &ConfirmResult{Registration: existing, Duplicate: true}, nil
	}

	if !session.Paid {
		metrics.PaymentConfirmations.WithLabelValues("unpaid").Inc()
		return nil, validationError(ErrMsgPaymentIncomplete)
	}
	contestID := session.Metadata[payments.MetaContestID]
	user := Participant{
		Email: normalizeEmail(session.Metadata[payments.MetaUserEmail]),
		Name:  session.Metadata[payments.MetaUserName],
		Photo: session.Metadata[payments.MetaUserPhoto],
	}
	if contestID == "" || user.Email == "" {
		metrics.PaymentConfirmations.WithLabelValues("error").Inc()
		return nil, validationError(ErrMsgSessionIncomplete)
	}

	registration := models.Registration{
		ContestID:     contestID,
		UserEmail:     user.Email,
		UserName:      user.Name,
		UserPhoto:     user.Photo,
		Status:        models.RegistrationPending,
		Amount:        decimal.New(session.AmountMinor, -2),
		TransactionID: &transactionID,
		CreatedAt:     s.now(),
	}
	counted, err := s.register(ctx, &registration, func(tx *gorm.DB) error {
		_, err := findContest(tx, "id = ?", contestID)
		return err
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent confirmation of the same session won the insert
		if existing, lookupErr := s.byTransaction(ctx, transactionID); lookupErr == nil && existing != nil {
			metrics.PaymentConfirmations.WithLabelValues("duplicate").Inc()
			return &ConfirmResult{Registration: existing, Duplicate: true}, nil
		}
		metrics.PaymentConfirmations.WithLabelValues("error").Inc()
		return nil, conflictError(ErrMsgAlreadyRegistered)
	}
	if err != nil {
		metrics.PaymentConfirmations.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.PaymentConfirmations.WithLabelValues("credited").Inc()
	metrics.RegistrationsTotal.WithLabelValues("payment").Inc()
	s.afterRegistration(ctx, &registration, counted)
	log.WithFields(logrus.Fields{"contest_id": contestID, "user_email": user.Email}).Info("Payment confirmed")
	return &ConfirmResult{Registration: &registration}, nil
}

func (s *RegistrationService) byTransaction(ctx context.Context, transactionID string) (*models.Registration, error) {
	var registration models.Registration
	err := s.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&registration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, internalError("load registration by transaction", err)
	}
	return &registration, nil
}

// RegisterDirect registers a user without a payment
func (s *RegistrationService) RegisterDirect(ctx context.Context, contestID string, user Participant) (*models.Registration, error) {
	email := normalizeEmail(user.Email)
	if email == "" {
		return nil, validationError(ErrMsgUserEmailRequired)
	}

	registration := models.Registration{
		ContestID: contestID,
		UserEmail: email,
		UserName:  user.Name,
		UserPhoto: user.Photo,
		Status:    models.RegistrationPending,
		Amount:    decimal.Zero,
		CreatedAt: s.now(),
	}
	counted, err := s.register(ctx, &registration, func(tx *gorm.DB) error {
		contest, err := findContest(tx, "id = ?", contestID)
		if err != nil {
			return err
		}
		if err := checkOpen(contest, s.now()); err != nil {
			return err
		}
		existing, err := findRegistration(tx, contestID, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflictError(ErrMsgAlreadyRegistered)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, conflictError(ErrMsgAlreadyRegistered)
	}
	if err != nil {
		return nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues("direct").Inc()
	s.afterRegistration(ctx, &registration, counted)
	s.log.WithFields(logrus.Fields{"contest_id": contestID, "user_email": email}).Info("User registered")
	return &registration, nil
}

// register inserts the registration, bumps the counter and creates the user profile in one transaction.
// check runs first inside the same transaction. Duplicate keys come back as gorm.ErrDuplicatedKey.
func (s *RegistrationService) register(ctx context.Context, registration *models.Registration, check func(tx *gorm.DB) error) (contestCount, error) {
	var counted contestCount
	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := check(tx); err != nil {
			return err
		}
		if err := tx.Create(registration).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			return internalError("create registration", err)
		}
		res := tx.Model(&models.Contest{}).
			Where("id = ?", registration.ContestID).
			UpdateColumn("participants", gorm.Expr("participants + ?", 1))
		if res.Error != nil {
			return internalError("increment participants", res.Error)
		}
		user := models.User{Email: registration.UserEmail, Name: registration.UserName, Photo: registration.UserPhoto}
		if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).Create(&user).Error; err != nil {
			return internalError("create user", err)
		}
		err := tx.Model(&models.Contest{}).Select("participants", "contest_type").
			Where("id = ?", registration.ContestID).Scan(&counted).Error
		if err != nil {
			return internalError("read participants", err)
		}
		return nil
	})
	metrics.RecordDBOperation("register", "registrations", start)
	return counted, err
}

func (s *RegistrationService) afterRegistration(ctx context.Context, registration *models.Registration, counted contestCount) {
	invalidateListings(ctx, s.cache, s.log, counted.ContestType)
	s.notifier.Publish(realtime.ContestEvent{
		ContestID:    registration.ContestID,
		Type:         realtime.EventParticipants,
		Participants: counted.Participants,
		At:           s.now(),
	})
}

// IsRegistered reports whether the user holds a registration for the contest
func (s *RegistrationService) IsRegistered(ctx context.Context, contestID, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Registration{}).
		Where("contest_id = ? AND user_email = ?", contestID, normalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, internalError("check registration", err)
	}
	return count > 0, nil
}

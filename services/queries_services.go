package services

import (
	"context"
	"time"

	"contesthub/metrics"
	"contesthub/models"

	"gorm.io/gorm"
)

// PaymentStatusPaid is reported for every participated contest; registrations only exist once paid or granted
const PaymentStatusPaid = "Paid"

// ParticipatedContest is a contest seen from one of its participants
type ParticipatedContest struct {
	models.Contest
	PaymentStatus string `json:"paymentStatus"`
	ContestEnded  bool   `json:"contestEnded"`
}

// CreatorParticipant is a registration on one of the creator's contests
type CreatorParticipant struct {
	models.Registration
	ContestName string `json:"contestName"`
	TaskLink    string `json:"taskLink,omitempty"`
}

// QueryService serves the read-only projections
type QueryService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewQueryService(d Deps) *QueryService {
	d = d.withDefaults()
	return &QueryService{db: d.DB, now: d.Now}
}

func (q *QueryService) find(ctx context.Context, op, table string, dest any, build func(db *gorm.DB) *gorm.DB) error {
	start := time.Now()
	err := build(q.db.WithContext(ctx)).Find(dest).Error
	metrics.RecordDBOperation(op, table, start)
	if err != nil {
		return internalError(op, err)
	}
	return nil
}

// WinningContests lists the contests the user won, latest deadline first
func (q *QueryService) WinningContests(ctx context.Context, email string) ([]models.Contest, error) {
	contests := []models.Contest{}
	err := q.find(ctx, "list_winning", "contests", &contests, func(db *gorm.DB) *gorm.DB {
		return db.Where("winner_email = ? AND winner_declared_at IS NOT NULL", normalizeEmail(email)).Order("deadline DESC")
	})
	return contests, err
}

// Registrations lists the user's registrations
func (q *QueryService) Registrations(ctx context.Context, email string) ([]models.Registration, error) {
	registrations := []models.Registration{}
	err := q.find(ctx, "list_registrations", "registrations", &registrations, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_email = ?", normalizeEmail(email)).Order("created_at DESC")
	})
	return registrations, err
}

// ParticipatedContests lists the contests the user registered for, nearest deadline first
func (q *QueryService) ParticipatedContests(ctx context.Context, email string) ([]ParticipatedContest, error) {
	var contestIDs []string
	start := time.Now()
	err := q.db.WithContext(ctx).Model(&models.Registration{}).
		Where("user_email = ?", normalizeEmail(email)).
		Pluck("contest_id", &contestIDs).Error
	metrics.RecordDBOperation("list_participated", "registrations", start)
	if err != nil {
		return nil, internalError("list participated contests", err)
	}

	result := []ParticipatedContest{}
	if len(contestIDs) == 0 {
		return result, nil
	}

	var contests []models.Contest
	if err := q.find(ctx, "list_participated", "contests", &contests, func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN ?", contestIDs).Order("deadline ASC")
	}); err != nil {
		return nil, err
	}

	now := q.now()
	for _, c := range contests {
		result = append(result, ParticipatedContest{
			Contest:       c,
			PaymentStatus: PaymentStatusPaid,
			ContestEnded:  c.Ended(now),
		})
	}
	return result, nil
}

// CreatorContests lists the contests a creator published, newest first
func (q *QueryService) CreatorContests(ctx context.Context, email string) ([]models.Contest, error) {
	contests := []models.Contest{}
	err := q.find(ctx, "list_creator", "contests", &contests, func(db *gorm.DB) *gorm.DB {
		return db.Where("creator_email = ?", normalizeEmail(email)).Order("created_at DESC")
	})
	return contests, err
}

// CreatorParticipants lists everyone registered on the creator's contests with their submitted task
func (q *QueryService) CreatorParticipants(ctx context.Context, email string) ([]CreatorParticipant, error) {
	var contests []models.Contest
	if err := q.find(ctx, "list_creator", "contests", &contests, func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name").Where("creator_email = ?", normalizeEmail(email))
	}); err != nil {
		return nil, err
	}

	result := []CreatorParticipant{}
	if len(contests) == 0 {
		return result, nil
	}
	names := make(map[string]string, len(contests))
	ids := make([]string, 0, len(contests))
	for _, c := range contests {
		names[c.ID] = c.Name
		ids = append(ids, c.ID)
	}

	var registrations []models.Registration
	if err := q.find(ctx, "list_participants", "registrations", &registrations, func(db *gorm.DB) *gorm.DB {
		return db.Where("contest_id IN ?", ids).Order("created_at ASC")
	}); err != nil {
		return nil, err
	}
	var submissions []models.Submission
	if err := q.find(ctx, "list_participants", "submissions", &submissions, func(db *gorm.DB) *gorm.DB {
		return db.Where("contest_id IN ?", ids)
	}); err != nil {
		return nil, err
	}
	links := make(map[string]string, len(submissions))
	for _, s := range submissions {
		links[s.ContestID+"|"+s.UserEmail] = s.TaskLink
	}

	for _, r := range registrations {
		result = append(result, CreatorParticipant{
			Registration: r,
			ContestName:  names[r.ContestID],
			TaskLink:     links[r.ContestID+"|"+r.UserEmail],
		})
	}
	return result, nil
}

// AllUsers lists every profile for the admin dashboard
func (q *QueryService) AllUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := q.find(ctx, "list_users", "users", &users, func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC")
	})
	return users, err
}

// AllContests lists every contest regardless of status
func (q *QueryService) AllContests(ctx context.Context) ([]models.Contest, error) {
	contests := []models.Contest{}
	err := q.find(ctx, "list_all", "contests", &contests, func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC")
	})
	return contests, err
}

package mentorshipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no mentorship has the requested id.
	ErrNotFound = errors.New("mentorship not found")
	// ErrDuplicateOpen is returned when the pair already has a pending or active record.
	ErrDuplicateOpen = errors.New("an open mentorship already exists for this mentor and mentee")
	// ErrStatusChanged is returned by conditional updates whose expected prior status no longer holds.
	ErrStatusChanged = errors.New("mentorship status changed concurrently")
)

// Party selects which side of a mentorship a user id is matched against.
type Party string

const (
	Either   Party = ""
	AsMentor Party = "mentor_id"
	AsMentee Party = "mentee_id"
)

// FeedbackSide names one of the two feedback slots.
type FeedbackSide string

const (
	MentorSide FeedbackSide = "mentor_feedback"
	MenteeSide FeedbackSide = "mentee_feedback"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("mentorships")}
}

// Create inserts m. ID, timestamps, the folded area, is_active and open_key
// are filled in here; nil slices are stored as empty arrays.
func (s *Store) Create(ctx context.Context, m models.Mentorship) (models.Mentorship, error) {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	m.CreatedAt = now
	m.UpdatedAt = now
	m.MentorshipAreaCI = text.Fold(m.MentorshipArea)
	m.IsActive = m.Status.IsOpen()
	m.OpenKey = ""
	if m.Status.IsOpen() {
		m.OpenKey = models.OpenKey(m.MentorID, m.MenteeID)
	}
	if m.Goals == nil {
		m.Goals = []string{}
	}
	if m.Meetings == nil {
		m.Meetings = []models.Meeting{}
	}

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Mentorship{}, ErrDuplicateOpen
		}
		return models.Mentorship{}, err
	}
	return m, nil
}

// GetByID loads a mentorship by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Mentorship, error) {
	var m models.Mentorship
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Mentorship{}, ErrNotFound
		}
		return models.Mentorship{}, err
	}
	return m, nil
}

// HasOpen reports whether the pair has a pending or active record.
func (s *Store) HasOpen(ctx context.Context, mentorID, menteeID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx,
		bson.M{"open_key": models.OpenKey(mentorID, menteeID)},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Activate moves a pending record to active with the given dates.
// It returns ErrStatusChanged if the record is no longer pending.
func (s *Store) Activate(ctx context.Context, id primitive.ObjectID, start, end time.Time) (models.Mentorship, error) {
	return s.conditional(ctx, id, models.StatusPending, bson.M{
		"$set": bson.M{
			"status":     models.StatusActive,
			"start_date": start,
			"end_date":   end,
			"is_active":  true,
			"updated_at": time.Now().UTC(),
		},
	})
}

// Close moves a record from `from` to a terminal status and frees the pair.
// It returns ErrStatusChanged if the record is no longer in `from`.
func (s *Store) Close(ctx context.Context, id primitive.ObjectID, from, to models.MentorshipStatus) (models.Mentorship, error) {
	return s.conditional(ctx, id, from, bson.M{
		"$set": bson.M{
			"status":     to,
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		},
		"$unset": bson.M{"open_key": ""},
	})
}

func (s *Store) conditional(ctx context.Context, id primitive.ObjectID, from models.MentorshipStatus, update bson.M) (models.Mentorship, error) {
	var m models.Mentorship
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Mentorship{}, ErrStatusChanged
	}
	if err != nil {
		return models.Mentorship{}, err
	}
	return m, nil
}

// AppendMeeting pushes one meeting entry onto the record.
func (s *Store) AppendMeeting(ctx context.Context, id primitive.ObjectID, mt models.Meeting) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"meetings": mt},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFeedback overwrites one feedback slot and returns both slots afterwards.
func (s *Store) SetFeedback(ctx context.Context, id primitive.ObjectID, side FeedbackSide, fb models.Feedback) (models.FeedbackSet, error) {
	var out struct {
		Feedback models.FeedbackSet `bson:"feedback"`
	}
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"feedback." + string(side): fb,
			"updated_at":               time.Now().UTC(),
		}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"feedback": 1}),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.FeedbackSet{}, ErrNotFound
	}
	if err != nil {
		return models.FeedbackSet{}, err
	}
	return out.Feedback, nil
}

// ListQuery filters List. Zero-valued fields are ignored.
type ListQuery struct {
	UserID primitive.ObjectID
	Party  Party
	Status models.MentorshipStatus
	Area   string
	Limit  int64
}

func partyFilter(userID primitive.ObjectID, p Party) bson.M {
	if p == Either {
		return bson.M{"$or": []bson.M{{"mentor_id": userID}, {"mentee_id": userID}}}
	}
	return bson.M{string(p): userID}
}

// List returns matching records, newest first.
func (s *Store) List(ctx context.Context, q ListQuery) ([]models.Mentorship, error) {
	filter := partyFilter(q.UserID, q.Party)
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Area != "" {
		filter["mentorship_area_ci"] = text.Fold(q.Area)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Mentorship{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByStatus counts the records where userID is on side p, per status.
func (s *Store) CountByStatus(ctx context.Context, userID primitive.ObjectID, p Party) (map[models.MentorshipStatus]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: partyFilter(userID, p)}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[models.MentorshipStatus]int)
	for cur.Next(ctx) {
		var row struct {
			Status models.MentorshipStatus `bson:"_id"`
			N      int                     `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.N
	}
	return out, cur.Err()
}

// ActiveByMentor groups the ids of all active records by mentor.
func (s *Store) ActiveByMentor(ctx context.Context) (map[primitive.ObjectID][]primitive.ObjectID, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.StatusActive}}},
		{{Key: "$group", Value: bson.M{"_id": "$mentor_id", "ids": bson.M{"$push": "$_id"}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[primitive.ObjectID][]primitive.ObjectID)
	for cur.Next(ctx) {
		var row struct {
			MentorID primitive.ObjectID   `bson:"_id"`
			IDs      []primitive.ObjectID `bson:"ids"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.MentorID] = row.IDs
	}
	return out, cur.Err()
}

// OpenByMentor returns the status of each pending or active record the
// mentor holds, keyed by record id.
func (s *Store) OpenByMentor(ctx context.Context, mentorID primitive.ObjectID) (map[primitive.ObjectID]models.MentorshipStatus, error) {
	cur, err := s.c.Find(ctx,
		bson.M{
			"mentor_id": mentorID,
			"status":    bson.M{"$in": bson.A{models.StatusPending, models.StatusActive}},
		},
		options.Find().SetProjection(bson.M{"_id": 1, "status": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[primitive.ObjectID]models.MentorshipStatus)
	for cur.Next(ctx) {
		var row struct {
			ID     primitive.ObjectID      `bson:"_id"`
			Status models.MentorshipStatus `bson:"status"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Status
	}
	return out, cur.Err()
}

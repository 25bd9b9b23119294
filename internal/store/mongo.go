package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/venuelist/internal/model"
)

// Collection names.
const (
	venuesCollection   = "venues"
	profilesCollection = "profiles"
	countersCollection = "counters"
	venueSeqCounter    = "venue_seq"
)

const mongoConnectTimeout = 10 * time.Second

// MongoStore implements Store on top of MongoDB.
type MongoStore struct {
	client   *mongo.Client
	venues   *mongo.Collection
	profiles *mongo.Collection
	counters *mongo.Collection
	logger   *zap.Logger
}

// NewMongoStore connects to MongoDB and prepares the collections.
func NewMongoStore(ctx context.Context, uri, database string, logger *zap.Logger) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		venues:   db.Collection(venuesCollection),
		profiles: db.Collection(profilesCollection),
		counters: db.Collection(countersCollection),
		logger:   logger,
	}

	indexModel := mongo.IndexModel{Keys: bson.D{{Key: "seq", Value: 1}}}
	if _, err := s.venues.Indexes().CreateOne(connectCtx, indexModel); err != nil {
		logger.Warn("failed to create index on venue seq", zap.Error(err))
	}

	return s, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting from mongodb: %w", err)
	}
	return nil
}

// Ping checks that MongoDB is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// List returns all venues ordered by insertion.
func (s *MongoStore) List(ctx context.Context) ([]model.Venue, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})

	cursor, err := s.venues.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer cursor.Close(ctx)

	venues := make([]model.Venue, 0)
	if err := cursor.All(ctx, &venues); err != nil {
		return nil, fmt.Errorf("decode venues: %w", err)
	}

	for i := range venues {
		normalizeVenue(&venues[i])
	}

	return venues, nil
}

// Get retrieves a venue by its ID.
func (s *MongoStore) Get(ctx context.Context, id string) (*model.Venue, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	var venue model.Venue
	if err := s.venues.FindOne(ctx, bson.M{"_id": id}).Decode(&venue); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get venue: %w", err)
	}

	normalizeVenue(&venue)
	return &venue, nil
}

// Create inserts a new venue.
func (s *MongoStore) Create(ctx context.Context, venue *model.Venue) (*model.Venue, error) {
	if venue == nil {
		return nil, ErrNilVenue
	}

	seq, err := s.nextSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("create venue: %w", err)
	}

	now := time.Now().UTC()
	newVenue := venue.Clone()
	if newVenue.ID == "" {
		newVenue.ID = uuid.New().String()
	}
	newVenue.Seq = seq
	newVenue.IsFavorite = false
	newVenue.CreatedAt = now
	newVenue.UpdatedAt = now
	normalizeVenue(&newVenue)

	if _, err := s.venues.InsertOne(ctx, newVenue); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create venue: %w", err)
	}

	s.logger.Debug("venue created", zap.String("id", newVenue.ID), zap.Int64("seq", seq))
	return &newVenue, nil
}

// Update replaces an existing venue, keeping its sequence and creation time.
func (s *MongoStore) Update(ctx context.Context, id string, venue *model.Venue) (*model.Venue, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	if venue == nil {
		return nil, ErrNilVenue
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := venue.Clone()
	updated.ID = id
	updated.Seq = existing.Seq
	updated.IsFavorite = false
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	normalizeVenue(&updated)

	opts := options.FindOneAndReplace().SetReturnDocument(options.After)
	var out model.Venue
	if err := s.venues.FindOneAndReplace(ctx, bson.M{"_id": id}, updated, opts).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update venue: %w", err)
	}

	normalizeVenue(&out)
	return &out, nil
}

// Delete removes a venue by its ID.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	result, err := s.venues.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete venue: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// StarEvent adds userID to the stars of an event.
func (s *MongoStore) StarEvent(ctx context.Context, venueID, eventID, userID string) (*model.Venue, error) {
	return s.updateStar(ctx, venueID, eventID, bson.M{
		"$addToSet": bson.M{"upcoming_events.$.starred_by": userID},
	})
}

// UnstarEvent removes userID from the stars of an event.
func (s *MongoStore) UnstarEvent(ctx context.Context, venueID, eventID, userID string) (*model.Venue, error) {
	return s.updateStar(ctx, venueID, eventID, bson.M{
		"$pull": bson.M{"upcoming_events.$.starred_by": userID},
	})
}

func (s *MongoStore) updateStar(ctx context.Context, venueID, eventID string, update bson.M) (*model.Venue, error) {
	if venueID == "" || eventID == "" {
		return nil, ErrInvalidID
	}

	update["$set"] = bson.M{"updated_at": time.Now().UTC()}
	filter := bson.M{"_id": venueID, "upcoming_events.id": eventID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var venue model.Venue
	err := s.venues.FindOneAndUpdate(ctx, filter, update, opts).Decode(&venue)
	if err == nil {
		normalizeVenue(&venue)
		return &venue, nil
	}

	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update event star: %w", err)
	}

	if _, getErr := s.Get(ctx, venueID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrEventNotFound
}

// GetProfile returns the profile of userID, or an empty one.
func (s *MongoStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, ErrInvalidID
	}

	var profile model.Profile
	if err := s.profiles.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &model.Profile{UserID: userID, FavoriteVenues: []string{}}, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	normalizeProfile(&profile)
	return &profile, nil
}

// AddFavorite adds venueID to the favorites of userID.
func (s *MongoStore) AddFavorite(ctx context.Context, userID, venueID string) (*model.Profile, error) {
	return s.updateFavorites(ctx, userID, venueID, "$addToSet")
}

// RemoveFavorite removes venueID from the favorites of userID.
func (s *MongoStore) RemoveFavorite(ctx context.Context, userID, venueID string) (*model.Profile, error) {
	return s.updateFavorites(ctx, userID, venueID, "$pull")
}

func (s *MongoStore) updateFavorites(ctx context.Context, userID, venueID, operator string) (*model.Profile, error) {
	if userID == "" || venueID == "" {
		return nil, ErrInvalidID
	}

	update := bson.M{
		operator: bson.M{"favorite_venues": venueID},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetUpsert(true)

	var profile model.Profile
	if err := s.profiles.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&profile); err != nil {
		return nil, fmt.Errorf("update favorites: %w", err)
	}

	normalizeProfile(&profile)
	return &profile, nil
}

// nextSeq returns the next venue sequence number.
func (s *MongoStore) nextSeq(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetUpsert(true)

	var counter struct {
		Value int64 `bson:"value"`
	}
	err := s.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": venueSeqCounter},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next venue sequence: %w", err)
	}

	return counter.Value, nil
}

// normalizeVenue replaces nil slices so that array operators always apply.
func normalizeVenue(v *model.Venue) {
	if v.UpcomingEvents == nil {
		v.UpcomingEvents = []model.Event{}
	}
	for i := range v.UpcomingEvents {
		if v.UpcomingEvents[i].StarredBy == nil {
			v.UpcomingEvents[i].StarredBy = []string{}
		}
	}
}

func normalizeProfile(p *model.Profile) {
	if p.FavoriteVenues == nil {
		p.FavoriteVenues = []string{}
	}
}

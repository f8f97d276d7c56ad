package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"notesync/metrics"
	"notesync/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const notesCollection = "notes"

var _ NoteStore = (*NotesRepo)(nil)

type NotesRepo struct {
	MongoCollection *mongo.Collection
}

func GetNotesRepo(client *mongo.Client, dbName string) *NotesRepo {
	return &NotesRepo{
		MongoCollection: client.Database(dbName).Collection(notesCollection),
	}
}

// FetchByID retrieves a note by id for the given user
func (r *NotesRepo) FetchByID(ctx context.Context, userID, id string) (*model.Note, error) {
	defer metrics.TrackDBOperation("find_by_id", notesCollection).ObserveDuration()

	return r.findOne(ctx, bson.M{"_id": id, "user_id": userID})
}

// FetchBySlug retrieves a note by slug for the given user
func (r *NotesRepo) FetchBySlug(ctx context.Context, userID, slug string) (*model.Note, error) {
	defer metrics.TrackDBOperation("find_by_slug", notesCollection).ObserveDuration()

	return r.findOne(ctx, bson.M{"slug": slug, "user_id": userID})
}

func (r *NotesRepo) findOne(ctx context.Context, filter bson.M) (*model.Note, error) {
	var note model.Note
	err := r.MongoCollection.FindOne(ctx, filter).Decode(&note)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return &note, nil
}

// FetchList returns one page of the user's notes, newest first
func (r *NotesRepo) FetchList(ctx context.Context, userID string, q model.ListQuery) (*model.NotePage, error) {
	defer metrics.TrackDBOperation("find_list", notesCollection).ObserveDuration()

	filter := bson.M{"user_id": userID}
	if q.Search != "" {
		pattern := regexp.QuoteMeta(q.Search)
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": pattern, "$options": "i"}},
			{"content": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}

	total, err := r.MongoCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.Limit)).
		SetLimit(int64(q.Limit))

	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notes := make([]*model.Note, 0, q.Limit)
	if err = cursor.All(ctx, &notes); err != nil {
		return nil, err
	}

	return &model.NotePage{
		Notes:  notes,
		Page:   q.Page,
		Limit:  q.Limit,
		Search: q.Search,
		Total:  int(total),
	}, nil
}

// Insert creates a new note owned by userID
func (r *NotesRepo) Insert(ctx context.Context, userID string, note *model.Note) (*model.Note, error) {
	defer metrics.TrackDBOperation("insert", notesCollection).ObserveDuration()

	if userID == "" {
		return nil, errors.New("user ID is required")
	}

	created := *note
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	created.UserID = userID
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.MongoCollection.InsertOne(ctx, &created); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return &created, nil
}

// Update applies the provided fields and returns the stored row
func (r *NotesRepo) Update(ctx context.Context, userID, id string, upd model.NoteUpdate) (*model.Note, error) {
	defer metrics.TrackDBOperation("update", notesCollection).ObserveDuration()

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil && *upd.Title != "" {
		set["title"] = *upd.Title
	}
	if upd.Slug != nil && *upd.Slug != "" {
		set["slug"] = *upd.Slug
	}
	if upd.Content != nil && *upd.Content != "" {
		set["content"] = *upd.Content
	}

	filter := bson.M{
		"_id":     id,
		"user_id": userID,
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var note model.Note
	err := r.MongoCollection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&note)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, ErrNoteNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return &note, nil
}

// Delete removes a note owned by userID
func (r *NotesRepo) Delete(ctx context.Context, userID, id string) error {
	defer metrics.TrackDBOperation("delete", notesCollection).ObserveDuration()

	filter := bson.M{
		"_id":     id,
		"user_id": userID,
	}

	result, err := r.MongoCollection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return ErrNoteNotFound
	}

	return nil
}

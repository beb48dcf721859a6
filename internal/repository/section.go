package repository

import (
	"context"
	"errors"
	"time"

	"dispatch-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SectionRepository struct {
	collection *mongo.Collection
}

func NewSectionRepository(db *mongo.Database) *SectionRepository {
	return &SectionRepository{
		collection: db.Collection("sections"),
	}
}

func (r *SectionRepository) Create(section *models.Section) (*models.Section, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, section)
	if err != nil {
		return nil, err
	}

	section.ID = result.InsertedID.(primitive.ObjectID)
	return section, nil
}

func (r *SectionRepository) FindByID(id string) (*models.Section, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid section ID")
	}

	var section models.Section
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&section)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("section not found")
		}
		return nil, err
	}

	return &section, nil
}

func (r *SectionRepository) FindByCode(code string) (*models.Section, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var section models.Section
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&section)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("section not found")
		}
		return nil, err
	}

	return &section, nil
}

func (r *SectionRepository) FindAll() ([]*models.Section, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sections []*models.Section
	for cursor.Next(ctx) {
		var section models.Section
		if err := cursor.Decode(&section); err != nil {
			return nil, err
		}
		sections = append(sections, &section)
	}

	return sections, nil
}

func (r *SectionRepository) Update(id string, section *models.Section) (*models.Section, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.New("invalid section ID")
	}

	section.UpdatedAt = time.Now()

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": section},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Section
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("section not found")
		}
		return nil, err
	}

	return &updated, nil
}

func (r *SectionRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.New("invalid section ID")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return errors.New("section not found")
	}

	return nil
}

package repository

import (
	"context"
	"time"

	"adulting-backend/internal/database"
	"adulting-backend/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type PlannerRepo struct {
	collection *mongo.Collection
}

func NewPlannerRepo() *PlannerRepo {
	return &PlannerRepo{
		collection: database.GetCollection("planner"),
	}
}

// FindByDate returns the planner document for one user and day, or an
// empty planner when none exists yet — a blank day is not an error.
func (r *PlannerRepo) FindByDate(ctx context.Context, userID, date string) (*models.DayPlanner, error) {
	var planner models.DayPlanner
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "date": date}).Decode(&planner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.EmptyPlanner(userID, date), nil
		}
		return nil, err
	}
	if planner.Tasks == nil {
		planner.Tasks = []models.TaskItem{}
	}
	return &planner, nil
}

// SetMeals upserts the meals sub-document for the day.
func (r *PlannerRepo) SetMeals(ctx context.Context, userID, date string, meals models.DayMeals) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"user_id": userID, "date": date},
		bson.M{
			"$set": bson.M{
				"meals":      meals,
				"updated_at": time.Now(),
			},
		},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

// SetTasks replaces the day's full task array. Tasks have positional
// identity, so edits always rewrite the whole array.
func (r *PlannerRepo) SetTasks(ctx context.Context, userID, date string, tasks []models.TaskItem) error {
	if tasks == nil {
		tasks = []models.TaskItem{}
	}
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"user_id": userID, "date": date},
		bson.M{
			"$set": bson.M{
				"tasks":      tasks,
				"updated_at": time.Now(),
			},
		},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

// EnsureIndexes creates necessary indexes for the planner collection
func (r *PlannerRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

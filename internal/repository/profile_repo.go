package repository

import (
	"context"
	"log"
	"time"

	"adulting-backend/internal/database"
	"adulting-backend/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Default call schedule for brand-new profiles, stored as UTC wall-clock
// strings like every other call time.
const (
	DefaultMorningCallUTC = "8:00 AM"
	DefaultEveningCallUTC = "9:00 PM"
)

type ProfileRepo struct {
	collection *mongo.Collection
}

func NewProfileRepo() *ProfileRepo {
	return &ProfileRepo{
		collection: database.GetCollection("users"),
	}
}

func (r *ProfileRepo) FindByID(ctx context.Context, id string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepo) FindByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepo) Create(ctx context.Context, profile *models.UserProfile) error {
	profile.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, profile)
	return err
}

// FindOrCreate looks a profile up by sign-in email and creates a fresh one
// on first sign-in: empty contact fields, default call schedule, calls
// enabled, and the given timezone.
func (r *ProfileRepo) FindOrCreate(ctx context.Context, id, email, timezone string) (*models.UserProfile, error) {
	profile, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}

	newProfile := &models.UserProfile{
		ID:              id,
		Email:           email,
		CallStreak:      0,
		MorningCallTime: DefaultMorningCallUTC,
		EveningCallTime: DefaultEveningCallUTC,
		Timezone:        timezone,
		CallsEnabled:    true,
	}
	if err := r.Create(ctx, newProfile); err != nil {
		return nil, err
	}
	return newProfile, nil
}

// UpdateContact sets only the fields that were provided. Nil means "leave
// unchanged", mirroring the app's field-by-field profile edits.
func (r *ProfileRepo) UpdateContact(ctx context.Context, id string, name, phoneNumber, email *string) error {
	set := bson.M{}
	if name != nil {
		set["name"] = *name
	}
	if phoneNumber != nil {
		set["phoneNumber"] = *phoneNumber
	}
	if email != nil {
		set["email"] = *email
	}
	if len(set) == 0 {
		return nil
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// UpdateCallSchedule writes both UTC call times in a single update so the
// stored document can never hold one converted time and one stale one.
func (r *ProfileRepo) UpdateCallSchedule(ctx context.Context, id, morningUTC, eveningUTC string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"morningCallTime": morningUTC,
			"eveningCallTime": eveningUTC,
		},
	})
	return err
}

func (r *ProfileRepo) UpdateTimezone(ctx context.Context, id, timezone string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"timezone": timezone},
	})
	return err
}

// IncrementStreak bumps the call streak by exactly one.
func (r *ProfileRepo) IncrementStreak(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"callStreak": 1},
	})
	return err
}

func (r *ProfileRepo) ResetStreak(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"callStreak": 0},
	})
	return err
}

func (r *ProfileRepo) SetCallsEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"callsEnabled": enabled},
	})
	return err
}

// SetGoogleCredentials stores the tokens from a linked Google sign-in.
func (r *ProfileRepo) SetGoogleCredentials(ctx context.Context, id, accessToken, refreshToken, email string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"googleAccessToken":  accessToken,
			"googleRefreshToken": refreshToken,
			"googleEmail":        email,
		},
	})
	return err
}

// Watch streams snapshots of one profile document: the current state
// immediately, then every subsequent update, via a MongoDB change stream.
// The channel closes when ctx is cancelled or the stream errors; callers
// resubscribe by calling Watch again.
func (r *ProfileRepo) Watch(ctx context.Context, id string) (<-chan *models.UserProfile, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"documentKey._id": id}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, err
	}

	out := make(chan *models.UserProfile)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		// Fire the current state first, the way the app's listener does.
		if current, err := r.FindByID(ctx, id); err == nil && current != nil {
			select {
			case out <- current:
			case <-ctx.Done():
				return
			}
		}

		for stream.Next(ctx) {
			var event struct {
				FullDocument models.UserProfile `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				log.Printf("Error decoding profile change event: %v", err)
				continue
			}
			snapshot := event.FullDocument
			select {
			case out <- &snapshot:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			log.Printf("Profile change stream for %s ended: %v", id, err)
		}
	}()

	return out, nil
}

// EnsureIndexes creates necessary indexes for the users collection
func (r *ProfileRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

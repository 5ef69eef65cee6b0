package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mdb "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nidohq/nido/internal/api/domain"
	"github.com/nidohq/nido/internal/api/store"
)

type usersRepo struct {
	col *mdb.Collection
}

// userDoc is the persisted shape. OTP fields are omitted when empty so the
// sparse queries stay cheap and absence means "no pending code".
type userDoc struct {
	ID                string     `bson:"_id"`
	Username          string     `bson:"username"`
	Email             string     `bson:"email"`
	PasswordHash      string     `bson:"password_hash"`
	Avatar            string     `bson:"avatar,omitempty"`
	Role              string     `bson:"role"`
	GoogleID          string     `bson:"google_id,omitempty"`
	ResetOTPHash      string     `bson:"reset_otp_hash,omitempty"`
	ResetOTPExpiresAt *time.Time `bson:"reset_otp_exp,omitempty"`
	Active            bool       `bson:"active"`
	CreatedAt         time.Time  `bson:"created_at"`
	UpdatedAt         time.Time  `bson:"updated_at"`
}

func toUserDoc(u domain.User) userDoc {
	return userDoc{
		ID:                u.ID,
		Username:          u.Username,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Avatar:            u.Avatar,
		Role:              u.Role,
		GoogleID:          u.GoogleID,
		ResetOTPHash:      u.ResetOTPHash,
		ResetOTPExpiresAt: u.ResetOTPExpiresAt,
		Active:            u.Active,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:                d.ID,
		Username:          d.Username,
		Email:             d.Email,
		PasswordHash:      d.PasswordHash,
		Avatar:            d.Avatar,
		Role:              d.Role,
		GoogleID:          d.GoogleID,
		ResetOTPHash:      d.ResetOTPHash,
		ResetOTPExpiresAt: d.ResetOTPExpiresAt,
		Active:            d.Active,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	var doc userDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mdb.ErrNoDocuments) {
		return domain.User{}, store.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return doc.toDomain(), nil
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var doc userDoc
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if errors.Is(err, mdb.ErrNoDocuments) {
		return domain.User{}, store.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return doc.toDomain(), nil
}

func (r *usersRepo) Create(ctx context.Context, u domain.User) error {
	_, err := r.col.InsertOne(ctx, toUserDoc(u))
	if field := duplicateField(err); field != "" {
		return &store.DuplicateError{Field: field}
	}
	return err
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"password_hash": newHash,
			"updated_at":    time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) SetResetOTP(ctx context.Context, userID string, fingerprint string, expiresAt time.Time) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"reset_otp_hash": fingerprint,
			"reset_otp_exp":  expiresAt,
			"updated_at":     time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdatePasswordByOTP is the single-document consume: match + set + unset in
// one FindOneAndUpdate, so a code can never be redeemed twice.
func (r *usersRepo) UpdatePasswordByOTP(ctx context.Context, email string, fingerprint string, newHash string, now time.Time) error {
	filter := bson.M{
		"email":          email,
		"reset_otp_hash": fingerprint,
		"reset_otp_exp":  bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"password_hash": newHash,
			"updated_at":    now.UTC(),
		},
		"$unset": bson.M{
			"reset_otp_hash": "",
			"reset_otp_exp":  "",
		},
	}

	err := r.col.FindOneAndUpdate(ctx, filter, update).Err()
	if errors.Is(err, mdb.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID string, patch domain.UserPatch) (domain.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Username != "" {
		set["username"] = patch.Username
	}
	if patch.Email != "" {
		set["email"] = patch.Email
	}
	if patch.Avatar != "" {
		set["avatar"] = patch.Avatar
	}
	if patch.PasswordHash != "" {
		set["password_hash"] = patch.PasswordHash
	}

	var doc userDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mdb.ErrNoDocuments) {
		return domain.User{}, store.ErrNotFound
	}
	if field := duplicateField(err); field != "" {
		return domain.User{}, &store.DuplicateError{Field: field}
	}
	if err != nil {
		return domain.User{}, err
	}
	return doc.toDomain(), nil
}

func (r *usersRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

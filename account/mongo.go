package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/MrEthical07/goSession/secret"
)

var _ Store = (*MongoStore)(nil)

// DefaultCollection is the collection MongoStore uses when none is given.
const DefaultCollection = "accounts"

type accountDocument struct {
	ID                   string     `bson:"_id"`
	Email                string     `bson:"email"`
	Username             string     `bson:"username,omitempty"`
	Tier                 string     `bson:"tier"`
	PasswordHash         string     `bson:"password_hash"`
	OTPHash              string     `bson:"otp_hash,omitempty"`
	OTPExpiresAt         *time.Time `bson:"otp_expires_at,omitempty"`
	ConfirmedAt          *time.Time `bson:"confirmed_at,omitempty"`
	CredentialsChangedAt *time.Time `bson:"credentials_changed_at,omitempty"`
	CreatedAt            time.Time  `bson:"created_at"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func toDocument(a *Account) accountDocument {
	return accountDocument{
		ID:                   a.ID,
		Email:                normalizeEmail(a.Email),
		Username:             strings.ToLower(a.Username),
		Tier:                 string(a.Tier),
		PasswordHash:         a.PasswordHash,
		OTPHash:              a.OTPHash,
		OTPExpiresAt:         timePtr(a.OTPExpiresAt),
		ConfirmedAt:          timePtr(a.ConfirmedAt),
		CredentialsChangedAt: timePtr(a.CredentialsChangedAt),
		CreatedAt:            a.CreatedAt.UTC(),
	}
}

func (d *accountDocument) toAccount() *Account {
	return &Account{
		ID:                   d.ID,
		Email:                d.Email,
		Username:             d.Username,
		Tier:                 secret.Tier(d.Tier),
		PasswordHash:         d.PasswordHash,
		OTPHash:              d.OTPHash,
		OTPExpiresAt:         timeVal(d.OTPExpiresAt),
		ConfirmedAt:          timeVal(d.ConfirmedAt),
		CredentialsChangedAt: timeVal(d.CredentialsChangedAt),
		CreatedAt:            d.CreatedAt,
	}
}

// MongoStore persists accounts in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

// Connect opens a client for uri. The caller owns Disconnect.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return client, nil
}

// NewMongoStore returns a store over db.collection. An empty collection name
// selects DefaultCollection.
func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoStore{coll: client.Database(database).Collection(collection)}
}

// EnsureIndexes creates the unique email and username indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.D{{Key: "username", Value: bson.D{{Key: "$exists", Value: true}}}},
			),
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.D) (*Account, error) {
	var doc accountDocument
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return doc.toAccount(), nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*Account, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: normalizeEmail(email)}})
}

func (s *MongoStore) Create(ctx context.Context, acct *Account) error {
	_, err := s.coll.InsertOne(ctx, toDocument(acct))
	if mongo.IsDuplicateKeyError(err) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *MongoStore) SetOTP(ctx context.Context, id, otpHash string, expiresAt time.Time) error {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "confirmed_at", Value: bson.D{{Key: "$exists", Value: false}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "otp_hash", Value: otpHash},
		{Key: "otp_expires_at", Value: expiresAt.UTC()},
	}}}
	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if err := s.classifyMiss(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: otp update matched no document", ErrUnavailable)
}

func (s *MongoStore) MarkConfirmed(ctx context.Context, id, expectedOTPHash string, at time.Time) error {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "confirmed_at", Value: bson.D{{Key: "$exists", Value: false}}},
		{Key: "otp_hash", Value: expectedOTPHash},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "confirmed_at", Value: at.UTC()}}},
		{Key: "$unset", Value: bson.D{
			{Key: "otp_hash", Value: ""},
			{Key: "otp_expires_at", Value: ""},
		}},
	}
	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if err := s.classifyMiss(ctx, id); err != nil {
		return err
	}
	return ErrNoPendingOTP
}

func (s *MongoStore) BumpWatermark(ctx context.Context, id string, at time.Time) error {
	update := bson.D{{Key: "$max", Value: bson.D{
		{Key: "credentials_changed_at", Value: at.UTC()},
	}}}
	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "password_hash", Value: passwordHash},
	}}}
	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// classifyMiss explains why a conditional update matched nothing. It returns
// nil when the account exists and is unconfirmed.
func (s *MongoStore) classifyMiss(ctx context.Context, id string) error {
	acct, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if acct.Confirmed() {
		return ErrAlreadyConfirmed
	}
	return nil
}

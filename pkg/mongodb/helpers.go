package mongodb

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Driver error labels that mark a transaction as safe to re-run
const (
	LabelTransientTransaction = "TransientTransactionError"
	LabelUnknownCommitResult  = "UnknownTransactionCommitResult"
)

// Now returns the current time in UTC truncated to the millisecond BSON keeps
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func hasLabel(err error, label string) bool {
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorLabel(label)
	}
	return false
}

// IsTransientTransactionError reports whether the whole transaction can be re-run
func IsTransientTransactionError(err error) bool {
	return hasLabel(err, LabelTransientTransaction)
}

// IsUnknownCommitResult reports whether commit may be retried on its own
func IsUnknownCommitResult(err error) bool {
	return hasLabel(err, LabelUnknownCommitResult)
}

// IsDuplicateKey reports whether err is a unique index violation
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// IsNoDocuments reports whether a single-document read found nothing
func IsNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// BuildUpdateWithTimestamp builds a $set update that also stamps updatedAt
func BuildUpdateWithTimestamp(set bson.M) bson.M {
	set["updatedAt"] = Now()
	return bson.M{"$set": set}
}

// SortDescending creates a descending sort document
func SortDescending(field string) bson.D {
	return bson.D{{Key: field, Value: -1}}
}

// SortAscending creates an ascending sort document
func SortAscending(field string) bson.D {
	return bson.D{{Key: field, Value: 1}}
}

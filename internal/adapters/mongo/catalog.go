package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Destroyerg0d/studyhub-reservations/internal/domain"
	"github.com/Destroyerg0d/studyhub-reservations/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SeatCatalog holds the fixed seat inventory with its static display
// metadata. Purely descriptive; occupancy is never stored here.
type SeatCatalog struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewSeatCatalog(db *mongo.Database, logger observability.Logger) *SeatCatalog {
	return &SeatCatalog{
		coll:   db.Collection("seats"),
		logger: logger,
	}
}

type SeatDoc struct {
	SeatNumber int       `bson:"_id"`
	Floor      int       `bson:"floor"`
	RowLabel   string    `bson:"row_label"`
	CreatedAt  time.Time `bson:"created_at"`
}

// ListSeats returns the full catalog ordered by seat number.
func (c *SeatCatalog) ListSeats(ctx context.Context) ([]domain.Seat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := c.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		c.logger.Error("failed to list seats: ", err)
		return nil, err
	}
	defer cur.Close(ctx)

	var seats []domain.Seat
	for cur.Next(ctx) {
		var doc SeatDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		seats = append(seats, domain.Seat{Number: doc.SeatNumber, Floor: doc.Floor, RowLabel: doc.RowLabel})
	}
	return seats, cur.Err()
}

// SeedDefault populates seats 1..SeatCount if the collection is empty:
// twenty seats per floor, five per row, rows labelled from A.
func (c *SeatCatalog) SeedDefault(ctx context.Context) error {
	count, err := c.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, 0, domain.SeatCount)
	for n := 1; n <= domain.SeatCount; n++ {
		floor := (n-1)/20 + 1
		row := fmt.Sprintf("%c", 'A'+(n-1)/5)
		docs = append(docs, SeatDoc{SeatNumber: n, Floor: floor, RowLabel: row, CreatedAt: now})
	}
	_, err = c.coll.InsertMany(ctx, docs)
	if err != nil {
		c.logger.Error("failed to seed seat catalog: ", err)
	}
	return err
}

package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/featuremap/pkg/scene"
)

// MongoStore keeps one document per board, keyed by the board name:
//
//	{_id: "roadmap", updatedAt: ISODate(...), world: {nodes: [...], ...}}
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// boardDoc is the stored document.
type boardDoc struct {
	Name      string       `bson:"_id"`
	UpdatedAt time.Time    `bson:"updatedAt"`
	World     *scene.World `bson:"world"`
}

// NewMongoStore connects to uri and uses database.collection.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, wrapf(err, "connect to mongo")
	}
	err = RetryWithBackoff(ctx, func() error {
		return classify(client.Ping(ctx, nil))
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, wrapf(err, "connect to mongo")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

func (s *MongoStore) Load(ctx context.Context, name string) (*scene.World, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	var doc boardDoc
	err := RetryWithBackoff(ctx, func() error {
		return classify(s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc))
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, wrapf(err, "load board %q", name)
	}
	return decodeBoard(name, doc)
}

// decodeBoard fills in what BSON leaves nil and validates the result.
func decodeBoard(name string, doc boardDoc) (*scene.World, error) {
	w := doc.World
	if w == nil {
		return nil, corrupt(name, errors.New("document has no world"))
	}
	if w.Nodes == nil {
		w.Nodes = []*scene.Node{}
	}
	if w.Edges == nil {
		w.Edges = []*scene.Edge{}
	}
	if err := w.Validate(); err != nil {
		return nil, corrupt(name, err)
	}
	return w, nil
}

func (s *MongoStore) Save(ctx context.Context, name string, w *scene.World) error {
	if err := checkName(name); err != nil {
		return err
	}
	doc := boardDoc{Name: name, UpdatedAt: time.Now().UTC(), World: w}
	err := RetryWithBackoff(ctx, func() error {
		_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
		return classify(err)
	})
	if err != nil {
		return wrapf(err, "save board %q", name)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return wrapf(err, "delete board %q", name)
	}
	if res.DeletedCount == 0 {
		return notFound(name)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]BoardInfo, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "updatedAt": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrapf(err, "list boards")
	}
	var boards []BoardInfo
	if err := cur.All(ctx, &boards); err != nil {
		return nil, wrapf(err, "list boards")
	}
	return boards, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

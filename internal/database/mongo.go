package database

import (
	"context"
	"errors"
	"fmt"
	"preacc/entity"
	"preacc/internal/config"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionUsers    = "users"
	collectionInvoices = "invoices"
	collectionEntries  = "ledger"
)

type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return entity.ErrNotFound
	}
	return fmt.Errorf("mongodb find: %w", err)
}

func (m *MongoDB) GetUser(token string) (*entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "token", Value: token}}
	var user entity.User
	if err = collection.FindOne(m.ctx, filter).Decode(&user); err != nil {
		return nil, m.findError(err)
	}
	return &user, nil
}

func (m *MongoDB) SaveInvoice(ctx context.Context, inv *entity.Invoice) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionInvoices)
	filter := bson.D{{Key: "id", Value: inv.Id}}
	update := bson.D{{Key: "$set", Value: inv}}
	opts := options.Update().SetUpsert(true)
	_, err = collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("mongodb save invoice: %w", err)
	}
	return nil
}

func (m *MongoDB) GetInvoice(ctx context.Context, companyId, id string) (*entity.Invoice, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionInvoices)
	filter := bson.D{{Key: "id", Value: id}, {Key: "company_id", Value: companyId}}
	var inv entity.Invoice
	if err = collection.FindOne(ctx, filter).Decode(&inv); err != nil {
		return nil, m.findError(err)
	}
	return &inv, nil
}

func (m *MongoDB) GetInvoiceBySession(ctx context.Context, sessionId string) (*entity.Invoice, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionInvoices)
	filter := bson.D{{Key: "session_id", Value: sessionId}}
	var inv entity.Invoice
	if err = collection.FindOne(ctx, filter).Decode(&inv); err != nil {
		return nil, m.findError(err)
	}
	return &inv, nil
}

func (m *MongoDB) ListInvoices(ctx context.Context, companyId string, f entity.InvoiceFilter) ([]*entity.Invoice, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionInvoices)
	invoices := make([]*entity.Invoice, 0)
	status := f.Status
	if f.Unpaid {
		if status != "" && status != entity.StatusIssued {
			return invoices, nil
		}
		status = entity.StatusIssued
	}
	filter := bson.D{{Key: "company_id", Value: companyId}}
	if status != "" {
		filter = append(filter, bson.E{Key: "status", Value: status})
	}
	if f.Unpaid {
		filter = append(filter, bson.E{Key: "paid", Value: false})
	}
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: -1}})
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb list invoices: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (m *MongoDB) SaveEntry(ctx context.Context, e *entity.Entry) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionEntries)
	filter := bson.D{{Key: "id", Value: e.Id}}
	update := bson.D{{Key: "$set", Value: e}}
	opts := options.Update().SetUpsert(true)
	if _, err = collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("mongodb save entry: %w", err)
	}
	return nil
}

func (m *MongoDB) GetEntry(ctx context.Context, companyId, id string) (*entity.Entry, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionEntries)
	filter := bson.D{{Key: "id", Value: id}, {Key: "company_id", Value: companyId}}
	var e entity.Entry
	if err = collection.FindOne(ctx, filter).Decode(&e); err != nil {
		return nil, m.findError(err)
	}
	return &e, nil
}

func (m *MongoDB) ListEntries(ctx context.Context, companyId string, f entity.EntryFilter) ([]*entity.Entry, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionEntries)
	filter := bson.D{{Key: "company_id", Value: companyId}}
	if f.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: f.Type})
	}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: bson.D{
			{Key: "$regex", Value: "^" + regexp.QuoteMeta(f.Category) + "$"},
			{Key: "$options", Value: "i"},
		}})
	}
	period := bson.D{}
	if f.From != "" {
		period = append(period, bson.E{Key: "$gte", Value: f.From})
	}
	if f.To != "" {
		period = append(period, bson.E{Key: "$lte", Value: f.To})
	}
	if len(period) > 0 {
		filter = append(filter, bson.E{Key: "date", Value: period})
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created", Value: -1}})
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb list entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]*entity.Entry, 0)
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (m *MongoDB) DeleteEntry(ctx context.Context, companyId, id string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionEntries)
	filter := bson.D{{Key: "id", Value: id}, {Key: "company_id", Value: companyId}}
	result, err := collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("mongodb delete entry: %w", err)
	}
	if result.DeletedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}

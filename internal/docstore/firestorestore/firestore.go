// Package firestorestore implements docstore.Collection on a Cloud Firestore collection.
package firestorestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	admin "cloud.google.com/go/firestore/apiv1/admin"
	"cloud.google.com/go/firestore/apiv1/admin/adminpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rcliao/temporal-events/internal/docstore"
	"github.com/rcliao/temporal-events/internal/model"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "events_temporal_features"

// Config selects the Firestore project and collection.
type Config struct {
	ProjectID       string
	CredentialsFile string
	Collection      string
}

// Store is a docstore.Collection backed by Firestore.
type Store struct {
	client     *firestore.Client
	projectID  string
	collection string
	clientOpts []option.ClientOption
}

// Open connects to Firestore. FIRESTORE_EMULATOR_HOST is honored by the client library.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firestore project id is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
	}

	return &Store{
		client:     client,
		projectID:  cfg.ProjectID,
		collection: cfg.Collection,
		clientOpts: opts,
	}, nil
}

func (s *Store) col() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

func (s *Store) Get(ctx context.Context, id string) (model.Event, error) {
	snap, err := s.col().Doc(id).Get(ctx)
	if err != nil {
		return model.Event{}, classify(err)
	}
	return decode(snap)
}

func (s *Store) Set(ctx context.Context, event model.Event) error {
	_, err := s.col().Doc(event.EventID).Set(ctx, event)
	return classify(err)
}

func (s *Store) Update(ctx context.Context, id string, changes map[string]any) error {
	updates := make([]firestore.Update, 0, len(changes))
	for field, v := range changes {
		if field == model.FieldEventID || field == model.FieldOwnerID {
			return fmt.Errorf("%w: field %s is immutable", docstore.ErrInvalidQuery, field)
		}
		updates = append(updates, firestore.Update{Path: field, Value: v})
	}
	if len(updates) == 0 {
		_, err := s.Get(ctx, id)
		return err
	}
	_, err := s.col().Doc(id).Update(ctx, updates)
	return classify(err)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.col().Doc(id).Delete(ctx, firestore.Exists)
	return classify(err)
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]model.Event, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	fq := s.col().Query
	for _, c := range q.Conditions {
		fq = fq.Where(c.Field, string(c.Op), c.Value)
	}
	if q.OrderField != "" {
		dir := firestore.Asc
		if q.Descending {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderField, dir)
	}
	if q.Offset > 0 {
		fq = fq.Offset(q.Offset)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	iter := fq.Documents(ctx)
	defer iter.Stop()

	events := []model.Event{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, classify(err)
		}
		ev, err := decode(snap)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// EnsureIndex requests a composite index through the admin API. created_at is indexed
// descending to serve the newest-first listings; every other field ascending. The build is
// asynchronous; until it finishes, queries keep failing with docstore.ErrIndexNotReady.
func (s *Store) EnsureIndex(ctx context.Context, fields ...string) error {
	if len(fields) < 2 {
		return fmt.Errorf("%w: composite index needs at least two fields", docstore.ErrInvalidQuery)
	}

	ac, err := admin.NewFirestoreAdminClient(ctx, s.clientOpts...)
	if err != nil {
		return fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
	}
	defer ac.Close()

	index := &adminpb.Index{QueryScope: adminpb.Index_COLLECTION}
	for _, f := range fields {
		order := adminpb.Index_IndexField_ASCENDING
		if f == model.FieldCreatedAt {
			order = adminpb.Index_IndexField_DESCENDING
		}
		index.Fields = append(index.Fields, &adminpb.Index_IndexField{
			FieldPath: f,
			ValueMode: &adminpb.Index_IndexField_Order_{Order: order},
		})
	}

	_, err = ac.CreateIndex(ctx, &adminpb.CreateIndexRequest{
		Parent: fmt.Sprintf("projects/%s/databases/(default)/collectionGroups/%s", s.projectID, s.collection),
		Index:  index,
	})
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	return classify(err)
}

func (s *Store) Close() error {
	return s.client.Close()
}

func decode(snap *firestore.DocumentSnapshot) (model.Event, error) {
	var ev model.Event
	if err := snap.DataTo(&ev); err != nil {
		return model.Event{}, fmt.Errorf("decode %s: %w", snap.Ref.ID, err)
	}
	if ev.EventID == "" {
		ev.EventID = snap.Ref.ID
	}
	ev.CreatedAt = ev.CreatedAt.UTC()
	ev.UpdatedAt = ev.UpdatedAt.UTC()
	if ev.ParsedDate != nil {
		t := ev.ParsedDate.UTC()
		ev.ParsedDate = &t
	}
	return ev, nil
}

// classify maps gRPC status codes onto docstore sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %w", docstore.ErrNotFound, err)
	case codes.FailedPrecondition:
		if strings.Contains(strings.ToLower(st.Message()), "index") {
			return fmt.Errorf("%w: %w", docstore.ErrIndexNotReady, err)
		}
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted:
		return fmt.Errorf("%w: %w", docstore.ErrUnavailable, err)
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %w", docstore.ErrInvalidQuery, err)
	}
	return err
}

var (
	_ docstore.Collection       = (*Store)(nil)
	_ docstore.IndexProvisioner = (*Store)(nil)
)

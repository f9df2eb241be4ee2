package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blogboard/internal/domain"
	"blogboard/internal/repository"
)

type blogDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Image       string             `bson:"image"`
	CreatedBy   string             `bson:"createdBy"`
	Comments    []commentDocument  `bson:"comments"`
	Version     int64              `bson:"version"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type commentDocument struct {
	ID        string    `bson:"id"`
	Text      string    `bson:"text"`
	Replies   []string  `bson:"replies"`
	CreatedAt time.Time `bson:"createdAt"`
}

type BlogRepository struct {
	coll *mongo.Collection
}

func NewBlogRepository(db *mongo.Database) repository.BlogRepository {
	return &BlogRepository{coll: db.Collection("blogs")}
}

func (r *BlogRepository) Init(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create blogs owner index: %w", err)
	}
	return nil
}

func (r *BlogRepository) Create(ctx context.Context, blog *domain.Blog) (string, error) {
	now := time.Now().UTC()
	blog.CreatedAt = now
	blog.UpdatedAt = now
	blog.Version = 1

	doc := toBlogDocument(blog)
	doc.ID = primitive.NilObjectID

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert blog: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected blog id type %T", res.InsertedID)
	}
	blog.ID = oid.Hex()
	return blog.ID, nil
}

func (r *BlogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	oid, err := primitive.ObjectIDFromHex(blog.ID)
	if err != nil {
		return fmt.Errorf("blog %s: %w", blog.ID, repository.ErrNotFound)
	}
	doc := toBlogDocument(blog)
	updatedAt := time.Now().UTC()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "version": blog.Version},
		bson.M{
			"$set": bson.M{
				"title":       doc.Title,
				"description": doc.Description,
				"image":       doc.Image,
				"comments":    doc.Comments,
				"updatedAt":   updatedAt,
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("check blog: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("blog %s: %w", blog.ID, repository.ErrNotFound)
		}
		return fmt.Errorf("blog %s: %w", blog.ID, repository.ErrVersionConflict)
	}

	blog.Version++
	blog.UpdatedAt = updatedAt
	return nil
}

func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("blog %s: %w", id, repository.ErrNotFound)
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("blog %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *BlogRepository) GetByID(ctx context.Context, id string) (*domain.Blog, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("blog %s: %w", id, repository.ErrNotFound)
	}
	var doc blogDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("blog %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("find blog: %w", err)
	}
	blog := fromBlogDocument(doc)
	return &blog, nil
}

func (r *BlogRepository) List(ctx context.Context) ([]domain.Blog, error) {
	return r.find(ctx, bson.M{})
}

func (r *BlogRepository) ListByOwner(ctx context.Context, email string) ([]domain.Blog, error) {
	return r.find(ctx, bson.M{"createdBy": email})
}

func (r *BlogRepository) ImageRefs(ctx context.Context) ([]string, error) {
	return distinctStrings(ctx, r.coll, "image")
}

func (r *BlogRepository) find(ctx context.Context, filter bson.M) ([]domain.Blog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query blogs: %w", err)
	}
	var docs []blogDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode blogs: %w", err)
	}

	blogs := make([]domain.Blog, len(docs))
	for i := range docs {
		blogs[i] = fromBlogDocument(docs[i])
	}
	return blogs, nil
}

func toBlogDocument(blog *domain.Blog) blogDocument {
	doc := blogDocument{
		Title:       blog.Title,
		Description: blog.Description,
		Image:       blog.Image,
		CreatedBy:   blog.CreatedBy,
		Comments:    make([]commentDocument, len(blog.Comments)),
		Version:     blog.Version,
		CreatedAt:   blog.CreatedAt,
		UpdatedAt:   blog.UpdatedAt,
	}
	if oid, err := primitive.ObjectIDFromHex(blog.ID); err == nil {
		doc.ID = oid
	}
	for i, c := range blog.Comments {
		replies := c.Replies
		if replies == nil {
			replies = []string{}
		}
		doc.Comments[i] = commentDocument{
			ID:        c.ID,
			Text:      c.Text,
			Replies:   replies,
			CreatedAt: c.CreatedAt,
		}
	}
	return doc
}

func fromBlogDocument(doc blogDocument) domain.Blog {
	blog := domain.Blog{
		ID:          doc.ID.Hex(),
		Title:       doc.Title,
		Description: doc.Description,
		Image:       doc.Image,
		CreatedBy:   doc.CreatedBy,
		Comments:    make([]domain.Comment, len(doc.Comments)),
		Version:     doc.Version,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	for i, c := range doc.Comments {
		replies := c.Replies
		if replies == nil {
			replies = []string{}
		}
		blog.Comments[i] = domain.Comment{
			ID:        c.ID,
			Text:      c.Text,
			Replies:   replies,
			CreatedAt: c.CreatedAt,
		}
	}
	return blog
}

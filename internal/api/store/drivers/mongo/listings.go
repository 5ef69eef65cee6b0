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

type listingsRepo struct {
	col *mdb.Collection
}

type listingDoc struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	Description   string    `bson:"description"`
	Address       string    `bson:"address"`
	OwnerRef      string    `bson:"owner_ref"`
	ContactEmail  string    `bson:"contact_email"`
	Type          string    `bson:"type"`
	RegularPrice  float64   `bson:"regular_price"`
	DiscountPrice float64   `bson:"discount_price"`
	Offer         bool      `bson:"offer"`
	Bedrooms      int       `bson:"bedrooms"`
	Bathrooms     int       `bson:"bathrooms"`
	Furnished     bool      `bson:"furnished"`
	Parking       bool      `bson:"parking"`
	ImageURLs     []string  `bson:"image_urls"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toListingDoc(l domain.Listing) listingDoc {
	return listingDoc{
		ID:            l.ID,
		Name:          l.Name,
		Description:   l.Description,
		Address:       l.Address,
		OwnerRef:      l.OwnerRef,
		ContactEmail:  l.ContactEmail,
		Type:          l.Type,
		RegularPrice:  l.RegularPrice,
		DiscountPrice: l.DiscountPrice,
		Offer:         l.Offer,
		Bedrooms:      l.Bedrooms,
		Bathrooms:     l.Bathrooms,
		Furnished:     l.Furnished,
		Parking:       l.Parking,
		ImageURLs:     l.ImageURLs,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func (d listingDoc) toDomain() domain.Listing {
	return domain.Listing{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		Address:       d.Address,
		OwnerRef:      d.OwnerRef,
		ContactEmail:  d.ContactEmail,
		Type:          d.Type,
		RegularPrice:  d.RegularPrice,
		DiscountPrice: d.DiscountPrice,
		Offer:         d.Offer,
		Bedrooms:      d.Bedrooms,
		Bathrooms:     d.Bathrooms,
		Furnished:     d.Furnished,
		Parking:       d.Parking,
		ImageURLs:     d.ImageURLs,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (r *listingsRepo) Create(ctx context.Context, l domain.Listing) error {
	_, err := r.col.InsertOne(ctx, toListingDoc(l))
	return err
}

func (r *listingsRepo) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	var doc listingDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mdb.ErrNoDocuments) {
		return domain.Listing{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Listing{}, err
	}
	return doc.toDomain(), nil
}

// buildFilter translates a ListingFilter into a mongo query document.
func buildFilter(f store.ListingFilter) bson.M {
	q := bson.M{}
	if f.Type != "" {
		q["type"] = f.Type
	}
	if f.Offer != nil {
		q["offer"] = *f.Offer
	}
	if f.Furnished != nil {
		q["furnished"] = *f.Furnished
	}
	if f.Parking != nil {
		q["parking"] = *f.Parking
	}
	if f.OwnerRef != "" {
		q["owner_ref"] = f.OwnerRef
	}
	if f.MinPrice > 0 || f.MaxPrice > 0 {
		price := bson.M{}
		if f.MinPrice > 0 {
			price["$gte"] = f.MinPrice
		}
		if f.MaxPrice > 0 {
			price["$lte"] = f.MaxPrice
		}
		q["regular_price"] = price
	}
	if f.Search != "" {
		q["$text"] = bson.M{"$search": f.Search}
	}
	return q
}

func (r *listingsRepo) List(ctx context.Context, f store.ListingFilter) ([]domain.Listing, int64, error) {
	query := buildFilter(f)

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	if f.Offset > 0 {
		opts.SetSkip(int64(f.Offset))
	}

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []domain.Listing
	for cur.Next(ctx) {
		var doc listingDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, 0, err
		}
		out = append(out, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *listingsRepo) Update(ctx context.Context, l domain.Listing) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": l.ID},
		bson.M{"$set": bson.M{
			"name":           l.Name,
			"description":    l.Description,
			"address":        l.Address,
			"type":           l.Type,
			"regular_price":  l.RegularPrice,
			"discount_price": l.DiscountPrice,
			"offer":          l.Offer,
			"bedrooms":       l.Bedrooms,
			"bathrooms":      l.Bathrooms,
			"furnished":      l.Furnished,
			"parking":        l.Parking,
			"image_urls":     l.ImageURLs,
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

func (r *listingsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *listingsRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"locadz/internal/app/uow"
	domainbooking "locadz/internal/domain/booking"
	domainpayments "locadz/internal/domain/payments"
)

type ProofRepository struct {
	col *mongo.Collection
}

func NewProofRepository(db *mongo.Database) *ProofRepository {
	return &ProofRepository{col: db.Collection(colProofs)}
}

func (r *ProofRepository) ByID(ctx context.Context, id domainpayments.ProofID) (*domainpayments.PaymentProof, error) {
	var doc proofDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, mapNotFound(err, domainpayments.ErrProofNotFound)
	}
	return doc.toAggregate(), nil
}

func (r *ProofRepository) Save(ctx context.Context, p *domainpayments.PaymentProof) error {
	doc := newProofDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		return mapWriteConflict(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	p.Version = doc.Version
	return nil
}

func (r *ProofRepository) ListByBooking(ctx context.Context, id domainbooking.BookingID) ([]*domainpayments.PaymentProof, error) {
	return r.find(ctx, bson.M{"booking_id": string(id)})
}

func (r *ProofRepository) ListByStatus(ctx context.Context, status domainpayments.ProofStatus) ([]*domainpayments.PaymentProof, error) {
	return r.find(ctx, bson.M{"status": string(status)})
}

func (r *ProofRepository) find(ctx context.Context, filter bson.M) ([]*domainpayments.PaymentProof, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []proofDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainpayments.PaymentProof, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type proofDocument struct {
	ID              string        `bson:"_id"`
	BookingID       string        `bson:"booking_id"`
	SubmittedBy     string        `bson:"submitted_by"`
	Amount          moneyDocument `bson:"amount"`
	Method          string        `bson:"method"`
	EvidenceKey     string        `bson:"evidence_key"`
	Status          string        `bson:"status"`
	ReviewerID      string        `bson:"reviewer_id,omitempty"`
	ReviewedAt      int64         `bson:"reviewed_at,omitempty"`
	RejectionReason string        `bson:"rejection_reason,omitempty"`
	CreatedAt       int64         `bson:"created_at"`
	Version         int64         `bson:"version"`
}

func newProofDocument(p *domainpayments.PaymentProof) proofDocument {
	return proofDocument{
		ID:              string(p.ID),
		BookingID:       string(p.BookingID),
		SubmittedBy:     p.SubmittedBy,
		Amount:          newMoneyDocument(p.Amount),
		Method:          string(p.Method),
		EvidenceKey:     p.EvidenceKey,
		Status:          string(p.Status),
		ReviewerID:      p.ReviewerID,
		ReviewedAt:      timeToTimestamp(p.ReviewedAt),
		RejectionReason: p.RejectionReason,
		CreatedAt:       timeToTimestamp(p.CreatedAt),
		Version:         p.Version,
	}
}

func (d proofDocument) toAggregate() *domainpayments.PaymentProof {
	status, err := domainpayments.ParseProofStatus(d.Status)
	if err != nil {
		status = domainpayments.StatusPending
	}
	return &domainpayments.PaymentProof{
		ID:              domainpayments.ProofID(d.ID),
		BookingID:       domainbooking.BookingID(d.BookingID),
		SubmittedBy:     d.SubmittedBy,
		Amount:          d.Amount.toMoney(),
		Method:          domainbooking.PaymentMethod(d.Method),
		EvidenceKey:     d.EvidenceKey,
		Status:          status,
		ReviewerID:      d.ReviewerID,
		ReviewedAt:      timestampToTime(d.ReviewedAt),
		RejectionReason: d.RejectionReason,
		CreatedAt:       timestampToTime(d.CreatedAt),
		Version:         d.Version,
	}
}

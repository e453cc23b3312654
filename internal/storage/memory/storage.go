// Package memory keeps every repository in process memory behind one mutex.
package memory

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/scribemart/internal/domain/errors"
	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/domain/repository"
	"github.com/polkiloo/scribemart/internal/settlement"
)

// Storage is a repository factory backed by maps.
type Storage struct {
	mu     sync.Mutex
	now    func() time.Time
	logger *slog.Logger

	users    map[int64]*model.User
	emails   map[string]int64
	orders   map[int64]*model.Order
	numbers  map[string]int64
	payments map[int64]*model.PaymentRecord
	stats    map[int64]*model.WriterStats

	seq int64
}

type userRepository struct{ s *Storage }
type orderRepository struct{ s *Storage }
type submissionRepository struct{ s *Storage }
type paymentRepository struct{ s *Storage }
type statsRepository struct{ s *Storage }

// New creates an empty store.
func New(logger *slog.Logger) *Storage {
	return &Storage{
		now:      time.Now,
		logger:   logger,
		users:    make(map[int64]*model.User),
		emails:   make(map[string]int64),
		orders:   make(map[int64]*model.Order),
		numbers:  make(map[string]int64),
		payments: make(map[int64]*model.PaymentRecord),
		stats:    make(map[int64]*model.WriterStats),
	}
}

// SetClock replaces the time source.
func (s *Storage) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Storage) Users() repository.UserRepository             { return &userRepository{s} }
func (s *Storage) Orders() repository.OrderRepository           { return &orderRepository{s} }
func (s *Storage) Submissions() repository.SubmissionRepository { return &submissionRepository{s} }
func (s *Storage) Payments() repository.PaymentRepository       { return &paymentRepository{s} }
func (s *Storage) Stats() repository.StatsRepository            { return &statsRepository{s} }

func (s *Storage) nextID() int64 {
	s.seq++
	return s.seq
}

// --- UserRepository implementation ---

func (r *userRepository) Create(_ context.Context, user model.User) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := r.s.emails[key]; ok {
		return nil, domainErrors.ErrAlreadyExists
	}
	user.ID = r.s.nextID()
	user.CreatedAt = r.s.now()
	if user.Status == "" {
		user.Status = model.UserStatusActive
	}
	r.s.users[user.ID] = &user
	r.s.emails[key] = user.ID
	u := user
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.emails[strings.ToLower(email)]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	u := *r.s.users[id]
	return &u, nil
}

func (r *userRepository) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepository) SetStatus(_ context.Context, id int64, status model.UserStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	u.Status = status
	return nil
}

// --- StatsRepository implementation ---

func (r *statsRepository) Get(_ context.Context, writerID int64) (*model.WriterStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if st, ok := r.s.stats[writerID]; ok {
		cp := *st
		return &cp, nil
	}
	return &model.WriterStats{WriterID: writerID}, nil
}

// --- OrderRepository implementation ---

func (r *orderRepository) Create(_ context.Context, order *model.Order, entry model.TimelineEntry) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.numbers[order.Number]; ok {
		return nil, domainErrors.ErrAlreadyExists
	}
	now := r.s.now()
	o := cloneOrder(order)
	o.ID = r.s.nextID()
	o.CreatedAt = now
	o.UpdatedAt = now
	o.Bids = nil
	o.Submissions = nil
	o.Timeline = nil
	r.s.appendTimeline(o, entry)

	r.s.orders[o.ID] = o
	r.s.numbers[o.Number] = o.ID
	return cloneOrder(o), nil
}

func (r *orderRepository) GetByID(_ context.Context, id int64) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *orderRepository) GetByNumber(_ context.Context, number string) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.numbers[number]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return cloneOrder(r.s.orders[id]), nil
}

func (r *orderRepository) ListByClient(_ context.Context, clientID int64) ([]model.Order, error) {
	return r.s.listOrders(func(o *model.Order) bool { return o.IsClient(clientID) }), nil
}

func (r *orderRepository) ListByWriter(_ context.Context, writerID int64) ([]model.Order, error) {
	return r.s.listOrders(func(o *model.Order) bool { return o.IsWriter(writerID) }), nil
}

func (r *orderRepository) ListAvailable(_ context.Context) ([]model.Order, error) {
	return r.s.listOrders(func(o *model.Order) bool { return o.Status == model.OrderStatusPending }), nil
}

func (r *orderRepository) Timeline(_ context.Context, orderID int64) ([]model.TimelineEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return append([]model.TimelineEntry(nil), o.Timeline...), nil
}

func (r *orderRepository) AddBid(_ context.Context, bid model.Bid) (*model.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[bid.OrderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if o.Status != model.OrderStatusPending {
		return nil, &domainErrors.StateError{Op: "bid", Status: string(o.Status)}
	}
	for _, b := range o.Bids {
		if b.WriterID == bid.WriterID && b.Status == model.BidStatusPending {
			return nil, domainErrors.ErrDuplicateBid
		}
	}
	now := r.s.now()
	bid.ID = r.s.nextID()
	bid.Status = model.BidStatusPending
	bid.CreatedAt = now
	bid.UpdatedAt = now
	o.Bids = append(o.Bids, bid)
	o.UpdatedAt = now
	b := bid
	return &b, nil
}

func (r *orderRepository) WithdrawBid(_ context.Context, orderID, writerID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	for i := range o.Bids {
		if o.Bids[i].WriterID == writerID && o.Bids[i].Status == model.BidStatusPending {
			o.Bids[i].Status = model.BidStatusWithdrawn
			o.Bids[i].UpdatedAt = r.s.now()
			return nil
		}
	}
	return domainErrors.ErrNotFound
}

func (r *orderRepository) Transition(_ context.Context, t model.Transition) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, err := r.s.applyTransition(t)
	if err != nil {
		return nil, err
	}
	return cloneOrder(o), nil
}

func (r *orderRepository) Complete(_ context.Context, c model.Completion) (*model.Order, *model.PaymentRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[c.OrderID]
	if !ok {
		return nil, nil, domainErrors.ErrNotFound
	}
	if !statusIn(o.Status, c.From) {
		return nil, nil, &domainErrors.StateError{Op: c.Entry.Event, Status: string(o.Status)}
	}

	var credited *model.PaymentRecord
	for _, p := range r.s.payments {
		if p.Type != model.PaymentTypeOrder || p.OrderID == nil || *p.OrderID != o.ID {
			continue
		}
		switch p.Status {
		case model.PaymentStatusCompleted:
			credited = p
		case model.PaymentStatusPending, model.PaymentStatusProcessing:
			return nil, nil, &domainErrors.StateError{Op: "settle", Status: string(p.Status)}
		}
	}

	o, err := r.s.applyTransition(c.Transition)
	if err != nil {
		return nil, nil, err
	}
	if c.Rating != nil {
		rating := *c.Rating
		o.Rating = &rating
	}

	if credited != nil {
		credited.PayeeID = o.WriterID
	} else {
		rec := c.Payment
		rec.ID = r.s.nextID()
		now := r.s.now()
		rec.RequestedAt = now
		rec.CompletedAt = &now
		credited = &rec
		r.s.payments[rec.ID] = credited
	}

	if o.WriterID != nil {
		st, ok := r.s.stats[*o.WriterID]
		if !ok {
			st = &model.WriterStats{WriterID: *o.WriterID}
		}
		next := settlement.ApplyCompletion(*st, c.OnTime, c.Rating)
		r.s.stats[*o.WriterID] = &next
	}

	rec := clonePayment(credited)
	return cloneOrder(o), rec, nil
}

func (r *orderRepository) LinkClient(_ context.Context, orderID int64, guestEmail string, clientID int64, entry model.TimelineEntry) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	guest, ok := o.Guest()
	if !ok {
		return nil, &domainErrors.StateError{Op: "link", Status: string(o.Status)}
	}
	if !strings.EqualFold(guest.Email, guestEmail) {
		return nil, domainErrors.ErrForbidden
	}
	o.Client = model.IdentifiedClient{UserID: clientID}
	r.s.appendTimeline(o, entry)
	return cloneOrder(o), nil
}

// --- SubmissionRepository implementation ---

func (r *submissionRepository) ClaimPendingChecks(_ context.Context, limit int) ([]model.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := r.s.sortedOrderIDs()
	var claimed []model.Submission
	for i := len(ids) - 1; i >= 0 && len(claimed) < limit; i-- {
		o := r.s.orders[ids[i]]
		for j := range o.Submissions {
			if len(claimed) >= limit {
				break
			}
			if o.Submissions[j].CheckStatus == model.CheckStatusPending {
				o.Submissions[j].CheckStatus = model.CheckStatusChecking
				claimed = append(claimed, o.Submissions[j])
			}
		}
	}
	return claimed, nil
}

func (r *submissionRepository) SaveCheckResult(_ context.Context, submissionID int64, status model.CheckStatus, result *model.OriginalityResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sub := r.s.findSubmission(submissionID)
	if sub == nil {
		return domainErrors.ErrNotFound
	}
	sub.CheckStatus = status
	if result != nil {
		score := result.Score
		sub.Score = &score
		sub.Flagged = result.Flagged
	}
	now := r.s.now()
	sub.CheckedAt = &now
	return nil
}

func (r *submissionRepository) Requeue(_ context.Context, orderID, submissionID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[orderID]
	if !ok {
		return domainErrors.ErrNotFound
	}
	for i := range o.Submissions {
		if o.Submissions[i].ID != submissionID {
			continue
		}
		if o.Submissions[i].CheckStatus != model.CheckStatusUnchecked {
			return &domainErrors.StateError{Op: "recheck", Status: string(o.Submissions[i].CheckStatus)}
		}
		o.Submissions[i].CheckStatus = model.CheckStatusPending
		return nil
	}
	return domainErrors.ErrNotFound
}

// --- PaymentRepository implementation ---

func (r *paymentRepository) CreateCharge(_ context.Context, rec model.PaymentRecord) (*model.PaymentRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rec.OrderID == nil {
		return nil, domainErrors.Invalid("order_id", "required")
	}
	if _, ok := r.s.orders[*rec.OrderID]; !ok {
		return nil, domainErrors.ErrNotFound
	}
	for _, p := range r.s.payments {
		if p.Type == model.PaymentTypeOrder && p.OrderID != nil && *p.OrderID == *rec.OrderID && p.Status != model.PaymentStatusFailed {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	return r.s.insertPayment(rec), nil
}

func (r *paymentRepository) CreateWithdrawal(_ context.Context, rec model.PaymentRecord) (*model.PaymentRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rec.PayeeID == nil {
		return nil, domainErrors.Invalid("payee_id", "required")
	}
	balance := r.s.balance(*rec.PayeeID)
	if balance.Available.LessThan(rec.Amount) {
		return nil, domainErrors.ErrInsufficientBalance
	}
	return r.s.insertPayment(rec), nil
}

func (r *paymentRepository) CreateRefund(_ context.Context, rec model.PaymentRecord) (*model.PaymentRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rec.RelatedID == nil {
		return nil, domainErrors.Invalid("related_id", "required")
	}
	original, ok := r.s.payments[*rec.RelatedID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if !original.Charged() {
		return nil, &domainErrors.StateError{Op: "refund", Status: string(original.Status)}
	}
	refunded := decimal.Zero
	for _, p := range r.s.payments {
		if p.Type == model.PaymentTypeRefund && p.RelatedID != nil && *p.RelatedID == original.ID && p.Status != model.PaymentStatusFailed {
			refunded = refunded.Add(p.Amount)
		}
	}
	if refunded.Add(rec.Amount).GreaterThan(original.Amount) {
		return nil, domainErrors.Invalid("amount", "exceeds refundable amount")
	}
	rec.OrderID = original.OrderID
	return r.s.insertPayment(rec), nil
}

func (r *paymentRepository) Update(_ context.Context, id int64, from []model.PaymentStatus, upd model.PaymentUpdate) (*model.PaymentRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payments[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	allowed := false
	for _, st := range from {
		if p.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, &domainErrors.StateError{Op: string(upd.Status), Status: string(p.Status)}
	}

	now := r.s.now()
	p.Status = upd.Status
	if upd.GatewayReference != "" {
		p.GatewayReference = upd.GatewayReference
	}
	if len(upd.GatewayPayload) > 0 {
		p.GatewayPayload = upd.GatewayPayload
	}
	if upd.FailureReason != "" {
		p.FailureReason = upd.FailureReason
	}
	if upd.Status == model.PaymentStatusProcessing {
		p.ApprovedAt = &now
	}
	if upd.Status.Terminal() {
		p.CompletedAt = &now
	}

	if upd.OrderPaymentStatus != nil && p.OrderID != nil {
		if o, ok := r.s.orders[*p.OrderID]; ok {
			o.PaymentStatus = *upd.OrderPaymentStatus
			if *upd.OrderPaymentStatus == model.OrderPaymentPaid {
				o.PaymentMethod = p.Method
				o.PaymentReference = p.GatewayReference
			}
			o.UpdatedAt = now
		}
	}
	return clonePayment(p), nil
}

func (r *paymentRepository) GetByID(_ context.Context, id int64) (*model.PaymentRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payments[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return clonePayment(p), nil
}

func (r *paymentRepository) ListByUser(_ context.Context, userID int64) ([]model.PaymentRecord, error) {
	return r.s.listPayments(func(p *model.PaymentRecord) bool {
		return (p.PayerID != nil && *p.PayerID == userID) || (p.PayeeID != nil && *p.PayeeID == userID)
	}), nil
}

func (r *paymentRepository) ListWithdrawals(_ context.Context, statuses []model.PaymentStatus) ([]model.PaymentRecord, error) {
	return r.s.listPayments(func(p *model.PaymentRecord) bool {
		if p.Type != model.PaymentTypeWithdrawal {
			return false
		}
		if len(statuses) == 0 {
			return true
		}
		for _, st := range statuses {
			if p.Status == st {
				return true
			}
		}
		return false
	}), nil
}

func (r *paymentRepository) Balance(_ context.Context, writerID int64) (*model.Balance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b := r.s.balance(writerID)
	return &b, nil
}

// --- helpers (callers hold s.mu) ---

func (s *Storage) applyTransition(t model.Transition) (*model.Order, error) {
	o, ok := s.orders[t.OrderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if !statusIn(o.Status, t.From) {
		return nil, &domainErrors.StateError{Op: t.Entry.Event, Status: string(o.Status)}
	}

	now := s.now()
	o.Status = t.To
	o.UpdatedAt = now
	if t.WriterID != nil {
		id := *t.WriterID
		o.WriterID = &id
	}
	if t.CloseBids {
		for i := range o.Bids {
			if o.Bids[i].Status != model.BidStatusPending {
				continue
			}
			if t.WriterID != nil && o.Bids[i].WriterID == *t.WriterID {
				o.Bids[i].Status = model.BidStatusAccepted
			} else {
				o.Bids[i].Status = model.BidStatusRejected
			}
			o.Bids[i].UpdatedAt = now
		}
	}
	if t.Submission != nil {
		sub := *t.Submission
		sub.ID = s.nextID()
		sub.OrderID = o.ID
		sub.SubmittedAt = now
		if sub.CheckStatus == "" {
			sub.CheckStatus = model.CheckStatusPending
		}
		o.Submissions = append(o.Submissions, sub)
	}
	if t.Revision != nil {
		rev := *t.Revision
		rev.RequestedAt = now
		o.Revision = &rev
	}
	s.appendTimeline(o, t.Entry)
	return o, nil
}

func (s *Storage) appendTimeline(o *model.Order, entry model.TimelineEntry) {
	entry.ID = s.nextID()
	entry.OrderID = o.ID
	entry.CreatedAt = s.now()
	o.Timeline = append(o.Timeline, entry)
}

func (s *Storage) insertPayment(rec model.PaymentRecord) *model.PaymentRecord {
	rec.ID = s.nextID()
	rec.RequestedAt = s.now()
	if rec.Status.Terminal() {
		at := rec.RequestedAt
		rec.CompletedAt = &at
	}
	s.payments[rec.ID] = &rec
	return clonePayment(&rec)
}

func (s *Storage) balance(writerID int64) model.Balance {
	var b model.Balance
	for _, p := range s.payments {
		if p.PayeeID == nil || *p.PayeeID != writerID {
			continue
		}
		switch {
		case p.Type == model.PaymentTypeOrder && p.Status == model.PaymentStatusCompleted:
			b.Earned = b.Earned.Add(p.NetAmount)
		case p.Type == model.PaymentTypeWithdrawal && p.Status == model.PaymentStatusCompleted:
			b.Withdrawn = b.Withdrawn.Add(p.Amount)
		case p.Type == model.PaymentTypeWithdrawal && (p.Status == model.PaymentStatusPending || p.Status == model.PaymentStatusProcessing):
			b.Pending = b.Pending.Add(p.Amount)
		}
	}
	b.Available = settlement.Available(b.Earned, b.Withdrawn, b.Pending)
	return b
}

func (s *Storage) findSubmission(id int64) *model.Submission {
	for _, o := range s.orders {
		for i := range o.Submissions {
			if o.Submissions[i].ID == id {
				return &o.Submissions[i]
			}
		}
	}
	return nil
}

func (s *Storage) sortedOrderIDs() []int64 {
	ids := make([]int64, 0, len(s.orders))
	for id := range s.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids
}

func (s *Storage) listOrders(match func(*model.Order) bool) []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.Order
	for _, id := range s.sortedOrderIDs() {
		if o := s.orders[id]; match(o) {
			result = append(result, *cloneOrder(o))
		}
	}
	return result
}

func (s *Storage) listPayments(match func(*model.PaymentRecord) bool) []model.PaymentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.PaymentRecord
	for _, p := range s.payments {
		if match(p) {
			result = append(result, *clonePayment(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result
}

func statusIn(status model.OrderStatus, set []model.OrderStatus) bool {
	for _, st := range set {
		if st == status {
			return true
		}
	}
	return false
}

func cloneOrder(o *model.Order) *model.Order {
	cp := *o
	if o.WriterID != nil {
		id := *o.WriterID
		cp.WriterID = &id
	}
	if o.Revision != nil {
		rev := *o.Revision
		cp.Revision = &rev
	}
	if o.Rating != nil {
		rating := *o.Rating
		cp.Rating = &rating
	}
	cp.Bids = append([]model.Bid(nil), o.Bids...)
	cp.Submissions = append([]model.Submission(nil), o.Submissions...)
	cp.Timeline = append([]model.TimelineEntry(nil), o.Timeline...)
	return &cp
}

func clonePayment(p *model.PaymentRecord) *model.PaymentRecord {
	cp := *p
	return &cp
}

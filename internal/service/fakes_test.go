package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/shelfnotes/bookreview/internal/domain"
	"github.com/shelfnotes/bookreview/internal/repository"
	apperrors "github.com/shelfnotes/bookreview/pkg/errors"
	"github.com/shelfnotes/bookreview/pkg/pagination"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- In-memory store ---

// memStore implements both repositories over maps. afterList, when set, runs
// after ListByBookID has read its snapshot and outside the lock, so tests can
// interleave concurrent recomputes deterministically.
type memStore struct {
	mu        sync.Mutex
	books     map[string]domain.Book
	order     []string
	reviews   map[string]domain.Review
	afterList func(ctx context.Context)
}

func newMemStore() *memStore {
	return &memStore{
		books:   make(map[string]domain.Book),
		reviews: make(map[string]domain.Review),
	}
}

func (m *memStore) book(id string) domain.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.books[id]
}

func (m *memStore) setBook(b domain.Book) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[b.ID] = b
}

func (m *memStore) ratingsOf(bookID string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for _, r := range m.reviews {
		if r.BookID == bookID {
			out = append(out, r.Rating)
		}
	}
	return out
}

type bookStore struct{ *memStore }

func (s bookStore) Create(_ context.Context, b *domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[b.ID] = *b
	s.order = append(s.order, b.ID)
	return nil
}

func (s bookStore) GetByID(_ context.Context, id string) (*domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &b, nil
}

func (s bookStore) List(_ context.Context, f repository.BookFilter) ([]domain.Book, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []domain.Book
	for _, id := range s.order {
		b := s.books[id]
		if f.Author != nil && !containsFold(b.Author, *f.Author) {
			continue
		}
		if f.Genre != nil && !containsFold(b.Genre, *f.Genre) {
			continue
		}
		matched = append(matched, b)
	}
	start := min(f.Offset, len(matched))
	end := min(f.Offset+f.Limit, len(matched))
	return append([]domain.Book{}, matched[start:end]...), len(matched), nil
}

func (s bookStore) Search(_ context.Context, q string) ([]domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Book{}
	for _, id := range s.order {
		b := s.books[id]
		if containsFold(b.Title, q) || containsFold(b.Author, q) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s bookStore) UpdateRating(_ context.Context, b *domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.books[b.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	cur.AverageRating = b.AverageRating
	cur.ReviewCount = b.ReviewCount
	s.books[b.ID] = cur
	return nil
}

func (s bookStore) UpdateAverageRating(_ context.Context, b *domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.books[b.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	cur.AverageRating = b.AverageRating
	s.books[b.ID] = cur
	return nil
}

type reviewStore struct{ *memStore }

func (s reviewStore) Create(_ context.Context, r *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reviews {
		if existing.BookID == r.BookID && existing.UserID == r.UserID {
			return apperrors.AlreadyExists("review", "book", r.BookID)
		}
	}
	s.reviews[r.ID] = *r
	return nil
}

func (s reviewStore) GetByBookAndUser(_ context.Context, bookID, userID string) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reviews {
		if r.BookID == bookID && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s reviewStore) GetByIDAndUser(_ context.Context, id, userID string) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok || r.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return &r, nil
}

func (s reviewStore) ListByBookID(ctx context.Context, bookID string) ([]domain.Review, error) {
	s.mu.Lock()
	out := []domain.Review{}
	for _, r := range s.reviews {
		if r.BookID == bookID {
			out = append(out, r)
		}
	}
	hook := s.afterList
	s.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	return out, nil
}

func (s reviewStore) ListPageByBookID(_ context.Context, bookID string, p pagination.Params) ([]domain.Review, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Review
	for _, r := range s.reviews {
		if r.BookID == bookID {
			all = append(all, r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := min(p.Offset, len(all))
	end := min(p.Offset+p.Limit, len(all))
	return append([]domain.Review{}, all[start:end]...), len(all), nil
}

func (s reviewStore) Update(_ context.Context, r *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.reviews[r.ID]
	if !ok || cur.UserID != r.UserID {
		return apperrors.ErrNotFound
	}
	s.reviews[r.ID] = *r
	return nil
}

func (s reviewStore) DeleteByIDAndUser(_ context.Context, id, userID string) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok || r.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	delete(s.reviews, id)
	return &r, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// --- Event recorder ---

type recordedEvents struct {
	mu     sync.Mutex
	topics []string
}

func (r *recordedEvents) add(topic string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return nil
}

func (r *recordedEvents) PublishBookCreated(context.Context, *domain.Book) error {
	return r.add("book.created")
}

func (r *recordedEvents) PublishBookRatingUpdated(context.Context, *domain.Book) error {
	return r.add("book.rating_updated")
}

func (r *recordedEvents) PublishReviewCreated(context.Context, *domain.Review) error {
	return r.add("review.created")
}

func (r *recordedEvents) PublishReviewUpdated(context.Context, *domain.Review) error {
	return r.add("review.updated")
}

func (r *recordedEvents) PublishReviewDeleted(context.Context, *domain.Review) error {
	return r.add("review.deleted")
}

// --- testify mocks ---

type mockBookRepository struct {
	mock.Mock
}

func (m *mockBookRepository) Create(ctx context.Context, b *domain.Book) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *mockBookRepository) List(ctx context.Context, f repository.BookFilter) ([]domain.Book, int, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]domain.Book), args.Int(1), args.Error(2)
}

func (m *mockBookRepository) Search(ctx context.Context, q string) ([]domain.Book, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Book), args.Error(1)
}

func (m *mockBookRepository) UpdateRating(ctx context.Context, b *domain.Book) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookRepository) UpdateAverageRating(ctx context.Context, b *domain.Book) error {
	return m.Called(ctx, b).Error(0)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishBookCreated(ctx context.Context, b *domain.Book) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockEvents) PublishBookRatingUpdated(ctx context.Context, b *domain.Book) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockEvents) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockEvents) PublishReviewUpdated(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockEvents) PublishReviewDeleted(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

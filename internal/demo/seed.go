package demo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/seatgenie/library/internal/database/authors"
	"github.com/seatgenie/library/internal/database/books"
	"github.com/seatgenie/library/internal/database/loans"
	"github.com/seatgenie/library/internal/database/members"
	"github.com/seatgenie/library/internal/entities"
)

// ErrNotEmpty is returned when seeding a database that already has books.
var ErrNotEmpty = errors.New("database already contains books")

// SeedResult counts the rows created by Seed.
type SeedResult struct {
	Authors int `json:"authors"`
	Members int `json:"members"`
	Books   int `json:"books"`
	Loans   int `json:"loans"`
}

type seedBook struct {
	title  string
	isbn   string
	author int
	year   int
	lost   bool
}

type seedLoan struct {
	book, member int
	loanedDaysAgo int
	dueDaysAgo    int // negative: due in the future
	returnedAgo   *int
}

func daysAgo(n int) *int { return &n }

var (
	seedAuthors = []entities.Author{
		{Name: "Ursula K. Le Guin"},
		{Name: "Octavia E. Butler"},
		{Name: "Italo Calvino"},
		{Name: "Toni Morrison"},
	}
	seedMembers = []entities.Member{
		{Name: "Ava Li", Email: "ava.li@example.com"},
		{Name: "Ben Wu", Email: "ben.wu@example.com"},
		{Name: "Chioma Obi", Email: "chioma.obi@example.com"},
		{Name: "Diego Ruiz", Email: "diego.ruiz@example.com"},
	}
	seedBooks = []seedBook{
		{"The Dispossessed", "9780061054884", 0, 1974, false},
		{"The Left Hand of Darkness", "9780441478125", 0, 1969, false},
		{"Kindred", "9780807083697", 1, 1979, false},
		{"Parable of the Sower", "9781538732182", 1, 1993, false},
		{"Invisible Cities", "9780156453806", 2, 1972, false},
		{"If on a Winter's Night a Traveler", "9780156439619", 2, 1979, false},
		{"Beloved", "9781400033416", 3, 1987, false},
		{"Song of Solomon", "9781400033423", 3, 1977, true},
	}
	seedLoans = []seedLoan{
		{book: 0, member: 0, loanedDaysAgo: 30, dueDaysAgo: 16},
		{book: 2, member: 1, loanedDaysAgo: 5, dueDaysAgo: -9},
		{book: 4, member: 0, loanedDaysAgo: 60, dueDaysAgo: 46, returnedAgo: daysAgo(50)},
		{book: 4, member: 2, loanedDaysAgo: 40, dueDaysAgo: 26, returnedAgo: daysAgo(28)},
		{book: 6, member: 0, loanedDaysAgo: 20, dueDaysAgo: 6, returnedAgo: daysAgo(7)},
		{book: 3, member: 3, loanedDaysAgo: 3, dueDaysAgo: -11},
	}
)

// Seed fills an empty database with a small demo catalogue and a loan
// history relative to now. Loans go through the loan lifecycle so book
// statuses stay consistent.
func Seed(ctx context.Context, db *gorm.DB, now time.Time) (*SeedResult, error) {
	var existing int64
	if err := db.WithContext(ctx).Model(&entities.Book{}).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}
	if existing > 0 {
		return nil, ErrNotEmpty
	}

	authorRepo := authors.NewRepository(db)
	memberRepo := members.NewRepository(db)
	bookRepo := books.NewRepository(db)
	loanRepo := loans.NewRepository(db)

	result := &SeedResult{}
	now = now.UTC()
	day := 24 * time.Hour

	authorIDs := make([]uint, len(seedAuthors))
	for i, a := range seedAuthors {
		author := a
		if err := authorRepo.Create(ctx, &author); err != nil {
			return nil, fmt.Errorf("seed author %q: %w", a.Name, err)
		}
		authorIDs[i] = author.ID
		result.Authors++
	}

	memberIDs := make([]uint, len(seedMembers))
	for i, m := range seedMembers {
		member := m
		if err := memberRepo.Create(ctx, &member); err != nil {
			return nil, fmt.Errorf("seed member %q: %w", m.Email, err)
		}
		memberIDs[i] = member.ID
		result.Members++
	}

	bookIDs := make([]uint, len(seedBooks))
	for i, b := range seedBooks {
		year := b.year
		book := entities.Book{
			Title:         b.title,
			ISBN:          b.isbn,
			AuthorID:      &authorIDs[b.author],
			PublishedYear: &year,
			Status:        entities.BookStatusAvailable,
		}
		if b.lost {
			book.Status = entities.BookStatusLost
		}
		if err := bookRepo.Create(ctx, &book); err != nil {
			return nil, fmt.Errorf("seed book %q: %w", b.title, err)
		}
		bookIDs[i] = book.ID
		result.Books++
	}

	for _, l := range seedLoans {
		loan, err := loanRepo.Checkout(ctx, loans.CheckoutInput{
			BookID:   bookIDs[l.book],
			MemberID: memberIDs[l.member],
			LoanedAt: now.Add(-time.Duration(l.loanedDaysAgo) * day),
			DueAt:    now.Add(-time.Duration(l.dueDaysAgo) * day),
		})
		if err != nil {
			return nil, fmt.Errorf("seed loan of %q: %w", seedBooks[l.book].title, err)
		}
		if l.returnedAgo != nil {
			returned := now.Add(-time.Duration(*l.returnedAgo) * day)
			if _, err := loanRepo.Update(ctx, loan.ID, loans.UpdateInput{ReturnedAt: &returned}); err != nil {
				return nil, fmt.Errorf("seed return of %q: %w", seedBooks[l.book].title, err)
			}
		}
		result.Loans++
	}

	return result, nil
}

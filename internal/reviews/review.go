package reviews

import (
	"time"

	"github.com/angelmondragon/cafehop-backend/pkg/db/models"
	"github.com/google/uuid"
)

const (
	MinRating         = 1
	MaxRating         = 5
	MinReplyLength    = 10
	MaxReplyLength    = 1000
	MaxBodyLength     = 2000
	MaxAuthorNameSize = 80
)

// Review is a customer rating as shown on the café's reviews screen.
type Review struct {
	ID         string    `json:"id"`
	CafeID     string    `json:"cafe_id"`
	AuthorName string    `json:"author_name"`
	Rating     int       `json:"rating"`
	Body       string    `json:"body"`
	Reply      *Reply    `json:"reply,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Reply is the café's single answer to a review.
type Reply struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary aggregates a café's reviews. Distribution always carries every
// star value from 1 to 5.
type Summary struct {
	CafeID       string      `json:"cafe_id"`
	Average      float64     `json:"average"`
	Count        int         `json:"count"`
	Distribution map[int]int `json:"distribution"`
}

// NewReviewID returns a collision-resistant review identifier.
func NewReviewID() string {
	return "rev_" + uuid.NewString()
}

func fromModel(row models.Review) Review {
	out := Review{
		ID:         row.ID,
		CafeID:     row.CafeID,
		AuthorName: row.AuthorName,
		Rating:     row.Rating,
		Body:       row.Body,
		CreatedAt:  row.CreatedAt.UTC(),
	}
	if row.ReplyText != nil {
		reply := Reply{Text: *row.ReplyText}
		if row.RepliedAt != nil {
			reply.CreatedAt = row.RepliedAt.UTC()
		}
		out.Reply = &reply
	}
	return out
}

func summarize(cafeID string, counts []RatingCount) Summary {
	out := Summary{CafeID: cafeID, Distribution: make(map[int]int, MaxRating)}
	for star := MinRating; star <= MaxRating; star++ {
		out.Distribution[star] = 0
	}
	total := 0
	for _, c := range counts {
		if c.Rating < MinRating || c.Rating > MaxRating {
			continue
		}
		out.Distribution[c.Rating] += c.Count
		out.Count += c.Count
		total += c.Rating * c.Count
	}
	if out.Count > 0 {
		out.Average = roundRating(float64(total) / float64(out.Count))
	}
	return out
}

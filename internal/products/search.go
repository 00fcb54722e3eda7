package product

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	minRankedQueryRunes = 3
	substringLimit      = 10
	rankedLimit         = 20
)

// searchVectorSQL must stay in sync with idx_products_search.
const searchVectorSQL = `(setweight(to_tsvector('english', coalesce(products.name, '')), 'A') || ` +
	`setweight(to_tsvector('english', coalesce(products.description, '')), 'B') || ` +
	`setweight(to_tsvector('english', coalesce(products.manufacturer, '')), 'C'))`

const (
	nameLike         = `LOWER(products.name) LIKE ? ESCAPE '\'`
	descriptionLike  = `LOWER(products.description) LIKE ? ESCAPE '\'`
	manufacturerLike = `LOWER(products.manufacturer) LIKE ? ESCAPE '\'`
)

// ListParams filters the catalog listing.
type ListParams struct {
	Search     string
	CategoryID *uuid.UUID
}

type searchMode int

const (
	searchNone searchMode = iota
	searchSubstring
	searchRanked
)

func modeFor(query string) searchMode {
	switch q := strings.TrimSpace(query); {
	case q == "":
		return searchNone
	case utf8.RuneCountInString(q) < minRankedQueryRunes:
		return searchSubstring
	default:
		return searchRanked
	}
}

func likePattern(query string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(escaper.Replace(query)) + "%"
}

// applySearch narrows db according to the query length policy: short queries
// match name or manufacturer substrings, longer ones are ranked.
func applySearch(db *gorm.DB, query string, postgres bool) *gorm.DB {
	query = strings.TrimSpace(query)
	switch modeFor(query) {
	case searchSubstring:
		pattern := likePattern(query)
		return db.
			Where("("+nameLike+" OR "+manufacturerLike+")", pattern, pattern).
			Order("products.name ASC").
			Limit(substringLimit)
	case searchRanked:
		if postgres {
			return rankedFullText(db, query)
		}
		return rankedWeightedLike(db, query)
	default:
		return db.Order("products.name ASC")
	}
}

// rankedFullText scores name, description and manufacturer with ts_rank and
// keeps plain substring hits on name or manufacturer at rank zero.
func rankedFullText(db *gorm.DB, query string) *gorm.DB {
	pattern := likePattern(query)
	tsQuery := "plainto_tsquery('english', ?)"
	return db.
		Select("products.*, CASE WHEN "+searchVectorSQL+" @@ "+tsQuery+
			" THEN ts_rank("+searchVectorSQL+", "+tsQuery+") ELSE 0 END AS search_rank", query, query).
		Where("("+searchVectorSQL+" @@ "+tsQuery+" OR "+nameLike+" OR "+manufacturerLike+")", query, pattern, pattern).
		Order("search_rank DESC, products.name ASC").
		Limit(rankedLimit)
}

func rankedWeightedLike(db *gorm.DB, query string) *gorm.DB {
	pattern := likePattern(query)
	weight := "(CASE WHEN " + nameLike + " THEN 3 ELSE 0 END + " +
		"CASE WHEN " + descriptionLike + " THEN 2 ELSE 0 END + " +
		"CASE WHEN " + manufacturerLike + " THEN 1 ELSE 0 END)"
	return db.
		Select("products.*, "+weight+" AS search_rank", pattern, pattern, pattern).
		Where("("+nameLike+" OR "+descriptionLike+" OR "+manufacturerLike+")", pattern, pattern, pattern).
		Order("search_rank DESC, products.name ASC").
		Limit(rankedLimit)
}
